package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/CalTopSoft/backend-devhub/internal/model"
	"github.com/CalTopSoft/backend-devhub/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var projectCols = []string{
	"id", "org_id", "author_id", "name", "short_desc", "long_desc",
	"status", "draft_status", "assets", "icon", "images", "draft",
	"moderation_notes", "published_at", "created_at", "updated_at",
}

func sampleProject() *model.Project {
	now := time.Now().UTC().Truncate(time.Second)
	return &model.Project{
		ID:       "proj-1",
		OrgID:    "org-1",
		AuthorID: "author-1",
		Name:     "devhub-sample",
		ShortDesc: "sample",
		LongDesc:  "a longer description",
		Status:      model.StatusPending,
		DraftStatus: model.DraftStatusNone,
		Assets: map[model.AssetKind]*model.AssetRecord{
			model.AssetKindCode: {
				Kind:       model.AssetStoredObject,
				StorageKey: "temp/code/app.tar.gz",
				FileName:   "app.tar.gz",
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func addProjectRow(t *testing.T, rows *sqlmock.Rows, p *model.Project) {
	t.Helper()
	assetsB, err := json.Marshal(p.Assets)
	require.NoError(t, err)
	imagesB, err := json.Marshal(p.Images)
	require.NoError(t, err)
	notesB, err := json.Marshal(p.ModerationNotes)
	require.NoError(t, err)

	var iconB, draftB []byte
	if p.Icon != nil {
		iconB, err = json.Marshal(p.Icon)
		require.NoError(t, err)
	}
	if p.Draft != nil {
		draftB, err = json.Marshal(p.Draft)
		require.NoError(t, err)
	}

	var publishedAt any
	if p.PublishedAt != nil {
		publishedAt = *p.PublishedAt
	}

	rows.AddRow(
		p.ID, p.OrgID, p.AuthorID, p.Name, p.ShortDesc, p.LongDesc,
		string(p.Status), string(p.DraftStatus), assetsB, iconB, imagesB, draftB,
		notesB, publishedAt, p.CreatedAt, p.UpdatedAt,
	)
}

func TestProjectPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewProjectPostgres(db)
	ctx := context.Background()

	p := sampleProject()
	rows := sqlmock.NewRows(projectCols)
	addProjectRow(t, rows, p)

	mock.ExpectQuery("INSERT INTO projects").
		WillReturnRows(rows)

	stored, err := repo.Create(ctx, p)

	assert.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, p.ID, stored.ID)
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.Equal(t, "temp/code/app.tar.gz", stored.Assets[model.AssetKindCode].StorageKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewProjectPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		p := sampleProject()
		rows := sqlmock.NewRows(projectCols)
		addProjectRow(t, rows, p)

		mock.ExpectQuery("SELECT (.+) FROM projects WHERE id = ?").
			WithArgs("proj-1").
			WillReturnRows(rows)

		got, err := repo.FindByID(ctx, "proj-1")

		assert.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "proj-1", got.ID)
		assert.Nil(t, got.Draft)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM projects WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, got)
	})
}

func TestProjectPostgres_Update(t *testing.T) {
	ctx := context.Background()
	expect := repository.Expect{Status: model.StatusPending, DraftStatus: model.DraftStatusNone}

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewProjectPostgres(db)

		p := sampleProject()
		p.Status = model.StatusPublished
		rows := sqlmock.NewRows(projectCols)
		addProjectRow(t, rows, p)

		mock.ExpectQuery("UPDATE projects SET").
			WillReturnRows(rows)

		stored, err := repo.Update(ctx, p, expect)

		assert.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, model.StatusPublished, stored.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent transition loses with conflict", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewProjectPostgres(db)

		mock.ExpectQuery("UPDATE projects SET").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("proj-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err = repo.Update(ctx, sampleProject(), expect)

		assert.ErrorIs(t, err, repository.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row gone maps to no rows", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewProjectPostgres(db)

		mock.ExpectQuery("UPDATE projects SET").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("proj-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err = repo.Update(ctx, sampleProject(), expect)

		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestProjectPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewProjectPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM projects").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows(projectCols)
	addProjectRow(t, rows, sampleProject())

	mock.ExpectQuery("SELECT (.+) FROM projects ORDER BY").
		WithArgs(10, 0).
		WillReturnRows(rows)

	res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
}

func TestProjectPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewProjectPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM projects WHERE id = ?").
		WithArgs("proj-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(ctx, "proj-1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
