package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/CalTopSoft/backend-devhub/internal/model"
	"github.com/CalTopSoft/backend-devhub/internal/repository"
)

// ProjectPostgres is a PostgreSQL implementation of repository.ProjectRepository.
// It uses database/sql with parameterized queries and contains no business logic.
// Asset records, the draft shadow, and moderation notes are stored as JSONB.
type ProjectPostgres struct {
	db *sql.DB
}

// NewProjectPostgres creates a new ProjectPostgres repository.
func NewProjectPostgres(db *sql.DB) *ProjectPostgres {
	return &ProjectPostgres{db: db}
}

var _ repository.ProjectRepository = (*ProjectPostgres)(nil)

const projectColumns = `
	id, org_id, author_id, name, short_desc, long_desc,
	status, draft_status, assets, icon, images, draft,
	moderation_notes, published_at, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func marshalNullable(v any, empty bool) ([]byte, error) {
	if empty {
		return nil, nil
	}
	return json.Marshal(v)
}

func projectArgs(p *model.Project) ([]any, error) {
	assetsB, err := json.Marshal(p.Assets)
	if err != nil {
		return nil, fmt.Errorf("encode assets: %w", err)
	}
	iconB, err := marshalNullable(p.Icon, p.Icon == nil)
	if err != nil {
		return nil, fmt.Errorf("encode icon: %w", err)
	}
	imagesB, err := json.Marshal(p.Images)
	if err != nil {
		return nil, fmt.Errorf("encode images: %w", err)
	}
	draftB, err := marshalNullable(p.Draft, p.Draft == nil)
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}
	notesB, err := json.Marshal(p.ModerationNotes)
	if err != nil {
		return nil, fmt.Errorf("encode moderation notes: %w", err)
	}

	var publishedAt sql.NullTime
	if p.PublishedAt != nil {
		publishedAt = sql.NullTime{Time: *p.PublishedAt, Valid: true}
	}

	return []any{
		p.ID, p.OrgID, p.AuthorID, p.Name, p.ShortDesc, p.LongDesc,
		string(p.Status), string(p.DraftStatus), assetsB, iconB, imagesB, draftB,
		notesB, publishedAt, p.CreatedAt, p.UpdatedAt,
	}, nil
}

func scanProject(row rowScanner) (*model.Project, error) {
	var (
		p           model.Project
		status      string
		draftStatus string
		assetsB     []byte
		iconB       []byte
		imagesB     []byte
		draftB      []byte
		notesB      []byte
		publishedAt sql.NullTime
	)
	if err := row.Scan(
		&p.ID, &p.OrgID, &p.AuthorID, &p.Name, &p.ShortDesc, &p.LongDesc,
		&status, &draftStatus, &assetsB, &iconB, &imagesB, &draftB,
		&notesB, &publishedAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = model.Status(status)
	p.DraftStatus = model.DraftStatus(draftStatus)

	if len(assetsB) > 0 {
		if err := json.Unmarshal(assetsB, &p.Assets); err != nil {
			return nil, fmt.Errorf("decode assets: %w", err)
		}
	}
	if len(iconB) > 0 {
		if err := json.Unmarshal(iconB, &p.Icon); err != nil {
			return nil, fmt.Errorf("decode icon: %w", err)
		}
	}
	if len(imagesB) > 0 {
		if err := json.Unmarshal(imagesB, &p.Images); err != nil {
			return nil, fmt.Errorf("decode images: %w", err)
		}
	}
	if len(draftB) > 0 {
		if err := json.Unmarshal(draftB, &p.Draft); err != nil {
			return nil, fmt.Errorf("decode draft: %w", err)
		}
	}
	if len(notesB) > 0 {
		if err := json.Unmarshal(notesB, &p.ModerationNotes); err != nil {
			return nil, fmt.Errorf("decode moderation notes: %w", err)
		}
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}
	return &p, nil
}

// Create inserts a new project row and returns the stored record.
func (r *ProjectPostgres) Create(ctx context.Context, p *model.Project) (*model.Project, error) {
	q := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + projectColumns
	args, err := projectArgs(p)
	if err != nil {
		return nil, err
	}
	return scanProject(r.db.QueryRowContext(ctx, q, args...))
}

// FindByID fetches a single project by its ID.
func (r *ProjectPostgres) FindByID(ctx context.Context, id string) (*model.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	return scanProject(r.db.QueryRowContext(ctx, q, id))
}

// List returns projects using LIMIT/OFFSET pagination and a total count.
func (r *ProjectPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Project], error) {
	// Count total rows
	const qCount = `SELECT COUNT(*) FROM projects`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	q := `
		SELECT ` + projectColumns + `
		FROM projects
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, q, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Project]{
		Items: items,
		Total: total,
	}, nil
}

// Update writes the project only while its status fields still match the
// expectation the caller validated against. Zero rows means either a
// concurrent transition won (ErrConflict) or the row is gone
// (sql.ErrNoRows); a follow-up existence check tells the two apart.
func (r *ProjectPostgres) Update(ctx context.Context, p *model.Project, expect repository.Expect) (*model.Project, error) {
	p.UpdatedAt = time.Now().UTC()
	q := `
		UPDATE projects SET
			org_id = $2, author_id = $3, name = $4, short_desc = $5, long_desc = $6,
			status = $7, draft_status = $8, assets = $9, icon = $10, images = $11,
			draft = $12, moderation_notes = $13, published_at = $14, created_at = $15,
			updated_at = $16
		WHERE id = $1 AND status = $17 AND draft_status = $18
		RETURNING ` + projectColumns
	args, err := projectArgs(p)
	if err != nil {
		return nil, err
	}
	args = append(args, string(expect.Status), string(expect.DraftStatus))

	stored, err := scanProject(r.db.QueryRowContext(ctx, q, args...))
	if err == nil {
		return stored, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	var exists bool
	if chkErr := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, p.ID).Scan(&exists); chkErr != nil {
		return nil, chkErr
	}
	if exists {
		return nil, repository.ErrConflict
	}
	return nil, sql.ErrNoRows
}

// Delete removes a project by ID. It does not return an error if the row does not exist.
func (r *ProjectPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM projects WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
