package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CalTopSoft/backend-devhub/internal/assets"
	"github.com/CalTopSoft/backend-devhub/internal/model"
	"github.com/CalTopSoft/backend-devhub/internal/notify"
	"github.com/CalTopSoft/backend-devhub/internal/repository"
	"github.com/CalTopSoft/backend-devhub/internal/scan"
	"github.com/CalTopSoft/backend-devhub/internal/storage"
)

var (
	ErrIDRequired   = errors.New("id is required")
	ErrValidation   = errors.New("invalid input")
	ErrNotFound     = errors.New("project not found")
	ErrInvalidState = errors.New("operation not allowed in current state")
	ErrNoChanges    = errors.New("draft contains no changes")
)

// ScanRejectedError means the malware scan completed and flagged the upload.
// Unlike quota or timeout conditions this is terminal: the file is refused
// and nothing is stored for it.
type ScanRejectedError struct {
	Kind    model.AssetKind
	Threats []string
}

func (e *ScanRejectedError) Error() string {
	return fmt.Sprintf("%s asset rejected by malware scan: %s", e.Kind, strings.Join(e.Threats, ", "))
}

// Scanner produces a verdict for an uploaded file's content.
type Scanner interface {
	Scan(ctx context.Context, data []byte, fileName string) (*model.ScanVerdict, error)
}

// AssetManager moves project binaries between lifecycle placements.
type AssetManager interface {
	Promote(ctx context.Context, projectID string, items []assets.Item) ([]assets.Move, error)
	Rollback(ctx context.Context, moves []assets.Move)
	Discard(ctx context.Context, records []*model.AssetRecord)
	Replace(ctx context.Context, projectID string, kind model.AssetKind, oldAsset, newAsset *model.AssetRecord) error
}

// FileUpload carries one uploaded file's content and client metadata.
type FileUpload struct {
	Data        []byte
	FileName    string
	ContentType string
}

// CreateProjectInput is everything a new submission carries.
type CreateProjectInput struct {
	OrgID     string
	AuthorID  string
	Name      string
	ShortDesc string
	LongDesc  string

	AppURL string
	Code   *FileUpload
	Doc    *FileUpload
	Icon   *FileUpload
	Images []FileUpload
}

// DraftChanges describes an edit proposed against a published project.
// Nil pointers mean "keep the live value". Images are all-or-nothing:
// ReplaceImages with an empty list removes every image.
type DraftChanges struct {
	Name      *string
	ShortDesc *string
	LongDesc  *string

	AppURL        *string
	Code          *FileUpload
	Doc           *FileUpload
	Icon          *FileUpload
	ReplaceImages bool
	Images        []FileUpload
}

type ProjectListResult struct {
	Items []model.Project `json:"data"`
	Total int             `json:"total"`
}

type ProjectService interface {
	Create(ctx context.Context, in CreateProjectInput) (*model.Project, error)
	Get(ctx context.Context, id string) (*model.Project, error)
	List(ctx context.Context, pq repository.PageQuery) (*ProjectListResult, error)

	Submit(ctx context.Context, id string) (*model.Project, error)
	ModeratorApprove(ctx context.Context, id string) (*model.Project, error)
	ModeratorReject(ctx context.Context, id string, reasons []string) (*model.Project, error)
	RequestChanges(ctx context.Context, id string, notes []string) (*model.Project, error)

	AuthorEditPublished(ctx context.Context, id string, changes DraftChanges) (*model.Project, error)
	ModeratorApproveDraft(ctx context.Context, id string) (*model.Project, error)
	ModeratorRejectDraft(ctx context.Context, id string, feedback string) (*model.Project, error)
	ClearRejectedDraft(ctx context.Context, id string) (*model.Project, error)

	OverrideScanVerdict(ctx context.Context, id string, kind model.AssetKind, justification string) (*model.Project, error)
}

type projectService struct {
	repo     repository.ProjectRepository
	store    storage.Storage
	am       AssetManager
	scanner  Scanner
	notifier notify.Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewProjectService(repo repository.ProjectRepository, store storage.Storage, am AssetManager, scanner Scanner, notifier notify.Notifier, log *zap.Logger) ProjectService {
	return &projectService{
		repo:     repo,
		store:    store,
		am:       am,
		scanner:  scanner,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// stageUpload scans the file when its kind requires it, then writes it to
// the key produced by keyFor. Quota exhaustion and scan timeouts fail open:
// the file is accepted unscanned and flagged for manual review. An unsafe
// verdict is terminal and nothing is stored.
func (s *projectService) stageUpload(ctx context.Context, kind model.AssetKind, up *FileUpload, keyFor func(fileName string) string) (*model.AssetRecord, error) {
	if up == nil || len(up.Data) == 0 {
		return nil, fmt.Errorf("%w: empty %s upload", ErrValidation, kind)
	}

	rec := &model.AssetRecord{
		Kind:        model.AssetStoredObject,
		FileName:    uuid.New().String() + filepath.Ext(up.FileName),
		ContentType: up.ContentType,
	}

	if kind.Scannable() {
		verdict, err := s.scanner.Scan(ctx, up.Data, up.FileName)
		switch {
		case err == nil:
			if !verdict.Safe {
				return nil, &ScanRejectedError{Kind: kind, Threats: verdict.Threats}
			}
			rec.Scan = verdict
		case errors.Is(err, scan.ErrQuotaExceeded), errors.Is(err, scan.ErrScanTimeout):
			s.log.Warn("asset accepted unscanned, flagged for manual review",
				zap.String("kind", string(kind)),
				zap.String("file_name", up.FileName),
				zap.Error(err))
			rec.ManualReview = true
		default:
			return nil, fmt.Errorf("scan %s asset: %w", kind, err)
		}
	}

	info, err := s.store.Put(ctx, keyFor(rec.FileName), bytes.NewReader(up.Data), storage.PutObjectOptions{
		Size:        int64(len(up.Data)),
		ContentType: up.ContentType,
		Metadata:    map[string]string{"original-filename": up.FileName},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}
	rec.StorageKey = info.Key
	rec.Size = info.Size
	return rec, nil
}

func (s *projectService) Create(ctx context.Context, in CreateProjectInput) (*model.Project, error) {
	if in.OrgID == "" || in.AuthorID == "" || in.Name == "" {
		return nil, fmt.Errorf("%w: org, author and name are required", ErrValidation)
	}

	now := s.now().UTC()
	p := &model.Project{
		ID:          uuid.New().String(),
		OrgID:       in.OrgID,
		AuthorID:    in.AuthorID,
		Name:        in.Name,
		ShortDesc:   in.ShortDesc,
		LongDesc:    in.LongDesc,
		Status:      model.StatusPending,
		DraftStatus: model.DraftStatusNone,
		Assets:      map[model.AssetKind]*model.AssetRecord{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if in.AppURL != "" {
		p.Assets[model.AssetKindApp] = &model.AssetRecord{
			Kind:       model.AssetExternalLink,
			DisplayURL: in.AppURL,
		}
	}

	// Any failure past the first stored upload must not leave orphans.
	var staged []*model.AssetRecord
	abort := func() { s.am.Discard(ctx, staged) }

	stage := func(kind model.AssetKind, up *FileUpload) (*model.AssetRecord, error) {
		rec, err := s.stageUpload(ctx, kind, up, func(name string) string {
			return storage.StagingKey(string(kind), name)
		})
		if err != nil {
			abort()
			return nil, err
		}
		staged = append(staged, rec)
		return rec, nil
	}

	for _, slot := range []struct {
		kind model.AssetKind
		up   *FileUpload
	}{
		{model.AssetKindCode, in.Code},
		{model.AssetKindDoc, in.Doc},
	} {
		if slot.up == nil {
			continue
		}
		rec, err := stage(slot.kind, slot.up)
		if err != nil {
			return nil, err
		}
		p.Assets[slot.kind] = rec
	}
	if in.Icon != nil {
		rec, err := stage(model.AssetKindIcon, in.Icon)
		if err != nil {
			return nil, err
		}
		p.Icon = rec
	}
	for i := range in.Images {
		rec, err := stage(model.AssetKindImage, &in.Images[i])
		if err != nil {
			return nil, err
		}
		p.Images = append(p.Images, *rec)
	}

	stored, err := s.repo.Create(ctx, p)
	if err != nil {
		abort()
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.notifier.Notify(ctx, p.AuthorID, notify.KindProjectSubmitted, map[string]any{"project_id": p.ID})
	s.notifyManualReview(ctx, stored, staged)
	return stored, nil
}

// notifyManualReview raises a flag for every asset accepted without a scan
// verdict so a moderator can pick it up.
func (s *projectService) notifyManualReview(ctx context.Context, p *model.Project, recs []*model.AssetRecord) {
	for _, rec := range recs {
		if rec.ManualReview {
			s.notifier.Notify(ctx, p.AuthorID, notify.KindAssetNeedsManualScan, map[string]any{
				"project_id": p.ID,
				"file_name":  rec.FileName,
			})
		}
	}
}

func (s *projectService) Get(ctx context.Context, id string) (*model.Project, error) {
	return s.find(ctx, id)
}

func (s *projectService) List(ctx context.Context, pq repository.PageQuery) (*ProjectListResult, error) {
	res, err := s.repo.List(ctx, pq)
	if err != nil {
		return nil, fmt.Errorf("db fetch failed: %w", err)
	}
	return &ProjectListResult{Items: res.Items, Total: res.Total}, nil
}

// Submit returns a rejected or review-requested project to the moderation
// queue. Fresh submissions enter pending through Create.
func (s *projectService) Submit(ctx context.Context, id string) (*model.Project, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != model.StatusRejected && p.Status != model.StatusNeedsAuthorReview {
		return nil, fmt.Errorf("%w: submit requires a rejected or review-requested project, have %s", ErrInvalidState, p.Status)
	}

	expect := repository.Expect{Status: p.Status, DraftStatus: p.DraftStatus}
	p.Status = model.StatusPending
	p.ModerationNotes = nil

	stored, err := s.update(ctx, p, expect)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, p.AuthorID, notify.KindProjectSubmitted, map[string]any{"project_id": p.ID})
	return stored, nil
}

// ModeratorApprove publishes a pending project. Its staged binaries are
// promoted to permanent paths first; if the state transition then loses a
// concurrent race, the promotion is rolled back so storage matches the
// persisted record.
func (s *projectService) ModeratorApprove(ctx context.Context, id string) (*model.Project, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != model.StatusPending {
		return nil, fmt.Errorf("%w: approve requires a pending project, have %s", ErrInvalidState, p.Status)
	}

	moves, err := s.am.Promote(ctx, p.ID, liveItems(p))
	if err != nil {
		return nil, err
	}

	expect := repository.Expect{Status: model.StatusPending, DraftStatus: p.DraftStatus}
	now := s.now().UTC()
	p.Status = model.StatusPublished
	p.PublishedAt = &now
	p.ModerationNotes = nil

	stored, err := s.update(ctx, p, expect)
	if err != nil {
		s.am.Rollback(ctx, moves)
		return nil, err
	}
	s.notifier.Notify(ctx, p.AuthorID, notify.KindProjectPublished, map[string]any{"project_id": p.ID})
	return stored, nil
}

// ModeratorReject declines a pending project. Staged files stay where they
// are so a later resubmission does not force a re-upload.
func (s *projectService) ModeratorReject(ctx context.Context, id string, reasons []string) (*model.Project, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != model.StatusPending {
		return nil, fmt.Errorf("%w: reject requires a pending project, have %s", ErrInvalidState, p.Status)
	}

	expect := repository.Expect{Status: model.StatusPending, DraftStatus: p.DraftStatus}
	p.Status = model.StatusRejected
	p.ModerationNotes = reasons

	stored, err := s.update(ctx, p, expect)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, p.AuthorID, notify.KindProjectRejected, map[string]any{
		"project_id": p.ID,
		"reasons":    reasons,
	})
	return stored, nil
}

// RequestChanges sends a pending project back to its author with notes,
// without the finality of a rejection.
func (s *projectService) RequestChanges(ctx context.Context, id string, notes []string) (*model.Project, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != model.StatusPending {
		return nil, fmt.Errorf("%w: request-changes requires a pending project, have %s", ErrInvalidState, p.Status)
	}

	expect := repository.Expect{Status: model.StatusPending, DraftStatus: p.DraftStatus}
	p.Status = model.StatusNeedsAuthorReview
	p.ModerationNotes = notes

	stored, err := s.update(ctx, p, expect)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, p.AuthorID, notify.KindChangesRequested, map[string]any{
		"project_id": p.ID,
		"notes":      notes,
	})
	return stored, nil
}

// AuthorEditPublished records an edit against a published project as a
// shadow draft. The live record stays untouched and publicly served until a
// moderator approves the draft. Scalar fields equal to the live value are
// dropped; a draft that proposes nothing is refused.
func (s *projectService) AuthorEditPublished(ctx context.Context, id string, changes DraftChanges) (*model.Project, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != model.StatusPublished {
		return nil, fmt.Errorf("%w: edits require a published project, have %s", ErrInvalidState, p.Status)
	}
	if p.DraftStatus != model.DraftStatusNone {
		return nil, fmt.Errorf("%w: a draft is already in flight", ErrInvalidState)
	}

	shadow := &model.DraftShadow{SubmittedAt: s.now().UTC()}
	if changes.Name != nil && *changes.Name != p.Name {
		shadow.Name = changes.Name
	}
	if changes.ShortDesc != nil && *changes.ShortDesc != p.ShortDesc {
		shadow.ShortDesc = changes.ShortDesc
	}
	if changes.LongDesc != nil && *changes.LongDesc != p.LongDesc {
		shadow.LongDesc = changes.LongDesc
	}
	if changes.AppURL != nil {
		cur := ""
		if a := p.Assets[model.AssetKindApp]; a != nil {
			cur = a.DisplayURL
		}
		if *changes.AppURL != cur {
			if shadow.Assets == nil {
				shadow.Assets = map[model.AssetKind]*model.AssetRecord{}
			}
			shadow.Assets[model.AssetKindApp] = &model.AssetRecord{
				Kind:       model.AssetExternalLink,
				DisplayURL: *changes.AppURL,
			}
		}
	}

	var staged []*model.AssetRecord
	abort := func() { s.am.Discard(ctx, staged) }

	stage := func(kind model.AssetKind, up *FileUpload) (*model.AssetRecord, error) {
		rec, err := s.stageUpload(ctx, kind, up, func(name string) string {
			return storage.DraftStagingKey(p.ID, string(kind), name)
		})
		if err != nil {
			abort()
			return nil, err
		}
		staged = append(staged, rec)
		return rec, nil
	}

	for _, slot := range []struct {
		kind model.AssetKind
		up   *FileUpload
	}{
		{model.AssetKindCode, changes.Code},
		{model.AssetKindDoc, changes.Doc},
	} {
		if slot.up == nil {
			continue
		}
		rec, err := stage(slot.kind, slot.up)
		if err != nil {
			return nil, err
		}
		if shadow.Assets == nil {
			shadow.Assets = map[model.AssetKind]*model.AssetRecord{}
		}
		shadow.Assets[slot.kind] = rec
	}
	if changes.Icon != nil {
		rec, err := stage(model.AssetKindIcon, changes.Icon)
		if err != nil {
			return nil, err
		}
		shadow.Icon = rec
	}
	if changes.ReplaceImages {
		shadow.Images = []model.AssetRecord{}
		for i := range changes.Images {
			rec, err := stage(model.AssetKindImage, &changes.Images[i])
			if err != nil {
				return nil, err
			}
			shadow.Images = append(shadow.Images, *rec)
		}
	}

	if shadow.Empty() {
		return nil, ErrNoChanges
	}

	expect := repository.Expect{Status: model.StatusPublished, DraftStatus: model.DraftStatusNone}
	p.Draft = shadow
	p.DraftStatus = model.DraftStatusPending

	stored, err := s.update(ctx, p, expect)
	if err != nil {
		abort()
		return nil, err
	}
	s.notifier.Notify(ctx, p.AuthorID, notify.KindDraftSubmitted, map[string]any{"project_id": p.ID})
	s.notifyManualReview(ctx, stored, staged)
	return stored, nil
}

// ModeratorApproveDraft folds a pending draft into the live record. Draft
// binaries are promoted first, the merged record is committed, and only then
// are the superseded live objects deleted. A crash between commit and
// cleanup can leak an orphaned object but can never leave the published
// record pointing at a missing one.
func (s *projectService) ModeratorApproveDraft(ctx context.Context, id string) (*model.Project, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != model.StatusPublished || p.DraftStatus != model.DraftStatusPending {
		return nil, fmt.Errorf("%w: approve-draft requires a published project with a pending draft", ErrInvalidState)
	}
	shadow := p.Draft
	if shadow == nil {
		return nil, fmt.Errorf("%w: draft record is missing", ErrInvalidState)
	}

	var items []assets.Item
	var superseded []*model.AssetRecord
	for kind, rec := range shadow.Assets {
		items = append(items, assets.Item{Kind: kind, Asset: rec})
		if old := p.Assets[kind]; old.Stored() {
			superseded = append(superseded, old)
		}
	}
	if shadow.Icon != nil {
		items = append(items, assets.Item{Kind: model.AssetKindIcon, Asset: shadow.Icon})
		if p.Icon.Stored() {
			superseded = append(superseded, p.Icon)
		}
	}
	if shadow.Images != nil {
		for i := range shadow.Images {
			items = append(items, assets.Item{Kind: model.AssetKindImage, Asset: &shadow.Images[i]})
		}
		for i := range p.Images {
			if p.Images[i].Stored() {
				superseded = append(superseded, &p.Images[i])
			}
		}
	}

	moves, err := s.am.Promote(ctx, p.ID, items)
	if err != nil {
		return nil, err
	}

	if shadow.Name != nil {
		p.Name = *shadow.Name
	}
	if shadow.ShortDesc != nil {
		p.ShortDesc = *shadow.ShortDesc
	}
	if shadow.LongDesc != nil {
		p.LongDesc = *shadow.LongDesc
	}
	if len(shadow.Assets) > 0 && p.Assets == nil {
		p.Assets = map[model.AssetKind]*model.AssetRecord{}
	}
	for kind, rec := range shadow.Assets {
		p.Assets[kind] = rec
	}
	if shadow.Icon != nil {
		p.Icon = shadow.Icon
	}
	if shadow.Images != nil {
		p.Images = shadow.Images
	}

	expect := repository.Expect{Status: model.StatusPublished, DraftStatus: model.DraftStatusPending}
	p.Draft = nil
	p.DraftStatus = model.DraftStatusNone

	stored, err := s.update(ctx, p, expect)
	if err != nil {
		s.am.Rollback(ctx, moves)
		return nil, err
	}

	// Cleanup happens strictly after the commit; Discard never fails.
	s.am.Discard(ctx, superseded)
	s.notifier.Notify(ctx, p.AuthorID, notify.KindDraftApproved, map[string]any{"project_id": p.ID})
	return stored, nil
}

// ModeratorRejectDraft refuses a pending draft. The live record is untouched;
// files uploaded for the draft are deleted and the shadow keeps only the
// scalar proposals plus the moderator's feedback for the author to act on.
func (s *projectService) ModeratorRejectDraft(ctx context.Context, id string, feedback string) (*model.Project, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != model.StatusPublished || p.DraftStatus != model.DraftStatusPending {
		return nil, fmt.Errorf("%w: reject-draft requires a published project with a pending draft", ErrInvalidState)
	}
	shadow := p.Draft
	if shadow == nil {
		return nil, fmt.Errorf("%w: draft record is missing", ErrInvalidState)
	}

	var drop []*model.AssetRecord
	collect := func(rec *model.AssetRecord) {
		if rec.Stored() && storage.IsDraftStaging(rec.StorageKey) {
			drop = append(drop, rec)
		}
	}
	for _, rec := range shadow.Assets {
		collect(rec)
	}
	collect(shadow.Icon)
	for i := range shadow.Images {
		collect(&shadow.Images[i])
	}

	now := s.now().UTC()
	for kind, rec := range shadow.Assets {
		if rec.Stored() {
			delete(shadow.Assets, kind)
		}
	}
	if shadow.Icon.Stored() {
		shadow.Icon = nil
	}
	shadow.Images = nil
	shadow.Feedback = feedback
	shadow.ReviewedAt = &now

	expect := repository.Expect{Status: model.StatusPublished, DraftStatus: model.DraftStatusPending}
	p.DraftStatus = model.DraftStatusRejected

	stored, err := s.update(ctx, p, expect)
	if err != nil {
		return nil, err
	}

	s.am.Discard(ctx, drop)
	s.notifier.Notify(ctx, p.AuthorID, notify.KindDraftRejected, map[string]any{
		"project_id": p.ID,
		"feedback":   feedback,
	})
	return stored, nil
}

// ClearRejectedDraft drops a rejected draft so the author can start over.
func (s *projectService) ClearRejectedDraft(ctx context.Context, id string) (*model.Project, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.DraftStatus != model.DraftStatusRejected {
		return nil, fmt.Errorf("%w: no rejected draft to clear", ErrInvalidState)
	}

	expect := repository.Expect{Status: p.Status, DraftStatus: model.DraftStatusRejected}
	p.Draft = nil
	p.DraftStatus = model.DraftStatusNone

	return s.update(ctx, p, expect)
}

// OverrideScanVerdict lets a moderator accept an asset the scanner flagged
// for manual review. The override is recorded as a synthetic verdict so the
// audit trail shows who vouched and why.
func (s *projectService) OverrideScanVerdict(ctx context.Context, id string, kind model.AssetKind, justification string) (*model.Project, error) {
	if strings.TrimSpace(justification) == "" {
		return nil, fmt.Errorf("%w: override requires a justification", ErrValidation)
	}
	if !kind.Scannable() {
		return nil, fmt.Errorf("%w: %s assets carry no scan verdict", ErrValidation, kind)
	}

	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	rec := p.Assets[kind]
	if !rec.Stored() {
		return nil, fmt.Errorf("%w: project has no stored %s asset", ErrNotFound, kind)
	}

	sha := ""
	if rec.Scan != nil {
		sha = rec.Scan.SHA256
	}
	rec.Scan = model.NewOverrideVerdict(sha, justification, s.now().UTC())
	rec.ManualReview = false

	expect := repository.Expect{Status: p.Status, DraftStatus: p.DraftStatus}
	return s.update(ctx, p, expect)
}

// liveItems lists every live asset slot as a promotion candidate. Links and
// already-permanent objects are skipped downstream.
func liveItems(p *model.Project) []assets.Item {
	var items []assets.Item
	for _, kind := range []model.AssetKind{model.AssetKindApp, model.AssetKindCode, model.AssetKindDoc} {
		if a := p.Assets[kind]; a != nil {
			items = append(items, assets.Item{Kind: kind, Asset: a})
		}
	}
	if p.Icon != nil {
		items = append(items, assets.Item{Kind: model.AssetKindIcon, Asset: p.Icon})
	}
	for i := range p.Images {
		items = append(items, assets.Item{Kind: model.AssetKindImage, Asset: &p.Images[i]})
	}
	return items
}

func (s *projectService) find(ctx context.Context, id string) (*model.Project, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db fetch failed: %w", err)
	}
	return p, nil
}

func (s *projectService) update(ctx context.Context, p *model.Project, expect repository.Expect) (*model.Project, error) {
	p.UpdatedAt = s.now().UTC()
	stored, err := s.repo.Update(ctx, p, expect)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return stored, nil
}
