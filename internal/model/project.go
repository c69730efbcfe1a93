package model

import "time"

// Status is the moderation state of a project.
type Status string

const (
	StatusPending           Status = "pending"
	StatusNeedsAuthorReview Status = "needs_author_review"
	StatusPublished         Status = "published"
	StatusRejected          Status = "rejected"
)

// DraftStatus is the state of a proposed edit against a published project.
// It is meaningful only while Status is StatusPublished.
type DraftStatus string

const (
	DraftStatusNone     DraftStatus = "none"
	DraftStatusPending  DraftStatus = "pending"
	DraftStatusRejected DraftStatus = "rejected"
)

// DraftShadow holds the proposed replacements for a published project's
// mutable fields. Nil pointers and absent asset kinds mean "keep the live
// value"; only fields explicitly present are proposed changes.
type DraftShadow struct {
	Name      *string `json:"name,omitempty"`
	ShortDesc *string `json:"short_desc,omitempty"`
	LongDesc  *string `json:"long_desc,omitempty"`

	Assets map[AssetKind]*AssetRecord `json:"assets,omitempty"`
	Icon   *AssetRecord               `json:"icon,omitempty"`
	// Images replaces the whole live image set when non-nil; an empty
	// non-nil slice removes every image. No omitempty: the distinction
	// must survive persistence.
	Images []AssetRecord `json:"images"`

	SubmittedAt time.Time  `json:"submitted_at"`
	Feedback    string     `json:"feedback,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
}

// Empty reports whether the shadow proposes no change at all.
func (d *DraftShadow) Empty() bool {
	if d == nil {
		return true
	}
	return d.Name == nil && d.ShortDesc == nil && d.LongDesc == nil &&
		len(d.Assets) == 0 && d.Icon == nil && d.Images == nil
}

// Project is the central entity: a software project published by an
// organization, moderated before becoming public.
type Project struct {
	ID       string `json:"id"`
	OrgID    string `json:"org_id"`
	AuthorID string `json:"author_id"`

	Name      string `json:"name"`
	ShortDesc string `json:"short_desc"`
	LongDesc  string `json:"long_desc"`

	Status      Status      `json:"status"`
	DraftStatus DraftStatus `json:"draft_status"`

	// Assets maps asset kind (app/code/doc) to the live record, if any.
	Assets map[AssetKind]*AssetRecord `json:"assets"`
	Icon   *AssetRecord               `json:"icon,omitempty"`
	Images []AssetRecord              `json:"images,omitempty"`

	// Draft is the shadow copy of mutable fields while an edit is pending
	// or rejected; nil when DraftStatus is DraftStatusNone.
	Draft *DraftShadow `json:"draft,omitempty"`

	ModerationNotes []string `json:"moderation_notes,omitempty"`

	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// StoredAssets returns every live record that references an object in
// storage, including icon and images.
func (p *Project) StoredAssets() []*AssetRecord {
	var out []*AssetRecord
	for _, k := range []AssetKind{AssetKindApp, AssetKindCode, AssetKindDoc} {
		if a := p.Assets[k]; a.Stored() {
			out = append(out, a)
		}
	}
	if p.Icon.Stored() {
		out = append(out, p.Icon)
	}
	for i := range p.Images {
		if p.Images[i].Stored() {
			out = append(out, &p.Images[i])
		}
	}
	return out
}
