package model

// AssetKind identifies the slot an asset occupies on a project.
type AssetKind string

const (
	AssetKindApp   AssetKind = "app"
	AssetKindCode  AssetKind = "code"
	AssetKindDoc   AssetKind = "doc"
	AssetKindIcon  AssetKind = "icon"
	AssetKindImage AssetKind = "image"
)

// Scannable reports whether assets of this kind must pass a malware scan
// before they are trusted. App assets are external links and are never
// scanned or stored; images are not executable content.
func (k AssetKind) Scannable() bool {
	return k == AssetKindCode || k == AssetKindDoc
}

// AssetRecordKind distinguishes stored binaries from plain links.
type AssetRecordKind string

const (
	AssetExternalLink AssetRecordKind = "external_link"
	AssetStoredObject AssetRecordKind = "stored_object"
)

// AssetRecord is one stored or linked binary owned by a project.
// StorageKey is empty for external links.
type AssetRecord struct {
	Kind        AssetRecordKind `json:"kind"`
	StorageKey  string          `json:"storage_key,omitempty"`
	DisplayURL  string          `json:"display_url,omitempty"`
	FileName    string          `json:"file_name,omitempty"`
	Size        int64           `json:"size,omitempty"`
	ContentType string          `json:"content_type,omitempty"`

	// Scan holds the verdict for scannable stored objects. A nil Scan on a
	// scannable asset means it was accepted unscanned (fail-open) and
	// ManualReview is set.
	Scan         *ScanVerdict `json:"scan,omitempty"`
	ManualReview bool         `json:"manual_review,omitempty"`
}

// Stored reports whether the record references an object in storage.
func (a *AssetRecord) Stored() bool {
	return a != nil && a.Kind == AssetStoredObject && a.StorageKey != ""
}

// Trusted reports whether a scannable asset may be served: its verdict is
// present and safe, or was administratively overridden.
func (a *AssetRecord) Trusted() bool {
	if a == nil || a.Scan == nil {
		return false
	}
	return a.Scan.Safe
}
