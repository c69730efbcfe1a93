package model

import "time"

// OverrideScanID marks a verdict produced by an administrative override
// rather than by the scanning service.
const OverrideScanID = "manual-override"

// ScanVerdict is the normalized result of a malware scan, keyed by content
// hash for caching. Immutable once produced; an administrative override
// supersedes it with a synthetic verdict carrying OverrideScanID and a
// free-text justification in Note.
type ScanVerdict struct {
	Safe      bool      `json:"safe"`
	ScanID    string    `json:"scan_id"`
	SHA256    string    `json:"sha256"`
	ScannedAt time.Time `json:"scanned_at"`
	Threats   []string  `json:"threats,omitempty"`
	Note      string    `json:"note,omitempty"`
}

// Overridden reports whether the verdict was set administratively.
func (v *ScanVerdict) Overridden() bool {
	return v != nil && v.ScanID == OverrideScanID
}

// NewOverrideVerdict builds the synthetic safe verdict used when a moderator
// accepts an asset despite a missing or failed scan.
func NewOverrideVerdict(sha256, justification string, now time.Time) *ScanVerdict {
	return &ScanVerdict{
		Safe:      true,
		ScanID:    OverrideScanID,
		SHA256:    sha256,
		ScannedAt: now,
		Note:      justification,
	}
}
