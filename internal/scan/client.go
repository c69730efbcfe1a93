package scan

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package scan talks to the external malware-scanning service and enforces
// the client-side protocol discipline it requires: a minimum delay between
// requests, a daily request ceiling, and content-hash deduplication.

// ErrHashNotFound is returned by Lookup when the service has never analyzed
// content with the given hash.
var ErrHashNotFound = errors.New("no analysis for hash")

// ReportStatus is the state of an analysis on the scanning service.
type ReportStatus string

const (
	ReportQueued     ReportStatus = "queued"
	ReportInProgress ReportStatus = "in-progress"
	ReportCompleted  ReportStatus = "completed"
)

// EngineResult is one antivirus engine's opinion inside a report.
type EngineResult struct {
	Category string `json:"category"`
	Result   string `json:"result"`
}

// Report is the raw analysis report returned by the scanning service.
type Report struct {
	ScanID      string                  `json:"scan_id"`
	SHA256      string                  `json:"sha256"`
	Status      ReportStatus            `json:"status"`
	Results     map[string]EngineResult `json:"results"`
	CompletedAt time.Time               `json:"completed_at"`
}

// Flagged reports whether the engine considers the content harmful.
func (r EngineResult) Flagged() bool {
	return r.Category == "malicious" || r.Category == "suspicious"
}

// Client is the thin protocol wrapper over the scanning service. It
// encapsulates HTTP-level retry only; quota and polling discipline live in
// the Orchestrator.
type Client interface {
	// Lookup returns the report for previously analyzed content, or
	// ErrHashNotFound if the service has never seen it.
	Lookup(ctx context.Context, sha256 string) (*Report, error)
	// Submit sends content for analysis and returns a scan identifier.
	Submit(ctx context.Context, r io.Reader, fileName string) (string, error)
	// Report fetches the analysis report for a scan identifier. The report
	// may still be queued or in progress.
	Report(ctx context.Context, scanID string) (*Report, error)
}
