package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notification kinds emitted on lifecycle transitions.
const (
	KindProjectSubmitted     = "project_submitted"
	KindProjectPublished     = "project_published"
	KindProjectRejected      = "project_rejected"
	KindChangesRequested     = "changes_requested"
	KindDraftSubmitted       = "draft_submitted"
	KindDraftApproved        = "draft_approved"
	KindDraftRejected        = "draft_rejected"
	KindAssetNeedsManualScan = "asset_needs_manual_scan"
)

// Notifier dispatches user notifications fire-and-forget: implementations
// must never block or fail the calling transition.
type Notifier interface {
	Notify(ctx context.Context, userID, kind string, payload map[string]any)
}

// logNotifier emits notifications to the structured log. The real dispatch
// channel (mail, webhooks) lives outside this service; the log line is the
// handoff point.
type logNotifier struct {
	log *zap.Logger
}

// NewLogNotifier creates a Notifier that writes notification events to log.
func NewLogNotifier(log *zap.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) Notify(_ context.Context, userID, kind string, payload map[string]any) {
	n.log.Info("notification dispatched",
		zap.String("user_id", userID),
		zap.String("kind", kind),
		zap.Any("payload", payload),
	)
}
