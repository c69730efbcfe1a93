package scan

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/CalTopSoft/backend-devhub/internal/config"
	"github.com/CalTopSoft/backend-devhub/internal/model"
)

var (
	// ErrQuotaExceeded means the daily request ceiling was reached. Callers
	// treat it as fail-open: accept the asset unscanned and flag it for
	// manual review.
	ErrQuotaExceeded = errors.New("daily scan quota exceeded")
	// ErrScanTimeout means polling exhausted its retries without a
	// definitive report. Also fail-open.
	ErrScanTimeout = errors.New("scan did not complete in time")
)

// ContentHash returns the hex-encoded SHA-256 of the buffer, the key under
// which verdicts are cached and deduplicated.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Orchestrator produces ScanVerdicts while respecting the scanning
// service's two quotas: a minimum inter-request delay and a daily request
// ceiling. Quota counters and the request limiter are process-wide; one
// Orchestrator instance serializes all scan traffic.
type Orchestrator struct {
	client  Client
	cache   VerdictCache
	log     *zap.Logger
	limiter *rate.Limiter
	loc     *time.Location
	now     func() time.Time

	pollMaxAttempts int
	pollInitial     time.Duration
	pollMax         time.Duration

	mu         sync.Mutex
	day        time.Time
	used       int
	dailyLimit int
}

// NewOrchestrator wires a scan client and verdict cache under the quota
// settings in cfg. cache may be nil, in which case dedup relies on the
// remote hash lookup alone.
func NewOrchestrator(client Client, cache VerdictCache, cfg config.ScanConfig, loc *time.Location, log *zap.Logger) *Orchestrator {
	if loc == nil {
		loc = time.UTC
	}
	minInterval := cfg.MinInterval
	if minInterval <= 0 {
		minInterval = 15 * time.Second
	}
	limit := cfg.DailyLimit
	if limit <= 0 {
		limit = 500
	}
	attempts := cfg.PollMaxAttempts
	if attempts <= 0 {
		attempts = 10
	}
	initial := cfg.PollInitialInterval
	if initial <= 0 {
		initial = minInterval
	}
	max := cfg.PollMaxInterval
	if max < initial {
		max = initial
	}
	return &Orchestrator{
		client:          client,
		cache:           cache,
		log:             log,
		limiter:         rate.NewLimiter(rate.Every(minInterval), 1),
		loc:             loc,
		now:             time.Now,
		pollMaxAttempts: attempts,
		pollInitial:     initial,
		pollMax:         max,
		dailyLimit:      limit,
	}
}

// Scan produces a verdict for the buffer. Identical content is served from
// the verdict cache or the service's hash lookup without a new submission.
func (o *Orchestrator) Scan(ctx context.Context, data []byte, fileName string) (*model.ScanVerdict, error) {
	hash := ContentHash(data)

	if o.cache != nil {
		v, err := o.cache.Get(ctx, hash)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			o.log.Warn("verdict cache lookup failed", zap.String("sha256", hash), zap.Error(err))
		}
	}

	// Remote hash lookup costs a call but no daily quota.
	if err := o.waitTurn(ctx); err != nil {
		return nil, err
	}
	rep, err := o.client.Lookup(ctx, hash)
	switch {
	case err == nil && rep.Status == ReportCompleted:
		v := o.verdictFromReport(rep, hash)
		o.cachePut(ctx, hash, v)
		return v, nil
	case err == nil:
		// Someone already submitted this content; join the existing analysis.
		return o.awaitReport(ctx, hash, rep.ScanID)
	case errors.Is(err, ErrHashNotFound):
		// Never scanned, continue to submission.
	default:
		return nil, fmt.Errorf("hash lookup: %w", err)
	}

	if err := o.reserveQuota(); err != nil {
		return nil, err
	}

	if err := o.waitTurn(ctx); err != nil {
		return nil, err
	}
	scanID, err := o.client.Submit(ctx, bytes.NewReader(data), fileName)
	if err != nil {
		return nil, fmt.Errorf("submit for scan: %w", err)
	}

	return o.awaitReport(ctx, hash, scanID)
}

// awaitReport polls until the analysis completes, retries are exhausted, or
// the report loop gives up. The caller's cancellation is deliberately not
// honored: the verdict is cached by hash, so the scan runs to completion
// even if the original caller is gone.
func (o *Orchestrator) awaitReport(ctx context.Context, hash, scanID string) (*model.ScanVerdict, error) {
	ctx = context.WithoutCancel(ctx)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.pollInitial
	b.MaxInterval = o.pollMax
	b.MaxElapsedTime = 0

	for attempt := 0; attempt < o.pollMaxAttempts; attempt++ {
		time.Sleep(b.NextBackOff())

		if err := o.waitTurn(ctx); err != nil {
			return nil, err
		}
		rep, err := o.client.Report(ctx, scanID)
		if err != nil {
			o.log.Warn("scan report fetch failed",
				zap.String("scan_id", scanID),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}
		if rep.Status == ReportCompleted {
			v := o.verdictFromReport(rep, hash)
			o.cachePut(ctx, hash, v)
			return v, nil
		}
	}

	o.log.Warn("scan polling exhausted", zap.String("scan_id", scanID), zap.String("sha256", hash))
	return nil, ErrScanTimeout
}

// waitTurn blocks until the inter-request delay since the last dispatched
// call has elapsed. All remote calls, polls included, pass through here.
func (o *Orchestrator) waitTurn(ctx context.Context) error {
	return o.limiter.Wait(ctx)
}

// reserveQuota consumes one unit of the daily ceiling, rolling the counter
// over at local-day boundaries.
func (o *Orchestrator) reserveQuota() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now().In(o.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, o.loc)
	if !today.Equal(o.day) {
		o.day = today
		o.used = 0
	}
	if o.used >= o.dailyLimit {
		o.log.Warn("daily scan quota exhausted", zap.Int("limit", o.dailyLimit))
		return ErrQuotaExceeded
	}
	o.used++
	return nil
}

// verdictFromReport normalizes a completed report: safe means no engine
// flagged the content; threats list every flagging engine as engine:result.
func (o *Orchestrator) verdictFromReport(rep *Report, hash string) *model.ScanVerdict {
	var threats []string
	for engine, res := range rep.Results {
		if res.Flagged() {
			threats = append(threats, engine+":"+res.Result)
		}
	}
	sort.Strings(threats)

	scannedAt := rep.CompletedAt
	if scannedAt.IsZero() {
		scannedAt = o.now().In(o.loc)
	}
	return &model.ScanVerdict{
		Safe:      len(threats) == 0,
		ScanID:    rep.ScanID,
		SHA256:    hash,
		ScannedAt: scannedAt,
		Threats:   threats,
	}
}

func (o *Orchestrator) cachePut(ctx context.Context, hash string, v *model.ScanVerdict) {
	if o.cache == nil {
		return
	}
	if err := o.cache.Put(ctx, hash, v); err != nil {
		o.log.Warn("verdict cache store failed", zap.String("sha256", hash), zap.Error(err))
	}
}
