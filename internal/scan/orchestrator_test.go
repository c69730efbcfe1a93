package scan

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/CalTopSoft/backend-devhub/internal/config"
	"github.com/CalTopSoft/backend-devhub/internal/scan/mocks"
)

func fastScanConfig() config.ScanConfig {
	return config.ScanConfig{
		MinInterval:         time.Millisecond,
		DailyLimit:          100,
		PollMaxAttempts:     3,
		PollInitialInterval: time.Millisecond,
		PollMaxInterval:     2 * time.Millisecond,
	}
}

func newTestCache(t *testing.T) VerdictCache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisCacheFromClient(rdb, time.Hour)
}

func cleanReport(scanID, hash string) *Report {
	return &Report{
		ScanID: scanID,
		SHA256: hash,
		Status: ReportCompleted,
		Results: map[string]EngineResult{
			"alpha": {Category: "harmless"},
			"beta":  {Category: "undetected"},
		},
		CompletedAt: time.Now().UTC(),
	}
}

func TestOrchestrator_DedupByContentHash(t *testing.T) {
	ctx := context.Background()
	content := []byte("identical payload")
	hash := ContentHash(content)

	mc := new(mocks.MockClient)
	mc.On("Lookup", mock.Anything, hash).Return(nil, ErrHashNotFound).Once()
	mc.On("Submit", mock.Anything, mock.Anything, "app.tar.gz").Return("scan-1", nil).Once()
	mc.On("Report", mock.Anything, "scan-1").Return(cleanReport("scan-1", hash), nil).Once()

	o := NewOrchestrator(mc, newTestCache(t), fastScanConfig(), time.UTC, zap.NewNop())

	first, err := o.Scan(ctx, content, "app.tar.gz")
	require.NoError(t, err)
	assert.True(t, first.Safe)
	assert.Equal(t, hash, first.SHA256)

	// Second scan of byte-identical content is served from the cache:
	// no further Lookup, Submit, or Report calls.
	second, err := o.Scan(ctx, content, "renamed.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, first.ScanID, second.ScanID)

	mc.AssertExpectations(t)
	mc.AssertNumberOfCalls(t, "Submit", 1)
}

func TestOrchestrator_RemoteLookupHitSkipsSubmit(t *testing.T) {
	ctx := context.Background()
	content := []byte("seen before")
	hash := ContentHash(content)

	mc := new(mocks.MockClient)
	mc.On("Lookup", mock.Anything, hash).Return(cleanReport("scan-7", hash), nil).Once()

	o := NewOrchestrator(mc, nil, fastScanConfig(), time.UTC, zap.NewNop())

	v, err := o.Scan(ctx, content, "pkg.zip")
	require.NoError(t, err)
	assert.True(t, v.Safe)
	assert.Equal(t, "scan-7", v.ScanID)

	mc.AssertExpectations(t)
	mc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_JoinsInProgressAnalysis(t *testing.T) {
	ctx := context.Background()
	content := []byte("mid-flight")
	hash := ContentHash(content)

	pending := &Report{ScanID: "scan-9", SHA256: hash, Status: ReportInProgress}

	mc := new(mocks.MockClient)
	mc.On("Lookup", mock.Anything, hash).Return(pending, nil).Once()
	mc.On("Report", mock.Anything, "scan-9").Return(cleanReport("scan-9", hash), nil).Once()

	o := NewOrchestrator(mc, nil, fastScanConfig(), time.UTC, zap.NewNop())

	v, err := o.Scan(ctx, content, "pkg.zip")
	require.NoError(t, err)
	assert.Equal(t, "scan-9", v.ScanID)

	mc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_QuotaExceeded(t *testing.T) {
	ctx := context.Background()
	cfg := fastScanConfig()
	cfg.DailyLimit = 1

	mc := new(mocks.MockClient)
	mc.On("Lookup", mock.Anything, mock.Anything).Return(nil, ErrHashNotFound)
	mc.On("Submit", mock.Anything, mock.Anything, mock.Anything).Return("scan-1", nil).Once()
	mc.On("Report", mock.Anything, "scan-1").
		Return(cleanReport("scan-1", ContentHash([]byte("first"))), nil).Once()

	o := NewOrchestrator(mc, nil, cfg, time.UTC, zap.NewNop())

	_, err := o.Scan(ctx, []byte("first"), "a.bin")
	require.NoError(t, err)

	_, err = o.Scan(ctx, []byte("second"), "b.bin")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	mc.AssertNumberOfCalls(t, "Submit", 1)
}

func TestOrchestrator_QuotaResetsAtDayRollover(t *testing.T) {
	ctx := context.Background()
	cfg := fastScanConfig()
	cfg.DailyLimit = 1

	mc := new(mocks.MockClient)
	mc.On("Lookup", mock.Anything, mock.Anything).Return(nil, ErrHashNotFound)
	mc.On("Submit", mock.Anything, mock.Anything, mock.Anything).
		Return("scan-x", nil)
	mc.On("Report", mock.Anything, "scan-x").
		Return(&Report{ScanID: "scan-x", Status: ReportCompleted, Results: map[string]EngineResult{}}, nil)

	o := NewOrchestrator(mc, nil, cfg, time.UTC, zap.NewNop())

	day1 := time.Date(2024, 3, 1, 23, 50, 0, 0, time.UTC)
	o.now = func() time.Time { return day1 }

	_, err := o.Scan(ctx, []byte("one"), "a.bin")
	require.NoError(t, err)

	_, err = o.Scan(ctx, []byte("two"), "b.bin")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// Counter resets once the local date changes.
	o.now = func() time.Time { return day1.Add(time.Hour) }
	_, err = o.Scan(ctx, []byte("three"), "c.bin")
	assert.NoError(t, err)
}

func TestOrchestrator_ScanTimeout(t *testing.T) {
	ctx := context.Background()
	cfg := fastScanConfig()
	cfg.PollMaxAttempts = 2

	pending := &Report{ScanID: "scan-1", Status: ReportQueued}

	mc := new(mocks.MockClient)
	mc.On("Lookup", mock.Anything, mock.Anything).Return(nil, ErrHashNotFound).Once()
	mc.On("Submit", mock.Anything, mock.Anything, mock.Anything).Return("scan-1", nil).Once()
	mc.On("Report", mock.Anything, "scan-1").Return(pending, nil).Times(2)

	o := NewOrchestrator(mc, nil, cfg, time.UTC, zap.NewNop())

	_, err := o.Scan(ctx, []byte("slow"), "slow.bin")
	assert.ErrorIs(t, err, ErrScanTimeout)
	mc.AssertExpectations(t)
}

func TestOrchestrator_UnsafeVerdictNormalization(t *testing.T) {
	ctx := context.Background()
	content := []byte("bad bytes")
	hash := ContentHash(content)

	rep := &Report{
		ScanID: "scan-5",
		SHA256: hash,
		Status: ReportCompleted,
		Results: map[string]EngineResult{
			"alpha": {Category: "malicious", Result: "Trojan.Generic"},
			"beta":  {Category: "harmless"},
			"gamma": {Category: "suspicious", Result: "Heur.Packed"},
		},
	}

	mc := new(mocks.MockClient)
	mc.On("Lookup", mock.Anything, hash).Return(rep, nil).Once()

	o := NewOrchestrator(mc, nil, fastScanConfig(), time.UTC, zap.NewNop())

	v, err := o.Scan(ctx, content, "bad.bin")
	require.NoError(t, err)
	assert.False(t, v.Safe)
	assert.Equal(t, []string{"alpha:Trojan.Generic", "gamma:Heur.Packed"}, v.Threats)
}

func TestOrchestrator_MinIntervalRespected(t *testing.T) {
	ctx := context.Background()
	cfg := fastScanConfig()
	cfg.MinInterval = 25 * time.Millisecond

	mc := new(mocks.MockClient)
	mc.On("Lookup", mock.Anything, mock.Anything).Return(nil, ErrHashNotFound)
	mc.On("Submit", mock.Anything, mock.Anything, mock.Anything).Return("scan-t", nil)
	mc.On("Report", mock.Anything, "scan-t").
		Return(&Report{ScanID: "scan-t", Status: ReportCompleted, Results: map[string]EngineResult{}}, nil)

	o := NewOrchestrator(mc, nil, cfg, time.UTC, zap.NewNop())

	start := time.Now()
	_, err := o.Scan(ctx, []byte("payload one"), "a.bin")
	require.NoError(t, err)
	_, err = o.Scan(ctx, []byte("payload two"), "b.bin")
	require.NoError(t, err)

	// Two submissions: wall-clock span must be at least one full
	// inter-request delay between them.
	assert.GreaterOrEqual(t, time.Since(start), cfg.MinInterval)
}
