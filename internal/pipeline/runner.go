package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"nutriverify/internal/catalog"
	"nutriverify/internal/category"
	"nutriverify/internal/config"
	"nutriverify/internal/dedupe"
	"nutriverify/internal/logging"
	"nutriverify/internal/notifications"
	"nutriverify/internal/oracle"
	"nutriverify/internal/services"
	"nutriverify/internal/verification"
)

const (
	minBatchSize = 1
	maxBatchSize = 5
)

// Store is the catalog surface used by the runner.
type Store interface {
	Claim(ctx context.Context, size, offset int) ([]*catalog.Record, error)
	Release(ctx context.Context, id int64) error
	Defer(ctx context.Context, id int64) error
	Complete(ctx context.Context, rec *catalog.Record) error
	CountByState(ctx context.Context, state catalog.State) (int, error)
	List(ctx context.Context, filter catalog.ListFilter) ([]*catalog.Record, error)
	UpsertDuplicateCandidates(ctx context.Context, pairs []catalog.DuplicateCandidate) (int, error)
}

// Deps are the collaborators of a Runner. Oracle, Detector and Notifier are optional.
type Deps struct {
	Store      Store
	Controller *verification.Controller
	Classifier *category.Classifier
	Oracle     oracle.Oracle
	Detector   *dedupe.Detector
	Notifier   notifications.Service
	Logger     *slog.Logger
}

// Settings tunes batch execution.
type Settings struct {
	BatchSize                   int
	InterRecordDelay            time.Duration
	ClassifyWithOracle          bool
	OracleCategoryMinConfidence float64
	// LockDir holds shard lock files. Empty disables locking.
	LockDir string
}

// SettingsFromConfig reads batch settings from configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		BatchSize:                   cfg.Pipeline.BatchSize,
		InterRecordDelay:            cfg.InterRecordDelay(),
		ClassifyWithOracle:          cfg.Pipeline.ClassifyWithOracle,
		OracleCategoryMinConfidence: float64(cfg.Pipeline.OracleCategoryMinConfidence),
		LockDir:                     cfg.LockDir(),
	}
}

// Runner executes verification batches.
type Runner struct {
	store      Store
	controller *verification.Controller
	classifier *category.Classifier
	oracle     oracle.Oracle
	detector   *dedupe.Detector
	notifier   notifications.Service
	settings   Settings
	logger     *slog.Logger
	sleep      func(context.Context, time.Duration) error
	newRunID   func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithSleeper replaces the inter-record pause.
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(r *Runner) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// WithRunIDs replaces the run id generator.
func WithRunIDs(next func() string) Option {
	return func(r *Runner) {
		if next != nil {
			r.newRunID = next
		}
	}
}

// NewRunner validates deps and builds a runner.
func NewRunner(deps Deps, settings Settings, opts ...Option) (*Runner, error) {
	if deps.Store == nil || deps.Controller == nil {
		return nil, errors.New("pipeline requires a store and a controller")
	}
	if settings.BatchSize < minBatchSize || settings.BatchSize > maxBatchSize {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "configure",
			fmt.Sprintf("batch size must be between %d and %d, got %d", minBatchSize, maxBatchSize, settings.BatchSize), nil)
	}
	classifier := deps.Classifier
	if classifier == nil {
		classifier = category.New()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	r := &Runner{
		store:      deps.Store,
		controller: deps.Controller,
		classifier: classifier,
		oracle:     deps.Oracle,
		detector:   deps.Detector,
		notifier:   notifier,
		settings:   settings,
		logger:     logging.NewComponentLogger(deps.Logger, "pipeline"),
		sleep:      sleepContext,
		newRunID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RunBatch claims and processes one batch at shardOffset.
func (r *Runner) RunBatch(ctx context.Context, shardOffset int) (Summary, error) {
	runID := r.newRunID()
	b, err := r.claimShard(ctx, runID, shardOffset)
	if err != nil {
		return b.summary, err
	}
	summary := r.processShard(b)
	r.finishRun(ctx, &summary)
	return summary, nil
}

// RunShards processes one batch per offset concurrently and merges the
// summaries. Every shard claims its slice before any shard starts
// processing, so slices are cut from the same queue window. Offsets whose
// lock is held elsewhere are skipped.
func (r *Runner) RunShards(ctx context.Context, offsets []int) (Summary, error) {
	runID := r.newRunID()
	shards := make([]Summary, len(offsets))
	batches := make([]*shardBatch, len(offsets))

	var claimErr error
	for i, offset := range offsets {
		b, err := r.claimShard(ctx, runID, offset)
		if errors.Is(err, ErrShardBusy) {
			logging.WarnWithContext(r.logger, "shard skipped", "shard_busy",
				logging.Shard(offset),
				logging.Error(err),
				logging.Impact("shard left to the process holding its lock"),
			)
			shards[i] = b.summary
			continue
		}
		if err != nil {
			claimErr = err
			shards[i] = b.summary
			break
		}
		batches[i] = b
	}
	if claimErr != nil {
		for _, b := range batches {
			if b != nil {
				r.releaseUnprocessed(ctx, b.records)
				b.unlock()
			}
		}
		merged := Summary{RunID: runID, Shards: shards}
		return merged, claimErr
	}

	var g errgroup.Group
	for i, b := range batches {
		if b == nil {
			continue
		}
		g.Go(func() error {
			shards[i] = r.processShard(b)
			return nil
		})
	}
	_ = g.Wait()

	merged := Summary{RunID: runID, Shards: shards}
	for _, s := range shards {
		merged.add(s)
		merged.Duration = max(merged.Duration, s.Duration)
	}
	r.finishRun(ctx, &merged)
	return merged, nil
}

// shardBatch is a claimed slice waiting to be processed. ctx carries the
// run and shard ids; unlock releases the shard lock when one was taken.
type shardBatch struct {
	summary Summary
	records []*catalog.Record
	started time.Time
	ctx     context.Context
	unlock  func()
}

func (r *Runner) claimShard(ctx context.Context, runID string, offset int) (*shardBatch, error) {
	b := &shardBatch{
		summary: Summary{RunID: runID, ShardOffset: offset},
		started: time.Now(),
		unlock:  func() {},
	}

	if r.settings.LockDir != "" {
		lock, err := AcquireShardLock(r.settings.LockDir, offset)
		if err != nil {
			return b, err
		}
		b.unlock = func() {
			if err := lock.Release(); err != nil {
				r.logger.Warn("shard lock release failed", logging.Error(err))
			}
		}
	}

	ctx = services.WithRequestID(ctx, runID)
	ctx = services.WithShard(ctx, offset)
	b.ctx = ctx

	claimed, err := r.store.Claim(ctx, r.settings.BatchSize, offset)
	if err != nil {
		b.unlock()
		return b, fmt.Errorf("claim batch: %w", err)
	}
	b.records = claimed
	b.summary.Claimed = len(claimed)
	logging.WithContext(ctx, r.logger).Info("batch claimed",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("claimed", len(claimed)),
		logging.Int("batch_size", r.settings.BatchSize),
	)
	return b, nil
}

func (r *Runner) processShard(b *shardBatch) Summary {
	defer b.unlock()
	ctx := b.ctx
	logger := logging.WithContext(ctx, r.logger)
	summary := b.summary

	processed := make([]catalog.Record, 0, len(b.records))
	for i, rec := range b.records {
		if i > 0 {
			if err := r.sleep(ctx, r.settings.InterRecordDelay); err != nil {
				r.releaseUnprocessed(ctx, b.records[i:])
				logger.Info("batch interrupted", logging.Int("released", len(b.records)-i))
				break
			}
		}
		outcome := r.processRecord(ctx, rec)
		summary.Processed++
		switch outcome {
		case verification.OutcomeVerified:
			summary.Verified++
		case verification.OutcomeFlagged:
			summary.Flagged++
		case verification.OutcomeRetry:
			summary.Retried++
		default:
			summary.Errors++
		}
		processed = append(processed, *rec)
	}

	summary.DuplicateCandidates = r.detectDuplicates(ctx, processed)
	summary.Duration = time.Since(b.started)
	logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("processed", summary.Processed),
		logging.Int("verified", summary.Verified),
		logging.Int("flagged", summary.Flagged),
		logging.Int("retried", summary.Retried),
		logging.Int("errors", summary.Errors),
		logging.Int("duplicate_candidates", summary.DuplicateCandidates),
		logging.Duration("batch_duration", summary.Duration),
	)
	return summary
}

func (r *Runner) finishRun(ctx context.Context, summary *Summary) {
	remaining, err := r.store.CountByState(ctx, catalog.StateUnverified)
	if err != nil {
		r.logger.Warn("count remaining records failed", logging.Error(err))
	} else {
		summary.Remaining = remaining
	}
	report := notifications.BatchReport{
		RunID:     summary.RunID,
		Processed: summary.Processed,
		Verified:  summary.Verified,
		Flagged:   summary.Flagged,
		Retried:   summary.Retried,
		Errors:    summary.Errors,
		Remaining: summary.Remaining,
		Duration:  summary.Duration,
	}
	if err := r.notifier.NotifyBatchCompleted(context.WithoutCancel(ctx), report); err != nil {
		r.logger.Warn("batch notification failed", logging.Error(err))
	}
}

// releaseUnprocessed returns claimed records to unverified after cancellation.
func (r *Runner) releaseUnprocessed(ctx context.Context, recs []*catalog.Record) {
	releaseCtx := context.WithoutCancel(ctx)
	for _, rec := range recs {
		if err := r.store.Release(releaseCtx, rec.ID); err != nil {
			logging.ErrorWithContext(r.logger, "release claimed record failed", "release_failed",
				logging.RecordID(rec.ID),
				logging.Error(err),
				logging.Hint("record stays in processing; run requeue after review"),
			)
		}
	}
}

// detectDuplicates compares processed records against the catalog and
// persists advisory pairs. Failures are logged and reported as zero.
func (r *Runner) detectDuplicates(ctx context.Context, processed []catalog.Record) int {
	if r.detector == nil || len(processed) == 0 {
		return 0
	}
	all, err := r.store.List(ctx, catalog.ListFilter{})
	if err != nil {
		r.logger.Warn("list catalog for duplicate detection failed", logging.Error(err))
		return 0
	}
	pool := make([]catalog.Record, 0, len(all))
	for _, rec := range all {
		pool = append(pool, *rec)
	}
	pairs := r.detector.Against(processed, pool)
	if len(pairs) == 0 {
		return 0
	}
	written, err := r.store.UpsertDuplicateCandidates(ctx, dedupe.ToCandidates(pairs, time.Now().UTC()))
	if err != nil {
		r.logger.Warn("persist duplicate candidates failed", logging.Error(err))
		return 0
	}
	return written
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
