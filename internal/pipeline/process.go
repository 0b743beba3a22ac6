package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"nutriverify/internal/catalog"
	"nutriverify/internal/category"
	"nutriverify/internal/logging"
	"nutriverify/internal/rules"
	"nutriverify/internal/services"
	"nutriverify/internal/verification"
)

// outcomeError marks records whose result could not be persisted.
const outcomeError verification.Outcome = "error"

// processRecord runs one claimed record to completion and persists the
// outcome. rec is updated in place with what was stored.
func (r *Runner) processRecord(ctx context.Context, rec *catalog.Record) (outcome verification.Outcome) {
	ctx = services.WithRecordID(ctx, rec.ID)
	logger := logging.WithContext(ctx, r.logger)

	defer func() {
		if recovered := recover(); recovered != nil {
			logging.ErrorWithContext(logger, "record processing panicked", "record_panic",
				logging.Any("panic", recovered),
				logging.String("stack", string(debug.Stack())),
				logging.Alert("record_panic"),
			)
			outcome = r.flagInternal(ctx, rec, fmt.Sprintf("panic: %v", recovered))
		}
	}()

	r.repairCategory(ctx, rec)

	result := r.controller.Run(ctx, *rec)
	if result.Outcome == verification.OutcomeRetry {
		if err := r.store.Defer(ctx, rec.ID); err != nil {
			logging.ErrorWithContext(logger, "defer record failed", "defer_failed",
				logging.Error(err),
				logging.Hint("record stays in processing; run requeue after review"),
			)
			return outcomeError
		}
		return verification.OutcomeRetry
	}

	final := result.Record
	if err := r.store.Complete(ctx, &final); err != nil {
		logging.ErrorWithContext(logger, "persist verification outcome failed", "persist_failed",
			logging.String("outcome", string(result.Outcome)),
			logging.Error(err),
		)
		return outcomeError
	}
	*rec = final
	if result.Outcome == verification.OutcomeFlagged {
		r.notifyFlagged(ctx, final)
	}
	return result.Outcome
}

func (r *Runner) notifyFlagged(ctx context.Context, rec catalog.Record) {
	kind := services.KindInternal
	if len(rec.ReviewFlags) > 0 {
		kind = rec.ReviewFlags[0]
	}
	if err := r.notifier.NotifyRecordFlagged(ctx, rec.ID, rec.DisplayName(), kind); err != nil {
		logging.WithContext(ctx, r.logger).Warn("flagged notification failed", logging.Error(err))
	}
}

// repairCategory replaces missing or non-canonical categories. The lexical
// classifier runs first; the oracle is consulted only when it yields Other
// and the record has no critical finding, so impossible records reach the
// controller without any oracle traffic.
func (r *Runner) repairCategory(ctx context.Context, rec *catalog.Record) {
	resolution := r.classifier.Resolve(rec.Category, rec.Name)
	if resolution.Category == category.Other && r.settings.ClassifyWithOracle && r.oracle != nil &&
		!r.hasCritical(*rec, resolution.Category) {
		cls, err := r.oracle.ClassifyCategory(ctx, rec.Name, rec.Brand)
		switch {
		case err != nil:
			logging.WithContext(ctx, r.logger).Debug("oracle classification unavailable", logging.Error(err))
		case cls.Category != category.Other && cls.Confidence >= r.settings.OracleCategoryMinConfidence:
			resolution = category.Resolution{
				Category: cls.Category,
				Method:   category.MethodOracle,
				Changed:  string(cls.Category) != rec.Category,
			}
		}
	}
	if !resolution.Changed {
		return
	}
	logging.Decision(logging.WithContext(ctx, r.logger), "category repaired",
		"category_repair", string(resolution.Category), string(resolution.Method),
		logging.String("previous_category", rec.Category),
	)
	rec.Category = string(resolution.Category)
}

func (r *Runner) hasCritical(rec catalog.Record, cat category.Category) bool {
	rec.Category = string(cat)
	return rules.HasCritical(r.controller.Engine().Evaluate(rec))
}

// flagInternal persists a flagged outcome for a record that crashed.
func (r *Runner) flagInternal(ctx context.Context, rec *catalog.Record, message string) verification.Outcome {
	now := time.Now().UTC()
	flagged := rec.Clone()
	flagged.State = catalog.StateFlagged
	flagged.ReviewFlags = []string{services.KindInternal}
	flagged.LastVerifiedAt = &now
	payload, err := json.Marshal(map[string]any{
		"outcome":      verification.OutcomeFlagged,
		"kind":         services.KindInternal,
		"message":      message,
		"completed_at": now,
	})
	if err == nil {
		flagged.Audit = string(payload)
	}
	if err := r.store.Complete(ctx, &flagged); err != nil {
		logging.ErrorWithContext(logging.WithContext(ctx, r.logger), "persist internal failure failed", "persist_failed",
			logging.Error(err),
		)
		return outcomeError
	}
	*rec = flagged
	r.notifyFlagged(ctx, flagged)
	return verification.OutcomeFlagged
}
