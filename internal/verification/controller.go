package verification

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"nutriverify/internal/catalog"
	"nutriverify/internal/config"
	"nutriverify/internal/logging"
	"nutriverify/internal/oracle"
	"nutriverify/internal/reference"
	"nutriverify/internal/rules"
	"nutriverify/internal/scoring"
	"nutriverify/internal/services"
)

const (
	defaultMaxAttempts   = 3
	defaultMinConfidence = 80
)

// Settings tunes the correction loop.
type Settings struct {
	MaxAttempts                  int
	FinalValidationMinConfidence float64
	ReferenceEvidence            bool
}

// DefaultSettings returns the loop defaults.
func DefaultSettings() Settings {
	return Settings{
		MaxAttempts:                  defaultMaxAttempts,
		FinalValidationMinConfidence: defaultMinConfidence,
		ReferenceEvidence:            true,
	}
}

// SettingsFromConfig reads loop settings from the pipeline section.
func SettingsFromConfig(cfg config.Pipeline) Settings {
	s := DefaultSettings()
	if cfg.MaxAttempts > 0 {
		s.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.FinalValidationMinConfidence > 0 {
		s.FinalValidationMinConfidence = float64(cfg.FinalValidationMinConfidence)
	}
	s.ReferenceEvidence = cfg.ReferenceEvidence
	return s
}

// ReferenceLookup finds reference compositions used as correction evidence.
type ReferenceLookup interface {
	Lookup(ctx context.Context, q reference.Query, massGrams float64) (*reference.Match, error)
}

// Result is the terminal state of a session. For OutcomeRetry, Record equals
// the input record.
type Result struct {
	Outcome     Outcome
	Record      catalog.Record
	Findings    []rules.Finding
	Attempts    []Attempt
	OracleCalls int
	Audit       Audit
	Err         error
}

// Controller runs the correction loop for single records.
type Controller struct {
	engine   *rules.Engine
	oracle   oracle.Oracle
	lookup   ReferenceLookup
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithLookup enables reference evidence for correction requests.
func WithLookup(lookup ReferenceLookup) Option {
	return func(c *Controller) {
		c.lookup = lookup
	}
}

// WithSettings overrides loop settings.
func WithSettings(s Settings) Option {
	return func(c *Controller) {
		if s.MaxAttempts <= 0 {
			s.MaxAttempts = defaultMaxAttempts
		}
		if s.FinalValidationMinConfidence <= 0 {
			s.FinalValidationMinConfidence = defaultMinConfidence
		}
		c.settings = s
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController builds a controller. A nil engine uses default thresholds.
func NewController(engine *rules.Engine, o oracle.Oracle, opts ...Option) *Controller {
	if engine == nil {
		engine = rules.NewEngine(rules.DefaultThresholds())
	}
	c := &Controller{
		engine:   engine,
		oracle:   o,
		settings: DefaultSettings(),
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Engine returns the rule engine the controller checks records with.
func (c *Controller) Engine() *rules.Engine {
	return c.engine
}

// Settings returns the active loop settings.
func (c *Controller) Settings() Settings {
	return c.settings
}

// Run drives rec to a terminal outcome.
func (c *Controller) Run(ctx context.Context, rec catalog.Record) Result {
	s := &session{
		record:  rec.Clone(),
		phase:   PhasePending,
		started: c.now(),
	}
	// Each applied proposal re-enters checking, so the attempt budget bounds the loop.
	maxSteps := 3*(c.settings.MaxAttempts+1) + 3
	var final transition
	for i := 0; ; i++ {
		if i >= maxSteps {
			final = terminate(OutcomeFlagged,
				services.Wrap(services.ErrConvergenceExhausted, "verification", "run", "step limit reached", nil),
				"step limit reached")
			break
		}
		tr := c.step(services.WithPhase(ctx, string(s.phase)), s)
		if tr.done {
			final = tr
			break
		}
		s.phase = tr.next
	}
	return c.finish(ctx, rec, s, final)
}

func (c *Controller) step(ctx context.Context, s *session) transition {
	switch s.phase {
	case PhasePending:
		return continueTo(PhaseChecking)
	case PhaseChecking:
		return c.check(s)
	case PhaseFinalValidation:
		return c.finalValidation(ctx, s)
	case PhaseAwaitingCorrection:
		return c.awaitCorrection(ctx, s)
	default:
		return terminate(OutcomeFlagged,
			services.Wrap(services.ErrValidation, "verification", "step", fmt.Sprintf("unknown phase %q", s.phase), nil),
			"unknown phase")
	}
}

func (c *Controller) check(s *session) transition {
	s.findings = c.engine.Evaluate(s.record)
	switch {
	case rules.HasCritical(s.findings):
		return terminate(OutcomeFlagged,
			services.Wrap(services.ErrDataImpossible, "verification", "check", describe(s.findings), nil),
			"physically impossible values")
	case rules.Passed(s.findings):
		return continueTo(PhaseFinalValidation)
	default:
		return continueTo(PhaseAwaitingCorrection)
	}
}

func (c *Controller) finalValidation(ctx context.Context, s *session) transition {
	if c.oracle == nil {
		return terminate(OutcomeRetry, services.Wrap(services.ErrOracleUnavailable, "verification", "final validation", "oracle not configured", nil), "oracle unavailable")
	}
	s.oracleCalls++
	validation, err := c.oracle.FinalValidation(ctx, s.record)
	if err != nil {
		return terminate(OutcomeRetry, err, "oracle unavailable during final validation")
	}
	s.validation = &validation
	s.confidence = validation.Confidence
	if validation.Rationale != "" {
		s.rationale = validation.Rationale
	}
	if validation.Accurate && validation.Confidence >= c.settings.FinalValidationMinConfidence {
		return terminate(OutcomeVerified, nil, "final validation passed")
	}
	details := fmt.Sprintf("oracle rejected values (accurate=%t, confidence=%.0f)", validation.Accurate, validation.Confidence)
	if len(validation.Issues) > 0 {
		details += ": " + strings.Join(validation.Issues, "; ")
	}
	s.findings = append(s.findings, rules.Finding{
		Rule:     rules.RuleOracleValidation,
		Severity: rules.SeverityWarning,
		Details:  details,
	})
	return continueTo(PhaseAwaitingCorrection)
}

func (c *Controller) awaitCorrection(ctx context.Context, s *session) transition {
	if len(s.attempts) >= c.settings.MaxAttempts {
		return terminate(OutcomeFlagged,
			services.Wrap(services.ErrConvergenceExhausted, "verification", "correct",
				fmt.Sprintf("%d attempts did not resolve %s", len(s.attempts), strings.Join(rules.FailingRules(s.findings), ", ")), nil),
			"max attempts exceeded")
	}
	if c.oracle == nil {
		return terminate(OutcomeRetry, services.Wrap(services.ErrOracleUnavailable, "verification", "correct", "oracle not configured", nil), "oracle unavailable")
	}
	c.fetchReference(ctx, s)

	history := make([]catalog.Macros, 0, len(s.attempts))
	for _, attempt := range s.attempts {
		history = append(history, attempt.After)
	}
	s.oracleCalls++
	verdict, err := c.oracle.ProposeCorrection(ctx, oracle.CorrectionRequest{
		Record:    s.record.Clone(),
		Findings:  s.findings,
		Reference: s.reference,
		Attempt:   len(s.attempts) + 1,
		Previous:  history,
	})
	if err != nil {
		return terminate(OutcomeRetry, err, "oracle unavailable during correction")
	}

	switch v := verdict.(type) {
	case oracle.NoCorrection:
		s.confidence = v.Confidence
		s.rationale = v.Rationale
		return terminate(OutcomeFlagged,
			services.Wrap(services.ErrOracleDisagreement, "verification", "correct",
				"oracle declined a correction while "+strings.Join(rules.FailingRules(s.findings), ", ")+" persists", nil),
			"oracle declined correction")
	case oracle.Proposal:
		before := s.record.Macros.Clone()
		clamped := applyProposal(&s.record, v.Fields)
		s.attempts = append(s.attempts, Attempt{
			Number:     len(s.attempts) + 1,
			Before:     before,
			After:      s.record.Macros.Clone(),
			Fields:     v.Fields.Names(),
			Findings:   rules.Failing(s.findings),
			Rationale:  v.Rationale,
			Confidence: v.Confidence,
			Clamped:    clamped,
		})
		s.confidence = v.Confidence
		s.rationale = v.Rationale
		s.validation = nil
		return continueTo(PhaseChecking)
	default:
		return terminate(OutcomeRetry,
			services.Wrap(services.ErrOracleUnavailable, "verification", "correct", fmt.Sprintf("unexpected verdict %T", verdict), nil),
			"unexpected oracle verdict")
	}
}

// fetchReference looks up reference evidence once per session. Failures only
// mean the oracle works without evidence.
func (c *Controller) fetchReference(ctx context.Context, s *session) {
	if s.refFetched || c.lookup == nil || !c.settings.ReferenceEvidence {
		return
	}
	s.refFetched = true
	mass, _ := s.record.Serving.MassGrams()
	match, err := c.lookup.Lookup(ctx, reference.Query{Name: s.record.Name, Brand: s.record.Brand}, mass)
	if err != nil {
		logging.WithContext(ctx, c.logger).Debug("reference evidence unavailable", logging.Error(err))
		return
	}
	s.reference = match
}

func (c *Controller) finish(ctx context.Context, original catalog.Record, s *session, tr transition) Result {
	now := c.now().UTC()
	rec := s.record
	confidence := int(math.Round(s.confidence))

	breakdown := scoring.Compute(rec, s.findings, confidence)
	audit := Audit{
		Outcome:         tr.outcome,
		Kind:            services.ErrorKind(tr.err),
		Message:         tr.message,
		Findings:        s.findings,
		Original:        original.Macros.Clone(),
		Final:           rec.Macros.Clone(),
		Attempts:        s.attempts,
		Validation:      s.validation,
		OracleRationale: s.rationale,
		OracleCalls:     s.oracleCalls,
		Score:           breakdown,
		DurationMS:      now.Sub(s.started).Milliseconds(),
		CompletedAt:     now,
	}
	if s.reference != nil {
		audit.Reference = &ReferenceEvidence{
			FDCID:       s.reference.FDCID,
			Description: s.reference.Description,
			DataType:    s.reference.DataType,
			Strategy:    s.reference.Strategy,
			Scaled:      s.reference.Scaled.Macros,
		}
	}

	result := Result{
		Outcome:     tr.outcome,
		Findings:    s.findings,
		Attempts:    s.attempts,
		OracleCalls: s.oracleCalls,
		Audit:       audit,
		Err:         tr.err,
	}

	logger := logging.WithContext(ctx, c.logger)
	if tr.outcome == OutcomeRetry {
		result.Record = original.Clone()
		logging.WarnWithContext(logger, "verification deferred", "oracle_unavailable",
			logging.String("reason", tr.message),
			logging.Error(tr.err),
			logging.ErrorKind(tr.err),
			logging.Hint("check llm connectivity and api key"),
		)
		return result
	}

	rec.VerificationAttempts = original.VerificationAttempts + len(s.attempts)
	rec.LastVerifiedAt = &now
	switch tr.outcome {
	case OutcomeVerified:
		rec.State = catalog.StateVerified
		rec.QualityScore = scoring.Verified
		rec.ReviewFlags = nil
	default:
		rec.State = catalog.StateFlagged
		rec.QualityScore = breakdown.Total()
		rec.ReviewFlags = reviewFlags(tr.err, s.findings)
	}
	if payload, err := audit.Encode(); err == nil {
		rec.Audit = payload
	} else {
		logger.Warn("audit encoding failed", logging.Error(err))
	}
	result.Record = rec

	attrs := []logging.Attr{
		logging.Int("quality_score", rec.QualityScore),
		logging.Int("attempts", len(s.attempts)),
		logging.Int("oracle_calls", s.oracleCalls),
	}
	if tr.err != nil {
		attrs = append(attrs, logging.ErrorKind(tr.err))
	}
	logging.Decision(logger, "verification decision", "verification", string(tr.outcome), tr.message, attrs...)
	return result
}

// reviewFlags lists the error kind followed by the distinct failing rules.
func reviewFlags(err error, findings []rules.Finding) []string {
	var flags []string
	if kind := services.ErrorKind(err); kind != "" {
		flags = append(flags, kind)
	}
	for _, rule := range rules.FailingRules(findings) {
		if len(flags) > 0 && flags[0] == rule {
			continue
		}
		flags = append(flags, rule)
	}
	return flags
}

func describe(findings []rules.Finding) string {
	failing := rules.Failing(findings)
	parts := make([]string, 0, len(failing))
	for _, f := range failing {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, "; ")
}
