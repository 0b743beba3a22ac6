package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"nutriverify/internal/catalog"
	"nutriverify/internal/category"
	"nutriverify/internal/config"
	"nutriverify/internal/logging"
	"nutriverify/internal/services"
	"nutriverify/internal/services/llm"
)

// Completer issues one JSON chat completion.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Oracle is the set of questions the verification loop asks.
type Oracle interface {
	ProposeCorrection(ctx context.Context, req CorrectionRequest) (Verdict, error)
	FinalValidation(ctx context.Context, rec catalog.Record) (Validation, error)
	ClassifyCategory(ctx context.Context, name, brand string) (Classification, error)
}

// Adapter implements Oracle over a chat-completion client.
type Adapter struct {
	client   Completer
	validate *validator.Validate
	logger   *slog.Logger
}

var _ Oracle = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New wraps client.
func New(client Completer, opts ...Option) *Adapter {
	a := &Adapter{
		client:   client,
		validate: validator.New(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewFromConfig builds the chat-completion client and adapter from configuration.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Adapter, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if !cfg.OracleEnabled() {
		return nil, services.Wrap(services.ErrConfiguration, "oracle", "configure", "llm api key not set", nil)
	}
	componentLogger := logging.NewComponentLogger(logger, "oracle")
	client := llm.NewClient(llm.FromSettings(cfg.GetLLM()), llm.WithLogger(componentLogger))
	return New(client, WithLogger(componentLogger)), nil
}

// ProposeCorrection asks for replacement values that resolve the failing findings.
func (a *Adapter) ProposeCorrection(ctx context.Context, req CorrectionRequest) (Verdict, error) {
	prompt, err := buildCorrectionPrompt(req)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "oracle", "build correction prompt", "marshal prompt", err)
	}
	var payload correctionPayload
	if err := a.ask(ctx, "propose correction", correctionSystemPrompt, prompt, &payload); err != nil {
		return nil, err
	}
	confidence := clampConfidence(*payload.Confidence)
	rationale := strings.TrimSpace(payload.Rationale)
	fields := payload.Corrections.toFields()
	if !*payload.NeedsCorrection {
		return NoCorrection{Rationale: rationale, Confidence: confidence}, nil
	}
	if fields.Empty() {
		return nil, services.Wrap(services.ErrOracleUnavailable, "oracle", "propose correction",
			"correction requested without values", nil)
	}
	return Proposal{Fields: fields, Rationale: rationale, Confidence: confidence}, nil
}

// FinalValidation asks whether a record that passed every rule is accurate.
func (a *Adapter) FinalValidation(ctx context.Context, rec catalog.Record) (Validation, error) {
	prompt, err := buildValidationPrompt(rec)
	if err != nil {
		return Validation{}, services.Wrap(services.ErrValidation, "oracle", "build validation prompt", "marshal prompt", err)
	}
	var payload validationPayload
	if err := a.ask(ctx, "final validation", validationSystemPrompt, prompt, &payload); err != nil {
		return Validation{}, err
	}
	issues := make([]string, 0, len(payload.Issues))
	for _, issue := range payload.Issues {
		if trimmed := strings.TrimSpace(issue); trimmed != "" {
			issues = append(issues, trimmed)
		}
	}
	return Validation{
		Accurate:   *payload.Accurate,
		Confidence: clampConfidence(*payload.Confidence),
		Issues:     issues,
		Rationale:  strings.TrimSpace(payload.Rationale),
	}, nil
}

// ClassifyCategory asks for a taxonomy category. Labels outside the taxonomy
// are treated as malformed.
func (a *Adapter) ClassifyCategory(ctx context.Context, name, brand string) (Classification, error) {
	prompt, err := buildClassificationPrompt(name, brand)
	if err != nil {
		return Classification{}, services.Wrap(services.ErrValidation, "oracle", "build classification prompt", "marshal prompt", err)
	}
	var payload classificationPayload
	if err := a.ask(ctx, "classify category", classificationSystemPrompt(), prompt, &payload); err != nil {
		return Classification{}, err
	}
	cat, ok := category.Canonical(payload.Category)
	if !ok {
		return Classification{}, services.Wrap(
			services.ErrOracleUnavailable,
			"oracle",
			"classify category",
			fmt.Sprintf("category %q is not in the taxonomy", payload.Category),
			nil,
		)
	}
	return Classification{
		Category:   cat,
		Confidence: clampConfidence(*payload.Confidence),
		Rationale:  strings.TrimSpace(payload.Rationale),
	}, nil
}

// ask runs one completion, decodes it into target and validates the result.
func (a *Adapter) ask(ctx context.Context, op, systemPrompt, userPrompt string, target any) error {
	if a == nil || a.client == nil {
		return services.Wrap(services.ErrOracleUnavailable, "oracle", op, "client unavailable", nil)
	}
	content, err := a.client.CompleteJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		return services.Wrap(services.ErrOracleUnavailable, "oracle", op, "completion failed", err)
	}
	if err := llm.DecodeJSON(content, target); err != nil {
		a.logger.Debug("oracle response not decodable",
			logging.String("operation", op),
			logging.Error(err),
		)
		return services.Wrap(services.ErrOracleUnavailable, "oracle", op, "malformed response", err)
	}
	if err := a.validate.Struct(target); err != nil {
		a.logger.Debug("oracle response failed validation",
			logging.String("operation", op),
			logging.Error(err),
		)
		return services.Wrap(services.ErrOracleUnavailable, "oracle", op, "invalid response", err)
	}
	return nil
}

func clampConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
