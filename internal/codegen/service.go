package codegen

import (
	"context"
	"strings"
	"time"

	"github.com/Anoka2002/codecraftagent/internal/completion"
	"github.com/Anoka2002/codecraftagent/internal/language"
	"github.com/Anoka2002/codecraftagent/internal/metrics"
	"github.com/Anoka2002/codecraftagent/internal/models"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/Anoka2002/codecraftagent/internal/codegen")

// State is a step of a single generation
type State string

const (
	StateReceived         State = "received"
	StateValidated        State = "validated"
	StateLanguageResolved State = "language-resolved"
	StateGenerated        State = "generated"
	StateRewritten        State = "rewritten"
	StateFormatted        State = "formatted"
	StateResponded        State = "responded"
	StateFailed           State = "failed"
)

// Formatter formats code for a language tag and never fails
type Formatter interface {
	Format(ctx context.Context, code, tag string) string
}

// EventPublisher receives one event per finished generation
type EventPublisher interface {
	Publish(ctx context.Context, event models.GenerationEvent) error
}

// Service turns a CodeRequest into generated, optionally formatted code
type Service struct {
	selector  language.Selector
	client    completion.Client
	formatter Formatter
	events    EventPublisher
	logger    *zap.Logger
}

// NewService wires the generation pipeline. A nil selector falls back to the
// keyword selector and a nil publisher disables events.
func NewService(selector language.Selector, client completion.Client, formatter Formatter, events EventPublisher, logger *zap.Logger) *Service {
	if selector == nil {
		selector = language.NewKeywordSelector()
	}
	return &Service{
		selector:  selector,
		client:    client,
		formatter: formatter,
		events:    events,
		logger:    logger,
	}
}

// generation tracks one request through its states
type generation struct {
	requestID string
	state     State
	language  string
	rewritten bool
	formatted bool
}

// Generate runs a request through validation, language resolution, completion,
// the self-reference rewrite and formatting. Errors can be classified with Classify.
func (s *Service) Generate(ctx context.Context, req models.CodeRequest) (resp *models.CodeResponse, err error) {
	ctx, span := tracer.Start(ctx, "codegen.Generate")
	defer span.End()

	start := time.Now()
	g := &generation{requestID: RequestIDFromContext(ctx)}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("generation panicked",
				zap.String("request_id", g.requestID),
				zap.String("state", string(g.state)),
				zap.Any("panic", r),
			)
			resp = nil
			err = &UnclassifiedError{Err: errors.Newf("panic during %s: %v", g.state, r)}
		}
		s.finish(ctx, g, start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(Classify(err)))
		}
	}()

	s.transition(g, StateReceived)

	prompt := req.PromptText()
	if strings.TrimSpace(prompt) == "" {
		return nil, &ValidationError{Field: "prompt", Message: "must not be empty"}
	}
	s.transition(g, StateValidated)

	g.language = req.Language
	if g.language == "" {
		g.language = s.selector.Select(prompt)
	}
	span.SetAttributes(attribute.String("language", g.language))
	s.transition(g, StateLanguageResolved)

	code, err := s.client.Complete(ctx, prompt, g.language, req.TokenBudget())
	if err != nil {
		if completion.IsGatewayError(err) {
			return nil, errors.Wrap(err, "generate code")
		}
		return nil, &UnclassifiedError{Err: errors.Wrap(err, "generate code")}
	}
	s.transition(g, StateGenerated)

	code, g.rewritten = Rewrite(prompt, g.language, code)
	s.transition(g, StateRewritten)

	if req.ShouldFormat() {
		formatted := s.format(ctx, g, code)
		g.formatted = formatted != code
		code = formatted
	}
	s.transition(g, StateFormatted)

	s.transition(g, StateResponded)
	return &models.CodeResponse{GeneratedCode: code, Language: g.language}, nil
}

// format calls the formatter and falls back to code if it panics
func (s *Service) format(ctx context.Context, g *generation, code string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("formatter panicked, returning unformatted code",
				zap.String("request_id", g.requestID),
				zap.String("language", g.language),
				zap.Any("panic", r),
			)
			out = code
		}
	}()
	return s.formatter.Format(ctx, code, g.language)
}

func (s *Service) transition(g *generation, state State) {
	g.state = state
	s.logger.Debug("generation state",
		zap.String("request_id", g.requestID),
		zap.String("state", string(state)),
	)
}

func (s *Service) finish(ctx context.Context, g *generation, start time.Time, err error) {
	event := models.GenerationEvent{
		ID:        uuid.New(),
		RequestID: g.requestID,
		Language:  g.language,
		Status:    models.GenerationStatusResponded,
		Formatted: g.formatted,
		Rewritten: g.rewritten,
		LatencyMs: time.Since(start).Milliseconds(),
		CreatedAt: time.Now().UTC(),
	}

	outcome := string(StateResponded)
	if err != nil {
		failedAt := g.state
		s.transition(g, StateFailed)

		kind := Classify(err)
		outcome = string(kind)
		event.Status = models.GenerationStatusFailed
		event.ErrorKind = string(kind)

		s.logger.Warn("generation failed",
			zap.String("request_id", g.requestID),
			zap.String("state", string(failedAt)),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
	metrics.Generations.WithLabelValues(metrics.LanguageLabel(g.language), outcome).Inc()

	if s.events == nil {
		return
	}
	if perr := s.events.Publish(context.WithoutCancel(ctx), event); perr != nil {
		s.logger.Warn("failed to publish generation event",
			zap.String("request_id", g.requestID),
			zap.Error(perr),
		)
	}
}
