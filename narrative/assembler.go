package narrative

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"narrative_framework/formatting"
	"narrative_framework/logging"
	"narrative_framework/metrics"
)

const sectionSeparator = "\n\n"

// Observer receives finished text for side-effect-only processing. It must
// not report failures back to the caller.
type Observer interface {
	Observe(ctx context.Context, text string)
}

type noopObserver struct{}

func (noopObserver) Observe(context.Context, string) {}

// Assembler turns call records into narratives. Its entry points never fail:
// an internal error produces the fallback sentence instead.
type Assembler struct {
	builder  atomic.Pointer[Builder]
	observer Observer
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithPhrases sets the wording used by the section builders.
func WithPhrases(p Phrases) Option {
	return func(a *Assembler) { a.SetPhrases(p) }
}

// WithObserver attaches an observer such as the embedding hook.
func WithObserver(o Observer) Option {
	return func(a *Assembler) {
		if o != nil {
			a.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Assembler) { a.metrics = m }
}

// NewAssembler creates an Assembler with default phrases, no observer and the
// default logger unless overridden.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		observer: noopObserver{},
		logger:   logging.Default(),
	}
	a.SetPhrases(DefaultPhrases())
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetPhrases swaps the wording used for subsequent narratives. Safe for
// concurrent use.
func (a *Assembler) SetPhrases(p Phrases) {
	b := NewBuilder(p)
	a.builder.Store(&b)
}

func (a *Assembler) sections() Builder {
	if b := a.builder.Load(); b != nil {
		return *b
	}
	return defaultBuilder
}

// Generate routes the record to the cancelled or active path by call status.
func (a *Assembler) Generate(ctx context.Context, rec CallRecord) string {
	if rec.Cancelled() {
		return a.GenerateCancellationNarrative(ctx, rec)
	}
	return a.GenerateActiveNarrative(ctx, rec)
}

// GenerateActiveNarrative builds the dispatch, assessment, treatment and
// transport sections, each normalized and abbreviated, separated by blank
// lines and closed with "{unit} returned to service.".
func (a *Assembler) GenerateActiveNarrative(ctx context.Context, rec CallRecord) (out string) {
	defer a.recoverInto(rec, &out)

	rec.Assessment = true
	b := a.sections()
	raw := []string{
		b.Dispatch(rec),
		b.Assessment(rec),
		b.Treatment(rec),
		b.Transport(rec),
	}
	paragraphs := make([]string, 0, len(raw)+1)
	for _, section := range raw {
		if strings.TrimSpace(section) == "" {
			continue
		}
		paragraphs = append(paragraphs, formatting.Abbreviate(formatting.Normalize(section)))
	}
	paragraphs = append(paragraphs, unitOrDefault(rec)+" returned to service.")
	out = strings.Join(paragraphs, sectionSeparator)

	a.observe(ctx, out)
	a.metrics.RecordNarrative(false)
	a.logger.Debug("narrative generated", "unit", rec.UnitName(), "status", string(StatusActive), "sections", len(paragraphs))
	return out
}

// GenerateCancellationNarrative builds the single-paragraph cancelled-call
// narrative. It is normalized but not abbreviated.
func (a *Assembler) GenerateCancellationNarrative(ctx context.Context, rec CallRecord) (out string) {
	defer a.recoverInto(rec, &out)

	out = formatting.Normalize(a.sections().Cancellation(rec))

	// The free-text reason is embedded for future enrichment; the result is
	// not used.
	if rec.Cancellation.Type == CancelOther && rec.Cancellation.OtherReason != "" {
		a.observe(ctx, rec.Cancellation.OtherReason)
	}
	a.metrics.RecordNarrative(true)
	a.logger.Debug("narrative generated", "unit", rec.UnitName(), "status", string(StatusCancelled), "cancellation_type", string(rec.Cancellation.Type))
	return out
}

// observe shields narrative output from a misbehaving observer.
func (a *Assembler) observe(ctx context.Context, text string) {
	defer func() {
		if r := recover(); r != nil {
			a.metrics.RecordEmbedFailure()
			a.logger.Warn("observer panic recovered", "error", fmt.Sprint(r))
		}
	}()
	a.observer.Observe(ctx, text)
}

func (a *Assembler) recoverInto(rec CallRecord, out *string) {
	r := recover()
	if r == nil {
		return
	}
	a.metrics.RecordFallback()
	a.logger.Error("narrative generation failed", "unit", rec.UnitName(), "error", fmt.Sprint(r))
	*out = Fallback(rec)
}

// Fallback is the minimal narrative returned when generation fails.
func Fallback(rec CallRecord) string {
	unit := rec.UnitName()
	if unit == "" {
		unit = unitFallback
	}
	reason := strings.TrimSpace(rec.DispatchReason)
	if reason == "" {
		reason = "location"
	}
	return fmt.Sprintf("%s was dispatched to %s. Due to technical difficulties, a detailed narrative could not be generated.", unit, reason)
}
