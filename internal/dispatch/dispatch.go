// Package dispatch is the request-dispatch shell: it routes one submitted
// FeatureRequest to its handler, owns the adapter call timeouts, and appends
// the outcome to the session's interaction log. Handlers are stateless; the
// log is the only state that crosses calls.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"erik/internal/adapter/extract"
	"erik/internal/adapter/mathexpr"
	"erik/internal/adapter/plotimg"
	"erik/internal/adapter/scholar"
	"erik/internal/adapter/websearch"
	"erik/internal/config"
	"erik/internal/logging"
	"erik/internal/session"

	"go.uber.org/zap"
)

// Feature identifies one of the eight capabilities.
type Feature int

const (
	FeatureDoubt Feature = iota
	FeatureTopic
	FeatureUpload
	FeatureQuiz
	FeatureFlashcards
	FeatureMath
	FeaturePlot
	FeatureResearch
)

var featureNames = [...]string{
	"Doubt Solver",
	"Topic Analyzer",
	"Document Upload",
	"Quiz Generator",
	"Flashcards",
	"Math Solver",
	"Graph Plotter",
	"Research Lookup",
}

func (f Feature) String() string {
	if int(f) < len(featureNames) {
		return featureNames[f]
	}
	return "Unknown"
}

// Features lists every capability in menu order.
func Features() []Feature {
	out := make([]Feature, len(featureNames))
	for i := range out {
		out[i] = Feature(i)
	}
	return out
}

// Format bounds answer length.
type Format int

const (
	FormatShort Format = iota
	FormatLong
)

func (f Format) String() string {
	if f == FormatShort {
		return "Short"
	}
	return "Long"
}

// Request is the closed union of feature requests. Exactly one variant
// exists per capability; the shell matches on the concrete type.
type Request interface {
	Feature() Feature
}

// SolveDoubt answers a free-text question, routing math-looking queries to
// the math adapter and the rest to web search.
type SolveDoubt struct {
	Query  string
	Format Format
}

// AnalyzeTopic summarizes pasted text and extracts keywords.
type AnalyzeTopic struct {
	Text string
}

// UploadDocument extracts text from an uploaded file.
type UploadDocument struct {
	Name string
	Data []byte
}

// GenerateQuiz builds quiz questions from a topic or from notes.
type GenerateQuiz struct {
	Topic string
	Notes string
	Count int
}

// GenerateFlashcards builds front/back pairs from a topic or from notes.
type GenerateFlashcards struct {
	Topic string
	Notes string
	Count int
}

// SolveMath runs one symbolic-math operation.
type SolveMath struct {
	Expression string
}

// PlotFunction renders a 2-D or 3-D graph of an expression.
type PlotFunction struct {
	Expression string
	ThreeD     bool
}

// ResearchLookup fetches scholarly papers on a topic.
type ResearchLookup struct {
	Topic  string
	Format Format
}

func (SolveDoubt) Feature() Feature         { return FeatureDoubt }
func (AnalyzeTopic) Feature() Feature       { return FeatureTopic }
func (UploadDocument) Feature() Feature     { return FeatureUpload }
func (GenerateQuiz) Feature() Feature       { return FeatureQuiz }
func (GenerateFlashcards) Feature() Feature { return FeatureFlashcards }
func (SolveMath) Feature() Feature          { return FeatureMath }
func (PlotFunction) Feature() Feature       { return FeaturePlot }
func (ResearchLookup) Feature() Feature     { return FeatureResearch }

// Payload is what a handler hands back for display. Err is set when the
// attempt failed; the failure is already reflected in the log where the
// feature logs at all. Expression, when set, is a plottable function carried
// out of a math answer so the surface can offer to graph it.
type Payload struct {
	Feature    Feature
	Title      string
	Body       string
	ImagePath  string
	Expression string
	Err        error
}

// Adapter interfaces. The dispatcher only sees these; tests substitute
// fakes and the real adapters satisfy them as-is.
type (
	// Searcher answers a free-text query from the web.
	Searcher interface {
		FetchAnswer(ctx context.Context, query string) (*websearch.Answer, error)
	}
	// Scholar finds publications for a topic.
	Scholar interface {
		Lookup(ctx context.Context, topic string, count int) ([]scholar.Paper, error)
	}
	// Translator converts text to a target language.
	Translator interface {
		Translate(ctx context.Context, text, target string) (string, error)
	}
	// MathSolver runs one symbolic operation over an expression.
	MathSolver interface {
		Solve(ctx context.Context, raw string) (*mathexpr.Result, error)
	}
	// Plotter renders a function graph to an image file.
	Plotter interface {
		Render(ctx context.Context, expression string, dim plotimg.Dimensionality) (*plotimg.Figure, error)
	}
	// Extractor converts document bytes to plain text.
	Extractor interface {
		Extract(ctx context.Context, data []byte, kind extract.Kind) (string, error)
	}
)

// Deps bundles the adapters behind the dispatcher.
type Deps struct {
	Search    Searcher
	Scholar   Scholar
	Translate Translator
	Math      MathSolver
	Plot      Plotter
	Extract   Extractor
}

// Dispatcher routes feature requests to handlers. It holds no per-request
// state; one Dispatcher serves any number of sessions.
type Dispatcher struct {
	cfg  *config.Config
	deps Deps
}

// New builds a dispatcher from configuration and adapters.
func New(cfg *config.Config, deps Deps) *Dispatcher {
	return &Dispatcher{cfg: cfg, deps: deps}
}

// Submit handles exactly one user-initiated request against the session and
// returns the display payload. Unrecognized request types are a defensive
// no-op: the union is closed, so the branch is unreachable from the menu,
// but it must not crash if reached.
func (d *Dispatcher) Submit(ctx context.Context, sess *session.Session, req Request) Payload {
	switch r := req.(type) {
	case SolveDoubt:
		return d.solveDoubt(ctx, sess, r)
	case AnalyzeTopic:
		return d.analyzeTopic(ctx, sess, r)
	case UploadDocument:
		return d.uploadDocument(ctx, sess, r)
	case GenerateQuiz:
		return d.generateQuiz(sess, r)
	case GenerateFlashcards:
		return d.generateFlashcards(sess, r)
	case SolveMath:
		return d.solveMath(ctx, sess, r)
	case PlotFunction:
		return d.plotFunction(ctx, sess, r)
	case ResearchLookup:
		return d.researchLookup(ctx, sess, r)
	default:
		logging.L().Warn("unrecognized feature request", zap.String("type", fmt.Sprintf("%T", req)))
		return Payload{}
	}
}

// adapterCtx bounds one outbound adapter call.
func (d *Dispatcher) adapterCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.cfg.AdapterTimeout())
}

// failureMessage turns an adapter error into the user-visible reason.
func failureMessage(service string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("The %s service timed out. Please try again.", service)
	}
	return fmt.Sprintf("The %s request failed: %v", service, err)
}

// fail logs the failed attempt and builds the error payload. The user's
// input and the failure both land in the log, so a resubmit reads naturally.
func fail(sess *session.Session, f Feature, input, msg string) Payload {
	sess.Append(session.RoleUser, input)
	sess.Append(session.RoleSystem, msg)
	return Payload{Feature: f, Title: f.String(), Body: msg, Err: errors.New(msg)}
}

// ok logs the successful exchange and builds the payload.
func ok(sess *session.Session, f Feature, input, body string) Payload {
	sess.Append(session.RoleUser, input)
	sess.Append(session.RoleSystem, body)
	return Payload{Feature: f, Title: f.String(), Body: body}
}
