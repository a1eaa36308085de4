package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"erik/internal/adapter/extract"
	"erik/internal/adapter/mathexpr"
	"erik/internal/adapter/plotimg"
	"erik/internal/adapter/scholar"
	"erik/internal/adapter/websearch"
	"erik/internal/config"
	"erik/internal/session"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ---- fakes ----------------------------------------------------------------

type fakeSearch struct {
	answer *websearch.Answer
	err    error
	delay  time.Duration
	called bool
}

func (f *fakeSearch) FetchAnswer(ctx context.Context, query string) (*websearch.Answer, error) {
	f.called = true
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.answer, f.err
}

type fakeScholar struct {
	papers []scholar.Paper
	err    error
}

func (f *fakeScholar) Lookup(ctx context.Context, topic string, count int) ([]scholar.Paper, error) {
	return f.papers, f.err
}

type fakeTranslator struct{ out string }

func (f *fakeTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	if f.out == "" {
		return "", errors.New("translator down")
	}
	return f.out, nil
}

type fakePlot struct {
	fig *plotimg.Figure
	err error
}

func (f *fakePlot) Render(ctx context.Context, expression string, dim plotimg.Dimensionality) (*plotimg.Figure, error) {
	return f.fig, f.err
}

type fakeExtract struct {
	text string
	err  error
}

func (f *fakeExtract) Extract(ctx context.Context, data []byte, kind extract.Kind) (string, error) {
	return f.text, f.err
}

func testDispatcher(deps Deps) *Dispatcher {
	cfg := config.Default()
	cfg.Services.AdapterTimeout = "100ms"
	if deps.Math == nil {
		deps.Math = mathexpr.NewSolver()
	}
	return New(cfg, deps)
}

// ---- tests ----------------------------------------------------------------

func TestSubmit_LogGrowsInSubmissionOrder(t *testing.T) {
	d := testDispatcher(Deps{
		Search:  &fakeSearch{answer: &websearch.Answer{Text: "an answer", SourceURL: "https://s.example"}},
		Scholar: &fakeScholar{papers: []scholar.Paper{{Title: "P", Abstract: "A"}}},
	})
	sess := session.New()

	reqs := []Request{
		SolveDoubt{Query: "what is osmosis", Format: FormatShort},
		SolveMath{Expression: "2+2"},
		GenerateQuiz{Topic: "biology", Count: 2},
		ResearchLookup{Topic: "osmosis", Format: FormatShort},
	}
	for _, r := range reqs {
		p := d.Submit(context.Background(), sess, r)
		if p.Err != nil {
			t.Fatalf("Submit(%T) failed: %v", r, p.Err)
		}
	}

	recs := sess.Records()
	if len(recs) != 2*len(reqs) {
		t.Fatalf("log has %d records, want %d", len(recs), 2*len(reqs))
	}
	for i, r := range recs {
		wantRole := session.RoleUser
		if i%2 == 1 {
			wantRole = session.RoleSystem
		}
		if r.Role != wantRole {
			t.Fatalf("record %d role = %v, want %v", i, r.Role, wantRole)
		}
	}
	if recs[0].Content != "what is osmosis" {
		t.Fatalf("first record = %q", recs[0].Content)
	}
}

func TestSubmit_DoubtRoutesMathAndSearch(t *testing.T) {
	search := &fakeSearch{answer: &websearch.Answer{Text: "plants move water", SourceURL: "https://s.example"}}
	d := testDispatcher(Deps{Search: search})
	sess := session.New()

	p := d.Submit(context.Background(), sess, SolveDoubt{Query: "2+2", Format: FormatShort})
	if p.Err != nil {
		t.Fatalf("math doubt failed: %v", p.Err)
	}
	if search.called {
		t.Fatal("math-looking query hit the search adapter")
	}
	if !strings.Contains(p.Body, "4") {
		t.Fatalf("math doubt body = %q", p.Body)
	}

	p = d.Submit(context.Background(), sess, SolveDoubt{Query: "what is osmosis", Format: FormatShort})
	if p.Err != nil {
		t.Fatalf("search doubt failed: %v", p.Err)
	}
	if !search.called {
		t.Fatal("plain question never hit the search adapter")
	}
	if !strings.Contains(p.Body, "(Source: https://s.example)") {
		t.Fatalf("search doubt body = %q", p.Body)
	}
}

func TestSubmit_DoubtShortFormatTruncates(t *testing.T) {
	long := strings.Repeat("lengthy answer text ", 50)
	d := testDispatcher(Deps{Search: &fakeSearch{answer: &websearch.Answer{Text: long, SourceURL: "https://s.example"}}})
	sess := session.New()

	p := d.Submit(context.Background(), sess, SolveDoubt{Query: "tell me everything", Format: FormatShort})
	if p.Err != nil {
		t.Fatal(p.Err)
	}
	answer, _, _ := strings.Cut(p.Body, "\n\n(Source:")
	words := strings.Fields(answer)
	if len(words) > config.Default().Output.ShortWords+1 {
		t.Fatalf("short answer has %d words", len(words))
	}
}

func TestSubmit_QuizCountLaw(t *testing.T) {
	d := testDispatcher(Deps{})
	notes := "First fact. Second fact. Third fact."

	tests := []struct {
		name  string
		req   GenerateQuiz
		wantN int
	}{
		{name: "notes capped by segments", req: GenerateQuiz{Notes: notes, Count: 5}, wantN: 3},
		{name: "notes under cap", req: GenerateQuiz{Notes: notes, Count: 2}, wantN: 2},
		{name: "topic exact count", req: GenerateQuiz{Topic: "algebra", Count: 4}, wantN: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := session.New()
			p := d.Submit(context.Background(), sess, tt.req)
			if p.Err != nil {
				t.Fatal(p.Err)
			}
			if got := strings.Count(p.Body, "\n") - 1; got != tt.wantN {
				t.Fatalf("quiz has %d items, want %d\n%s", got, tt.wantN, p.Body)
			}
		})
	}

	sess := session.New()
	p := d.Submit(context.Background(), sess, GenerateQuiz{Topic: "x", Count: -1})
	if p.Err == nil {
		t.Fatal("negative count accepted")
	}
	if sess.Len() != 0 {
		t.Fatal("invalid request reached the log")
	}
}

func TestSubmit_FlashcardCountLaw(t *testing.T) {
	d := testDispatcher(Deps{})
	sess := session.New()

	p := d.Submit(context.Background(), sess, GenerateFlashcards{Notes: "One. Two.", Count: 9})
	if p.Err != nil {
		t.Fatal(p.Err)
	}
	if got := strings.Count(p.Body, "**Front:**"); got != 2 {
		t.Fatalf("flashcards = %d, want min(9, 2) = 2", got)
	}

	p = d.Submit(context.Background(), sess, GenerateFlashcards{Topic: "cells", Count: 4})
	if p.Err != nil {
		t.Fatal(p.Err)
	}
	if got := strings.Count(p.Body, "**Front:**"); got != 4 {
		t.Fatalf("flashcards = %d, want 4", got)
	}
}

func TestSubmit_UnsupportedUploadAppendsNothing(t *testing.T) {
	d := testDispatcher(Deps{Extract: &fakeExtract{text: "should never be reached"}})
	sess := session.New()

	p := d.Submit(context.Background(), sess, UploadDocument{Name: "image.png", Data: []byte{1, 2}})
	if p.Err == nil {
		t.Fatal("unsupported format accepted")
	}
	if !strings.Contains(p.Body, "Unsupported format") {
		t.Fatalf("body = %q", p.Body)
	}
	if sess.Len() != 0 {
		t.Fatalf("unsupported upload appended %d records, want 0", sess.Len())
	}
}

func TestSubmit_UploadPreviewBounded(t *testing.T) {
	long := strings.Repeat("abcde ", 400) // ~2400 chars
	d := testDispatcher(Deps{Extract: &fakeExtract{text: long}})
	sess := session.New()

	p := d.Submit(context.Background(), sess, UploadDocument{Name: "notes.txt", Data: []byte("x")})
	if p.Err != nil {
		t.Fatal(p.Err)
	}
	limit := config.Default().Output.DocPreviewRune
	if len(p.Body) > limit+200 {
		t.Fatalf("preview body %d chars, cap %d", len(p.Body), limit)
	}
	if sess.Len() != 2 {
		t.Fatalf("upload logged %d records, want 2", sess.Len())
	}
}

func TestSubmit_SearchTimeoutBecomesFailure(t *testing.T) {
	// The adapter blocks past the configured timeout; Submit must return a
	// failure payload instead of hanging.
	d := testDispatcher(Deps{Search: &fakeSearch{delay: 5 * time.Second}})
	sess := session.New()

	done := make(chan Payload, 1)
	go func() {
		done <- d.Submit(context.Background(), sess, SolveDoubt{Query: "slow question", Format: FormatShort})
	}()

	select {
	case p := <-done:
		if p.Err == nil {
			t.Fatal("timed-out call reported success")
		}
		if !strings.Contains(p.Body, "timed out") {
			t.Fatalf("body = %q, want timeout message", p.Body)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Submit hung past the adapter timeout")
	}

	recs := sess.Records()
	if len(recs) != 2 || recs[1].Role != session.RoleSystem {
		t.Fatalf("timeout not reflected in log: %+v", recs)
	}
}

func TestSubmit_AdapterFailureBecomesSystemRecord(t *testing.T) {
	d := testDispatcher(Deps{Scholar: &fakeScholar{err: errors.New("provider down")}})
	sess := session.New()

	p := d.Submit(context.Background(), sess, ResearchLookup{Topic: "anything", Format: FormatShort})
	if p.Err == nil {
		t.Fatal("failed lookup reported success")
	}
	recs := sess.Records()
	if len(recs) != 2 {
		t.Fatalf("log has %d records, want 2", len(recs))
	}
	if recs[1].Role != session.RoleSystem || !strings.Contains(recs[1].Content, "failed") {
		t.Fatalf("system record = %+v", recs[1])
	}
}

func TestSubmit_ResearchExhaustionIsPartial(t *testing.T) {
	d := testDispatcher(Deps{Scholar: &fakeScholar{papers: []scholar.Paper{
		{Title: "Only One", Authors: []string{"A"}, Year: 2021, Abstract: "The lone abstract."},
	}}})
	sess := session.New()

	p := d.Submit(context.Background(), sess, ResearchLookup{Topic: "rare topic", Format: FormatLong})
	if p.Err != nil {
		t.Fatalf("partial result treated as failure: %v", p.Err)
	}
	if !strings.Contains(p.Body, "Showing 1 of 3 requested") {
		t.Fatalf("body missing exhaustion note: %q", p.Body)
	}
	if !strings.Contains(p.Body, "The lone abstract.") {
		t.Fatalf("body missing abstract: %q", p.Body)
	}
}

func TestSubmit_PlotSuccessAndFailure(t *testing.T) {
	okPlot := &fakePlot{fig: &plotimg.Figure{Path: "/tmp/fig.png", FinitePoints: 400}}
	d := testDispatcher(Deps{Plot: okPlot})
	sess := session.New()

	p := d.Submit(context.Background(), sess, PlotFunction{Expression: "x**2"})
	if p.Err != nil {
		t.Fatal(p.Err)
	}
	if p.ImagePath != "/tmp/fig.png" {
		t.Fatalf("image path = %q", p.ImagePath)
	}

	d = testDispatcher(Deps{Plot: &fakePlot{err: errors.New("nothing finite")}})
	p = d.Submit(context.Background(), sess, PlotFunction{Expression: "sqrt(-1-x**2)"})
	if p.Err == nil {
		t.Fatal("plot failure reported success")
	}
}

func TestSubmit_MathAnswerCarriesPlottableExpression(t *testing.T) {
	d := testDispatcher(Deps{})
	sess := session.New()

	p := d.Submit(context.Background(), sess, SolveMath{Expression: "diff(x**2, x)"})
	if p.Err != nil {
		t.Fatal(p.Err)
	}
	if p.Expression != "2*x" {
		t.Fatalf("derivative payload expression = %q", p.Expression)
	}

	// Solution sets are points, not functions; nothing to plot.
	p = d.Submit(context.Background(), sess, SolveMath{Expression: "solve(x**2 - 4, x)"})
	if p.Err != nil {
		t.Fatal(p.Err)
	}
	if p.Expression != "" {
		t.Fatalf("solve payload expression = %q", p.Expression)
	}
}

type unknownRequest struct{}

func (unknownRequest) Feature() Feature { return Feature(99) }

func TestSubmit_UnknownRequestIsNoOp(t *testing.T) {
	d := testDispatcher(Deps{})
	sess := session.New()

	p := d.Submit(context.Background(), sess, unknownRequest{})
	if p.Err != nil || p.Body != "" {
		t.Fatalf("unknown request payload = %+v, want empty no-op", p)
	}
	if sess.Len() != 0 {
		t.Fatal("unknown request touched the log")
	}
}

func TestSubmit_BanglaInputIsTranslatedBeforeSearch(t *testing.T) {
	search := &fakeSearch{answer: &websearch.Answer{Text: "light is energy", SourceURL: "https://s.example"}}
	d := testDispatcher(Deps{Search: search, Translate: &fakeTranslator{out: "what is light"}})
	sess := session.New()

	p := d.Submit(context.Background(), sess, SolveDoubt{Query: "আলো কী?", Format: FormatShort})
	if p.Err != nil {
		t.Fatal(p.Err)
	}
	// The log keeps the user's original words.
	if got := sess.Records()[0].Content; got != "আলো কী?" {
		t.Fatalf("user record = %q", got)
	}
}

func TestSubmit_TranslatorFailureIsNonFatal(t *testing.T) {
	search := &fakeSearch{answer: &websearch.Answer{Text: "answer", SourceURL: "https://s.example"}}
	d := testDispatcher(Deps{Search: search, Translate: &fakeTranslator{}})
	sess := session.New()

	p := d.Submit(context.Background(), sess, SolveDoubt{Query: "আলো কী?", Format: FormatShort})
	if p.Err != nil {
		t.Fatalf("translator outage broke the question: %v", p.Err)
	}
}
