package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"erik/internal/adapter/extract"
	"erik/internal/adapter/mathexpr"
	"erik/internal/adapter/plotimg"
	"erik/internal/logging"
	"erik/internal/session"
	"erik/internal/textkit"

	"go.uber.org/zap"
)

// invalid builds a validation-failure payload. Validation happens before any
// adapter work and before logging, so the log stays untouched.
func invalid(f Feature, msg string) Payload {
	return Payload{Feature: f, Title: f.String(), Body: msg, Err: errors.New(msg)}
}

func (d *Dispatcher) wordLimit(f Format) int {
	if f == FormatShort {
		return d.cfg.Output.ShortWords
	}
	return d.cfg.Output.LongWords
}

// normalizeInput translates Bangla input to English when a translator is
// wired. Translation is a best-effort normalization pass: on failure the
// original text is used and the failure only goes to the debug log.
func (d *Dispatcher) normalizeInput(ctx context.Context, text string) string {
	if d.deps.Translate == nil || !textkit.IsBangla(text) {
		return text
	}
	tctx, cancel := d.adapterCtx(ctx)
	defer cancel()
	translated, err := d.deps.Translate.Translate(tctx, text, "en")
	if err != nil {
		logging.L().Debug("translation pass skipped", zap.Error(err))
		return text
	}
	return translated
}

func (d *Dispatcher) solveDoubt(ctx context.Context, sess *session.Session, r SolveDoubt) Payload {
	query := strings.TrimSpace(r.Query)
	if query == "" {
		return invalid(FeatureDoubt, "Enter a question first.")
	}
	normalized := d.normalizeInput(ctx, query)

	var answer, plotExpr string
	if textkit.LooksLikeMath(normalized) {
		mctx, cancel := d.adapterCtx(ctx)
		defer cancel()
		res, err := d.deps.Math.Solve(mctx, normalized)
		if err != nil {
			return fail(sess, FeatureDoubt, query, fmt.Sprintf("Sorry, could not solve that: %v", err))
		}
		answer = fmt.Sprintf("**%s:** `%s`", titleCase(res.Operation.String()), res.Rendered)
		plotExpr = plottable(res)
	} else {
		sctx, cancel := d.adapterCtx(ctx)
		defer cancel()
		found, err := d.deps.Search.FetchAnswer(sctx, normalized)
		if err != nil {
			return fail(sess, FeatureDoubt, query, failureMessage("search", err))
		}
		answer = textkit.TruncateWords(found.Text, d.wordLimit(r.Format))
		answer += "\n\n(Source: " + found.SourceURL + ")"
	}
	p := ok(sess, FeatureDoubt, query, answer)
	p.Expression = plotExpr
	return p
}

// plottable returns the result as a graphable function when the operation
// produced one; limits and solution sets are points, not functions.
func plottable(res *mathexpr.Result) string {
	switch res.Operation {
	case mathexpr.OpSimplify, mathexpr.OpDifferentiate, mathexpr.OpIntegrate:
		return res.Rendered
	}
	return ""
}

func (d *Dispatcher) analyzeTopic(ctx context.Context, sess *session.Session, r AnalyzeTopic) Payload {
	text := strings.TrimSpace(r.Text)
	if text == "" {
		return invalid(FeatureTopic, "Paste some text to analyze first.")
	}
	normalized := d.normalizeInput(ctx, text)

	summary := textkit.Summary(normalized, d.cfg.Output.SummaryWords)
	keywords := textkit.Keywords(normalized, d.cfg.Output.KeywordMinLen, d.cfg.Output.KeywordMax)

	var sb strings.Builder
	sb.WriteString("**Summary:** " + summary + "\n\n")
	if len(keywords) > 0 {
		sb.WriteString("**Keywords:** " + strings.Join(keywords, ", ") + "\n\n")
		sb.WriteString("**Example questions:**\n")
		for _, kw := range keywords {
			sb.WriteString(fmt.Sprintf("- What is the significance of %q in this topic?\n", kw))
		}
	} else {
		sb.WriteString("No keywords found; the text may be too short.\n")
	}
	return ok(sess, FeatureTopic, textkit.TruncateWords(text, 20), sb.String())
}

func (d *Dispatcher) uploadDocument(ctx context.Context, sess *session.Session, r UploadDocument) Payload {
	kind, err := extract.DetectKind(r.Name)
	if err != nil {
		// Unsupported type: reject before extraction, log nothing.
		return invalid(FeatureUpload, fmt.Sprintf("Unsupported format %q: upload a PDF, DOCX or TXT file.", r.Name))
	}
	if len(r.Data) == 0 {
		return invalid(FeatureUpload, "The uploaded file is empty.")
	}

	ectx, cancel := d.adapterCtx(ctx)
	defer cancel()
	text, err := d.deps.Extract.Extract(ectx, r.Data, kind)
	if err != nil {
		return fail(sess, FeatureUpload, "Uploaded "+r.Name, failureMessage("document extraction", err))
	}

	preview := text
	runes := []rune(text)
	if len(runes) > d.cfg.Output.DocPreviewRune {
		preview = string(runes[:d.cfg.Output.DocPreviewRune]) + textkit.TruncationMarker
	}
	body := fmt.Sprintf("Extracted %d characters from %s.\n\n%s", len(runes), r.Name, preview)
	return ok(sess, FeatureUpload, "Uploaded "+r.Name, body)
}

var quizTemplates = []string{
	"What is the key concept of %s?",
	"Explain %s in two lines.",
	"Create one multiple-choice question about %s.",
	"Give a short answer: why does %s matter?",
	"Write a long answer discussing %s in detail.",
}

func (d *Dispatcher) generateQuiz(sess *session.Session, r GenerateQuiz) Payload {
	if r.Count <= 0 {
		return invalid(FeatureQuiz, "Ask for at least one question.")
	}

	var questions []string
	switch {
	case strings.TrimSpace(r.Notes) != "":
		segments := textkit.SplitSentences(r.Notes)
		n := min(r.Count, len(segments))
		for i := 0; i < n; i++ {
			questions = append(questions, fmt.Sprintf(quizTemplates[i%len(quizTemplates)], "“"+segments[i]+"”"))
		}
	case strings.TrimSpace(r.Topic) != "":
		for i := 0; i < r.Count; i++ {
			questions = append(questions, fmt.Sprintf(quizTemplates[i%len(quizTemplates)], r.Topic))
		}
	default:
		return invalid(FeatureQuiz, "Provide a topic or paste your notes.")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**Quiz (%d questions):**\n", len(questions)))
	for i, q := range questions {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, q))
	}
	input := r.Topic
	if input == "" {
		input = "notes (" + textkit.TruncateWords(r.Notes, 8) + ")"
	}
	return ok(sess, FeatureQuiz, "Quiz on "+input, sb.String())
}

var flashcardTemplates = [][2]string{
	{"Definition of %s?", "%s means …"},
	{"Why does %s matter?", "%s matters because …"},
	{"Give an example of %s.", "One example of %s is …"},
}

func (d *Dispatcher) generateFlashcards(sess *session.Session, r GenerateFlashcards) Payload {
	if r.Count <= 0 {
		return invalid(FeatureFlashcards, "Ask for at least one card.")
	}

	type card struct{ front, back string }
	var cards []card
	switch {
	case strings.TrimSpace(r.Notes) != "":
		segments := textkit.SplitSentences(r.Notes)
		n := min(r.Count, len(segments))
		for i := 0; i < n; i++ {
			cards = append(cards, card{
				front: fmt.Sprintf("Card %d: explain this point in your own words.", i+1),
				back:  segments[i],
			})
		}
	case strings.TrimSpace(r.Topic) != "":
		for i := 0; i < r.Count; i++ {
			tpl := flashcardTemplates[i%len(flashcardTemplates)]
			cards = append(cards, card{
				front: fmt.Sprintf(tpl[0], r.Topic),
				back:  fmt.Sprintf(tpl[1], r.Topic),
			})
		}
	default:
		return invalid(FeatureFlashcards, "Provide a topic or paste your notes.")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**Flashcards (%d):**\n", len(cards)))
	for i, c := range cards {
		sb.WriteString(fmt.Sprintf("%d. **Front:** %s\n   **Back:** %s\n", i+1, c.front, c.back))
	}
	input := r.Topic
	if input == "" {
		input = "notes (" + textkit.TruncateWords(r.Notes, 8) + ")"
	}
	return ok(sess, FeatureFlashcards, "Flashcards on "+input, sb.String())
}

func (d *Dispatcher) solveMath(ctx context.Context, sess *session.Session, r SolveMath) Payload {
	expr := strings.TrimSpace(r.Expression)
	if expr == "" {
		return invalid(FeatureMath, "Enter an expression first.")
	}

	mctx, cancel := d.adapterCtx(ctx)
	defer cancel()
	res, err := d.deps.Math.Solve(mctx, expr)
	if err != nil {
		return fail(sess, FeatureMath, expr, fmt.Sprintf("Sorry, could not solve that: %v", err))
	}
	body := fmt.Sprintf("**%s:**\n\n```\n%s\n```", titleCase(res.Operation.String()), res.Rendered)
	p := ok(sess, FeatureMath, expr, body)
	p.Expression = plottable(res)
	return p
}

func (d *Dispatcher) plotFunction(ctx context.Context, sess *session.Session, r PlotFunction) Payload {
	expr := strings.TrimSpace(r.Expression)
	if expr == "" {
		return invalid(FeaturePlot, "Enter an expression to plot first.")
	}

	dim := plotimg.Dim2D
	if r.ThreeD {
		dim = plotimg.Dim3D
	}
	pctx, cancel := d.adapterCtx(ctx)
	defer cancel()
	fig, err := d.deps.Plot.Render(pctx, expr, dim)
	if err != nil {
		return fail(sess, FeaturePlot, "Plot "+expr, fmt.Sprintf("Could not plot %q: %v", expr, err))
	}

	body := fmt.Sprintf("Plotted %s over %d finite samples.\n\nFigure: %s", expr, fig.FinitePoints, fig.Path)
	p := ok(sess, FeaturePlot, "Plot "+expr, body)
	p.ImagePath = fig.Path
	return p
}

func (d *Dispatcher) researchLookup(ctx context.Context, sess *session.Session, r ResearchLookup) Payload {
	topic := strings.TrimSpace(r.Topic)
	if topic == "" {
		return invalid(FeatureResearch, "Enter a topic first.")
	}

	k := d.cfg.Output.ScholarTopK
	sctx, cancel := d.adapterCtx(ctx)
	defer cancel()
	papers, err := d.deps.Scholar.Lookup(sctx, topic, k)
	if err != nil {
		return fail(sess, FeatureResearch, topic, failureMessage("research", err))
	}
	if len(papers) == 0 {
		return ok(sess, FeatureResearch, topic, "No publications found for "+topic+".")
	}

	var sb strings.Builder
	var abstracts []string
	for i, p := range papers {
		sb.WriteString(fmt.Sprintf("**%d. %s**", i+1, p.Title))
		if p.Year > 0 {
			sb.WriteString(fmt.Sprintf(" (%d)", p.Year))
		}
		sb.WriteString("\n")
		if len(p.Authors) > 0 {
			sb.WriteString("Authors: " + strings.Join(p.Authors, ", ") + "\n")
		}
		if p.URL != "" {
			sb.WriteString("Link: " + p.URL + "\n")
		}
		sb.WriteString("\n")
		if p.Abstract != "" {
			abstracts = append(abstracts, p.Abstract)
		}
	}
	if len(papers) < k {
		sb.WriteString(fmt.Sprintf("_Showing %d of %d requested._\n\n", len(papers), k))
	}
	if len(abstracts) > 0 {
		sb.WriteString("**Abstracts:** ")
		sb.WriteString(textkit.TruncateWords(strings.Join(abstracts, " "), d.wordLimit(r.Format)))
		sb.WriteString("\n")
	}
	return ok(sess, FeatureResearch, topic, sb.String())
}

// titleCase uppercases the first letter of a label.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
