// ERIK is a terminal study assistant: ask questions, analyze topics, build
// quizzes and flashcards, solve math symbolically, plot functions, and look
// up publications. Run without arguments for the interactive interface.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"erik/internal/adapter/extract"
	"erik/internal/adapter/mathexpr"
	"erik/internal/adapter/plotimg"
	"erik/internal/adapter/scholar"
	"erik/internal/adapter/translate"
	"erik/internal/adapter/websearch"
	"erik/internal/config"
	"erik/internal/dispatch"
	"erik/internal/logging"
	"erik/internal/session"

	"github.com/spf13/cobra"
)

const version = "3.0.0"

var (
	verbose   bool
	workspace string
	longForm  bool
	itemCount int
	threeD    bool
)

var rootCmd = &cobra.Command{
	Use:   "erik",
	Short: "ERIK - Easy Resources for Intelligent Knowledge",
	Long: `ERIK is a study assistant that runs in your terminal.

It answers study questions from the web, analyzes pasted text, extracts
uploaded documents, generates quizzes and flashcards, solves math
symbolically, plots functions, and looks up scholarly publications.

Run without arguments to start the interactive interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// The TUI owns the terminal; its logs go to a file.
		if cmd.CalledAs() == "erik" {
			return logging.InitFile(filepath.Join(resolveWorkspace(), cfg.Logging.Path), verbose)
		}
		return logging.InitConsole(verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runInteractive(cfg, buildDispatcher(cfg))
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a study question",
	Long: `Answers a free-text question. Math-looking questions go to the symbolic
solver; everything else is answered from the web.

Example:
  erik ask "why is the sky blue"
  erik ask --long "how does photosynthesis work"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return oneShot(dispatch.SolveDoubt{Query: strings.Join(args, " "), Format: format()})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Summarize a text file and extract keywords",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return oneShot(dispatch.AnalyzeTopic{Text: string(data)})
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Extract text from a PDF, DOCX or TXT file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return oneShot(dispatch.UploadDocument{Name: filepath.Base(args[0]), Data: data})
	},
}

var quizCmd = &cobra.Command{
	Use:   "quiz [topic]",
	Short: "Generate quiz questions for a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return oneShot(dispatch.GenerateQuiz{Topic: strings.Join(args, " "), Count: itemCount})
	},
}

var cardsCmd = &cobra.Command{
	Use:   "cards [topic]",
	Short: "Generate flashcards for a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return oneShot(dispatch.GenerateFlashcards{Topic: strings.Join(args, " "), Count: itemCount})
	},
}

var mathCmd = &cobra.Command{
	Use:   "math [expression]",
	Short: "Solve a math expression symbolically",
	Long: `Runs one symbolic operation over an expression: simplify, differentiate,
integrate, take a limit, or solve an equation.

Examples:
  erik math "integrate(x**2, x)"
  erik math "diff(sin(x), x)"
  erik math "2*x + 3 = 9"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return oneShot(dispatch.SolveMath{Expression: strings.Join(args, " ")})
	},
}

var plotCmd = &cobra.Command{
	Use:   "plot [expression]",
	Short: "Plot a function to a PNG file",
	Long: `Plots a single-variable expression as a line graph, or a two-variable
expression as a heat map with --3d.

Examples:
  erik plot "sin(x) * x"
  erik plot --3d "x**2 + y**2"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return oneShot(dispatch.PlotFunction{Expression: strings.Join(args, " "), ThreeD: threeD})
	},
}

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Look up scholarly publications on a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return oneShot(dispatch.ResearchLookup{Topic: strings.Join(args, " "), Format: format()})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ERIK version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("erik %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")

	askCmd.Flags().BoolVar(&longForm, "long", false, "Long-form answer")
	researchCmd.Flags().BoolVar(&longForm, "long", false, "Long-form abstracts")
	quizCmd.Flags().IntVarP(&itemCount, "count", "n", 5, "Number of questions")
	cardsCmd.Flags().IntVarP(&itemCount, "count", "n", 5, "Number of cards")
	plotCmd.Flags().BoolVar(&threeD, "3d", false, "Render a two-variable surface")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(cardsCmd)
	rootCmd.AddCommand(mathCmd)
	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveWorkspace() string {
	if workspace != "" {
		return workspace
	}
	cwd, _ := os.Getwd()
	return cwd
}

func loadConfig() (*config.Config, error) {
	return config.Load(resolveWorkspace())
}

func format() dispatch.Format {
	if longForm {
		return dispatch.FormatLong
	}
	return dispatch.FormatShort
}

// buildDispatcher wires the real adapters behind the dispatcher.
func buildDispatcher(cfg *config.Config) *dispatch.Dispatcher {
	return dispatch.New(cfg, dispatch.Deps{
		Search:    websearch.New(cfg.Services.Search.BaseURL),
		Scholar:   scholar.New(cfg.Services.Scholar.BaseURL),
		Translate: translate.New(cfg.Services.Translate.BaseURL),
		Math:      mathexpr.NewSolver(),
		Plot:      plotimg.New(filepath.Join(resolveWorkspace(), ".erik", "plots")),
		Extract:   extract.New(),
	})
}

// oneShot runs a single request against a fresh session and prints the
// result. The process exit code reflects the payload error.
func oneShot(req dispatch.Request) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d := buildDispatcher(cfg)
	sess := session.New()

	payload := d.Submit(context.Background(), sess, req)
	if payload.Err != nil {
		return payload.Err
	}

	fmt.Printf("%s\n\n%s\n", payload.Title, payload.Body)
	if payload.ImagePath != "" {
		fmt.Printf("\nFigure saved to %s\n", payload.ImagePath)
	}
	return nil
}
