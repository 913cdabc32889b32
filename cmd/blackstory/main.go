package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/GuilermoT/BlackStory2/internal/config"
	"github.com/GuilermoT/BlackStory2/internal/core"
	"github.com/GuilermoT/BlackStory2/internal/display"
	"github.com/GuilermoT/BlackStory2/internal/export"
	"github.com/GuilermoT/BlackStory2/internal/game"
	"github.com/GuilermoT/BlackStory2/internal/storage"
	"github.com/GuilermoT/BlackStory2/web/handlers"
)

var (
	dbPath    string
	cfgPath   string
	debugFlag bool
	appConfig *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "blackstory",
	Short: "Black Stories game with AI models competing",
	Long: `blackstory orchestrates a Black Story mystery game between two AI models:
one invents a mystery and its secret solution, the other interrogates it
with yes/no questions and commits to a final resolution.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		slog.SetDefault(newLogger(os.Stderr, false, debugFlag))

		var err error
		if cfgPath != "" {
			appConfig, err = config.LoadFrom(cfgPath)
		} else {
			appConfig, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Archive database path (default: ~/.blackstory/blackstory.db)")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default: ~/.blackstory/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// newLogger builds the process logger. Interactive commands log text;
// serve logs JSON for machine consumption.
func newLogger(w io.Writer, jsonFormat, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if jsonFormat {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func getStore() (storage.Store, error) {
	path := dbPath
	if path == "" {
		path = storage.DefaultDBPath()
	}

	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	if err := store.Initialize(); err != nil {
		return nil, err
	}
	return store, nil
}

// ============================================================================
// PLAY COMMAND
// ============================================================================

var (
	model1Flag       string
	model2Flag       string
	provider1Flag    string
	provider2Flag    string
	maxQuestionsFlag int
	outputDirFlag    string
	formatFlag       string
	noPauseFlag      bool
	thresholdFlag    int
	showSolutionFlag bool
	noArchiveFlag    bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Run a new game",
	Long: `Run a full Black Story game between two models.

Examples:
  blackstory play -1 gemini -2 gemini --model1 gemini-2.0-flash-exp
  blackstory play -1 gemini -2 ollama --model2 llama3 --max-questions 15
  blackstory play -1 mock -2 mock --no-pause`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVarP(&provider1Flag, "provider1", "1", "", "Backend of model 1, the Story Master (gemini|ollama|mock)")
	playCmd.Flags().StringVarP(&provider2Flag, "provider2", "2", "", "Backend of model 2, the Detective (gemini|ollama|mock)")
	playCmd.Flags().StringVar(&model1Flag, "model1", "", "Model identifier for the Story Master (default: backend default)")
	playCmd.Flags().StringVar(&model2Flag, "model2", "", "Model identifier for the Detective (default: backend default)")
	playCmd.Flags().IntVarP(&maxQuestionsFlag, "max-questions", "q", 0, "Maximum number of questions allowed")
	playCmd.Flags().StringVarP(&outputDirFlag, "output-dir", "o", "", "Folder where conversations are saved")
	playCmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Saved conversation format (markdown|json|text|pdf)")
	playCmd.Flags().BoolVar(&noPauseFlag, "no-pause", false, "Disable the pause between turns")
	playCmd.Flags().IntVar(&thresholdFlag, "threshold", 0, "Questions left at which resolution is forced")
	playCmd.Flags().BoolVar(&showSolutionFlag, "show-solution", false, "Print the secret solution (spectator view)")
	playCmd.Flags().BoolVar(&noArchiveFlag, "no-archive", false, "Skip archiving the game to the local database")
}

func runPlay(cmd *cobra.Command, args []string) error {
	if provider1Flag == "" || provider2Flag == "" {
		return fmt.Errorf("both --provider1 and --provider2 are required")
	}

	storyMaster, err := appConfig.CreateProvider(provider1Flag, model1Flag)
	if err != nil {
		return fmt.Errorf("model 1: %w", err)
	}
	detective, err := appConfig.CreateProvider(provider2Flag, model2Flag)
	if err != nil {
		return fmt.Errorf("model 2: %w", err)
	}

	formatTag := formatFlag
	if formatTag == "" {
		formatTag = appConfig.Defaults.Format
	}
	format, err := export.ParseFormat(formatTag)
	if err != nil {
		return err
	}

	maxQuestions := maxQuestionsFlag
	if maxQuestions <= 0 {
		maxQuestions = appConfig.Defaults.MaxQuestions
	}
	outputDir := outputDirFlag
	if outputDir == "" {
		outputDir = appConfig.Defaults.OutputDir
	}
	threshold := thresholdFlag
	if threshold <= 0 {
		threshold = appConfig.Defaults.ForceSolveThreshold
	}

	orch := game.New(storyMaster, detective, game.Options{
		MaxQuestions:        maxQuestions,
		NoPause:             noPauseFlag,
		OutputDir:           outputDir,
		Format:              format,
		ForceSolveThreshold: threshold,
	})

	term := display.NewTerminalObserver()
	term.ShowSolution = showSolutionFlag
	orch.Subscribe(term)

	if !noArchiveFlag {
		store, err := getStore()
		if err != nil {
			slog.Warn("Archive unavailable, continuing without it", "error", err)
		} else {
			defer store.Close()
			orch.SetArchive(store)
		}
	}

	// Ctrl-C asks the loop to wind down cleanly; a second one kills.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n⚠️ Ending the game...")
		orch.ForceEnd()
		<-sigCh
		os.Exit(1)
	}()

	if !noPauseFlag {
		fmt.Println("Press ENTER to advance. Commands: hint [text], warn <text>, end")
		go moderatorInput(orch)
	}

	orch.Play(cmd.Context())

	conv := orch.Conversation()
	fmt.Printf("\nGame %s finished: %s (%d/%d questions)\n",
		conv.ID, conv.Result, conv.QuestionsUsed, conv.MaxQuestions)
	return nil
}

// moderatorInput drives the continuation gate and moderator interventions
// from stdin while the game runs on the main goroutine.
func moderatorInput(orch *game.Orchestrator) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			orch.Continue()
		case line == "end":
			orch.ForceEnd()
		case line == "hint":
			orch.Moderate("hint", nil)
			orch.Continue()
		case strings.HasPrefix(line, "hint "):
			orch.Moderate("hint", map[string]string{"text": strings.TrimPrefix(line, "hint ")})
			orch.Continue()
		case strings.HasPrefix(line, "warn "):
			orch.Moderate("warn", map[string]string{"text": strings.TrimPrefix(line, "warn ")})
			orch.Continue()
		default:
			fmt.Println("Commands: ENTER to continue, hint [text], warn <text>, end")
		}
	}
}

// ============================================================================
// LIST / SHOW / EXPORT COMMANDS
// ============================================================================

var listLimitFlag int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived games",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStore()
		if err != nil {
			return err
		}
		defer store.Close()

		games, err := store.ListGames(listLimitFlag, 0)
		if err != nil {
			return err
		}
		if len(games) == 0 {
			fmt.Println("No archived games.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTORY MASTER\tDETECTIVE\tRESULT\tQUESTIONS\tDATE")
		for _, g := range games {
			result := string(g.Result)
			if result == "" {
				result = "unfinished"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
				shortID(g.ID), g.Model1, g.Model2, result,
				g.QuestionsUsed, g.MaxQuestions,
				g.StartedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().IntVarP(&listLimitFlag, "limit", "n", 20, "Maximum games to list")
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an archived game transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStore()
		if err != nil {
			return err
		}
		defer store.Close()

		conv, err := findGame(store, args[0])
		if err != nil {
			return err
		}

		return (&export.TextExporter{}).Export(conv, os.Stdout)
	},
}

var (
	exportFormatFlag string
	exportDirFlag    string
)

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export an archived game to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStore()
		if err != nil {
			return err
		}
		defer store.Close()

		conv, err := findGame(store, args[0])
		if err != nil {
			return err
		}

		format, err := export.ParseFormat(exportFormatFlag)
		if err != nil {
			return err
		}

		path, err := export.NewSaver(exportDirFlag).Save(conv, format)
		if err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormatFlag, "format", "f", "markdown", "Export format (markdown|json|text|pdf)")
	exportCmd.Flags().StringVarP(&exportDirFlag, "output-dir", "o", ".", "Output directory")
}

// findGame resolves a possibly-shortened game ID against the archive.
func findGame(store storage.Store, id string) (*core.Conversation, error) {
	full, err := store.GetConversation(id)
	if err != nil {
		return nil, err
	}
	if full != nil {
		return full, nil
	}

	games, err := store.ListGames(500, 0)
	if err != nil {
		return nil, err
	}
	for _, g := range games {
		if strings.HasPrefix(g.ID, id) {
			return store.GetConversation(g.ID)
		}
	}
	return nil, fmt.Errorf("game not found: %s", id)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ============================================================================
// PROVIDERS / SERVE / CONFIG COMMANDS
// ============================================================================

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured backends",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDEFAULT MODEL\tENABLED")
		for name, p := range appConfig.Providers {
			fmt.Fprintf(w, "%s\t%s\t%v\n", name, p.DefaultModel, p.Enabled)
		}
		return w.Flush()
	},
}

var servePortFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the game archive as a JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		slog.SetDefault(newLogger(os.Stderr, true, debugFlag))

		store, err := getStore()
		if err != nil {
			return err
		}
		defer store.Close()

		port := servePortFlag
		if port == 0 {
			port = appConfig.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: handlers.New(store).Routes(),
		}

		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				slog.Error("Failed to shut down server", "error", err)
			}
		}()

		slog.Info("Serving game archive", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePortFlag, "port", "p", 0, "Server port")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print an example configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(config.GenerateExample())
	},
}
