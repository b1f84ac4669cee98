package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/budgetchat/internal/config"
	"github.com/theirongolddev/budgetchat/internal/conversation"
	"github.com/theirongolddev/budgetchat/internal/estimate"
	"github.com/theirongolddev/budgetchat/internal/store"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagSeed      string
	flagTimeout   time.Duration
	flagNoArchive bool
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:          "budgetchat",
	Short:        "Chat your way to a construction budget",
	Long:         "Describe the work, get priced line items back, and watch the budget total update as you talk.",
	RunE:         runTUI,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagSeed, "seed", "s", "", `Starting budget: "default", "empty" or a YAML file`)
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "Estimation timeout (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagNoArchive, "no-archive", false, "Do not record turns in the archive")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagSeed != "" {
		cfg.General.Seed = flagSeed
	}
	if flagTimeout > 0 {
		cfg.Estimator.TimeoutSec = int((flagTimeout + time.Second - 1) / time.Second)
	}
	if flagNoArchive {
		cfg.General.Archive = false
	}
	return cfg, nil
}

func logLevel(base slog.Level) slog.Level {
	if flagVerbose {
		return slog.LevelDebug
	}
	return base
}

// stderrLogger is used by the line-oriented commands.
func stderrLogger(base slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(base)}))
}

// fileLogger appends to the log file while the terminal belongs to the TUI.
func fileLogger() (*slog.Logger, func(), error) {
	path := config.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating log dir: %w", err)
	}
	//nolint:gosec // log path is derived from the user's cache dir
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel(slog.LevelInfo)}))
	return logger, func() { _ = f.Close() }, nil
}

// plainIfPiped drops colors when stdout is not a terminal.
func plainIfPiped() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// newEstimator builds the reply collaborator selected in cfg.
func newEstimator(cfg config.Config) (estimate.Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Estimator.Kind {
	case config.EstimatorHTTP:
		return estimate.NewHTTP(cfg.Estimator.Endpoint,
			estimate.WithToken(config.GetAPIKey(cfg)),
			estimate.WithRequestTimeout(cfg.Timeout()),
			estimate.WithRequestsPerMinute(cfg.Estimator.RequestsPerMinute),
		)
	case config.EstimatorOpenAI:
		return estimate.NewOpenAI(config.GetAPIKey(cfg), cfg.Estimator.Endpoint, cfg.Estimator.Model), nil
	default:
		return estimate.NewCanned(), nil
	}
}

// session is a running conversation and the resources it holds.
type session struct {
	cfg     config.Config
	conv    *conversation.Controller
	archive *store.Archive
	logger  *slog.Logger
}

// startSession is the shared setup path of every command that talks to an
// estimator. A missing archive is logged, never fatal.
func startSession(ctx context.Context, logger *slog.Logger) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	est, err := newEstimator(cfg)
	if err != nil {
		return nil, err
	}
	doc, err := config.LoadSeed(cfg.General.Seed)
	if err != nil {
		return nil, err
	}

	opts := []conversation.Option{
		conversation.WithDocument(doc),
		conversation.WithTimeout(cfg.Timeout()),
		conversation.WithLogger(logger),
		conversation.WithFailureNotice(cfg.Assistant.FailureNotice),
	}
	if cfg.Assistant.Greeting != "" {
		opts = append(opts, conversation.WithGreeting(cfg.Assistant.Greeting))
	}

	s := &session{cfg: cfg, logger: logger}
	if cfg.General.Archive {
		archive, err := store.Open(ctx, config.ArchivePath(), cfg.Estimator.Kind)
		if err != nil {
			logger.Warn("turn archive unavailable", "path", config.ArchivePath(), "err", err)
		} else {
			s.archive = archive
			opts = append(opts, conversation.WithRecorder(archive))
			logger.Debug("archiving turns", "session", archive.SessionID())
		}
	}

	s.conv = conversation.New(est, opts...)
	logger.Debug("session started", "estimator", cfg.Estimator.Kind, "seed", cfg.General.Seed, "sections", doc.Len())
	return s, nil
}

// Close stops the controller before the archive it records into.
func (s *session) Close() {
	_ = s.conv.Close()
	if s.archive != nil {
		if err := s.archive.Close(); err != nil {
			s.logger.Warn("closing archive", "err", err)
		}
	}
}
