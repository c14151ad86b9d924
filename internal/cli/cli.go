package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pfrederiksen/wahlumfragen/internal/config"
	"github.com/pfrederiksen/wahlumfragen/internal/dawum"
	"github.com/pfrederiksen/wahlumfragen/internal/logger"
	"github.com/pfrederiksen/wahlumfragen/internal/notifier"
	"github.com/pfrederiksen/wahlumfragen/internal/storage"
	"github.com/pfrederiksen/wahlumfragen/internal/wahlrecht"
	"github.com/pfrederiksen/wahlumfragen/internal/watcher"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitNewSurvey = 2
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X github.com/pfrederiksen/wahlumfragen/internal/cli.Version=1.0.0"
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// ExitCodeError carries a non-zero exit code that is not a failure, such as
// check reporting that a survey was sent.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode maps an error returned by the root command to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitError
}

// globalOptions holds the flags shared by every command
type globalOptions struct {
	configPath string
	source     string
	dataDir    string
	dryRun     bool
	verbose    bool
}

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "wahlumfragen",
		Short: "Post the latest German federal election poll to Discord",
		Long: `wahlumfragen watches the DAWUM poll database (or wahlrecht.de) and posts
the newest Bundestag survey to a Discord webhook whenever the data changes.
Telegram and Twitter can be configured as additional channels.

Examples:
  wahlumfragen watch -c config.yaml
  wahlumfragen check --dry-run
  wahlumfragen latest --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to YAML config file")
	flags.StringVar(&opts.source, "source", config.SourceDawum, "Data source: dawum or wahlrecht")
	flags.StringVar(&opts.dataDir, "data-dir", config.DefaultDataDir, "Data directory for state (empty keeps state in memory)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print messages instead of sending them")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(
		newWatchCmd(opts),
		newCheckCmd(opts),
		newLatestCmd(opts),
		newSurveysCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

// Execute runs the CLI
func Execute() {
	cmd := NewRootCmd()
	err := cmd.Execute()

	var exitErr *ExitCodeError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(ExitCode(err))
}

// loadConfig builds the effective configuration: defaults, optional file,
// environment, then explicitly set flags.
func loadConfig(cmd *cobra.Command, opts *globalOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source = opts.source
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = opts.dataDir
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, nil
}

// setupLogger points the default logger at stderr so stdout stays parseable
func setupLogger(w io.Writer, cfg *config.Config) *logger.Logger {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logger.LevelInfo
	}
	log := logger.New(level, w)
	logger.SetDefault(log)
	return log
}

func newSource(cfg *config.Config) (watcher.Source, error) {
	switch cfg.Source {
	case config.SourceDawum:
		var opts []dawum.Option
		if cfg.SourceURL != "" {
			opts = append(opts, dawum.WithBaseURL(cfg.SourceURL))
		}
		return dawum.New(opts...), nil
	case config.SourceWahlrecht:
		if cfg.SourceURL != "" {
			return wahlrecht.NewWithURL(cfg.SourceURL), nil
		}
		return wahlrecht.New(), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

// newNotifier builds every configured channel. Dry runs print the Discord
// payload to out instead.
func newNotifier(cfg *config.Config, dryRun bool, out io.Writer) (notifier.Notifier, error) {
	if dryRun {
		return notifier.NewDryRunNotifier(out, cfg.Discord.MessageOptions), nil
	}

	var notifiers []notifier.Notifier
	if cfg.Discord.WebhookURL != "" {
		n, err := notifier.NewDiscordNotifier(cfg.Discord.WebhookURL, cfg.Discord.MessageOptions)
		if err != nil {
			return nil, fmt.Errorf("creating discord notifier: %w", err)
		}
		notifiers = append(notifiers, n)
	}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		n, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			return nil, fmt.Errorf("creating telegram notifier: %w", err)
		}
		notifiers = append(notifiers, n)
	}
	if cfg.Twitter.Complete() {
		n, err := notifier.NewTwitterNotifier(cfg.Twitter)
		if err != nil {
			return nil, fmt.Errorf("creating twitter notifier: %w", err)
		}
		notifiers = append(notifiers, n)
	}

	switch len(notifiers) {
	case 0:
		return nil, config.ErrNoNotifier
	case 1:
		return notifiers[0], nil
	default:
		return notifier.NewMulti(cfg.NotifySpacing.Duration(), notifiers...), nil
	}
}

// newStore opens the configured state backend: a GitHub Gist, the data
// directory, or memory when neither is set. Dry runs never write state.
func newStore(cfg *config.Config, dryRun bool) (watcher.Store, error) {
	if dryRun {
		return storage.NewMemory(), nil
	}
	if cfg.StateGist.Enabled() {
		store, err := storage.NewGist(cfg.StateGist.ID, cfg.StateGist.Token)
		if err != nil {
			return nil, fmt.Errorf("initializing gist storage: %w", err)
		}
		return store, nil
	}
	if cfg.DataDir == "" {
		return storage.NewMemory(), nil
	}
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

// newWatcher assembles a watcher from the effective configuration.
// Dry-run previews are written to preview.
func newWatcher(cmd *cobra.Command, opts *globalOptions, resend bool, preview io.Writer) (*watcher.Watcher, *config.Config, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, nil, err
	}
	if resend {
		cfg.ResendUnchanged = true
	}
	if err := cfg.Validate(!opts.dryRun); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	log := setupLogger(cmd.ErrOrStderr(), cfg)

	query, err := cfg.SurveyQuery()
	if err != nil {
		return nil, nil, err
	}
	src, err := newSource(cfg)
	if err != nil {
		return nil, nil, err
	}
	n, err := newNotifier(cfg, opts.dryRun, preview)
	if err != nil {
		return nil, nil, err
	}
	store, err := newStore(cfg, opts.dryRun)
	if err != nil {
		return nil, nil, err
	}

	w := watcher.New(src, query, n, store, watcher.Options{
		Interval:        cfg.PollInterval.Duration(),
		ResendUnchanged: cfg.ResendUnchanged,
		Logger:          log,
	})
	return w, cfg, nil
}
