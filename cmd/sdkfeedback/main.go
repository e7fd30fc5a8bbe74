// Package main provides the sdkfeedback CLI for filing bug reports about the
// cloud SDK command-line tools.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"sdkfeedback/internal/browser"
	"sdkfeedback/internal/config"
	"sdkfeedback/internal/console"
	"sdkfeedback/internal/feedback"
	"sdkfeedback/internal/format"
	"sdkfeedback/internal/logger"
	"sdkfeedback/internal/model"
	"sdkfeedback/internal/parser"
	"sdkfeedback/internal/selector"
	"sdkfeedback/internal/store"
	"sdkfeedback/internal/sysinfo"
)

var version = "dev"

// app carries the state shared by the commands of one run.
type app struct {
	v          *viper.Viper
	cfg        config.Config
	configPath string
	// self is this run's own invocation log.
	self string

	opener      browser.Opener
	interactive func(in io.Reader, out io.Writer) bool
	now         func() time.Time
}

func newApp() *app {
	return &app{
		v:           config.New(),
		opener:      browser.System{},
		interactive: console.IsInteractive,
		now:         time.Now,
	}
}

func main() {
	err := newRootCmd(newApp()).Execute()
	_ = logger.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sdkfeedback: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "sdkfeedback",
		Short:             "File bug reports about cloud SDK command invocations",
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return logger.Close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "read settings from this YAML file (default: config.yaml in $SDKFEEDBACK_CONFIG)")
	flags.String("logs-dir", "", "override the invocation logs directory (env: SDKFEEDBACK_LOGS_DIR)")
	flags.String("verbosity", "warning", "console log verbosity: "+strings.Join(config.Verbosities, ", "))

	rootCmd.AddCommand(a.newFeedbackCmd())
	rootCmd.AddCommand(a.newLogsCmd())
	rootCmd.AddCommand(a.newInfoCmd())
	return rootCmd
}

// setup resolves the configuration and starts this run's invocation log.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logsDir := cfg.LogsDir
	if cfg.DisableFileLogging {
		logsDir = ""
	}
	self, err := logger.Init(logger.Config{
		Verbosity: cfg.Verbosity,
		Stderr:    cmd.ErrOrStderr(),
		LogsDir:   logsDir,
		Command:   "sdkfeedback." + cmd.Name(),
		Args:      changedFlags(cmd.Flags()),
		Now:       a.now,
	})
	if err != nil {
		return err
	}
	a.self = self
	logger.Get().Debug("configuration loaded", "config_file", cfg.ConfigFile, "logs_dir", cfg.LogsDir)
	return nil
}

func changedFlags(fs *pflag.FlagSet) []string {
	var args []string
	fs.Visit(func(f *pflag.Flag) {
		args = append(args, "--"+f.Name+"="+f.Value.String())
	})
	return args
}

func (a *app) recent(p model.Parser, limit int) (store.ListResult, error) {
	if limit <= 0 {
		limit = a.cfg.RecentCount
	}
	// a.self is empty only when this run wrote no log, so nothing on disk is
	// ours and SkipNewest stays off.
	return store.ListRecent(p, store.ListOptions{
		Root:   a.cfg.LogsDir,
		Limit:  limit,
		Self:   a.self,
		Logger: logger.Get(),
	})
}

func (a *app) snapshot(anonymize bool) sysinfo.Info {
	info := sysinfo.Collect(a.cfg, config.Properties(a.v))
	if anonymize {
		info = info.Anonymize(sysinfo.DefaultAnonymizer())
	}
	return info
}

func (a *app) newFeedbackCmd() *cobra.Command {
	var (
		quiet   bool
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Open a pre-filled issue for a recent invocation, or print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := cmd.InOrStdin()
			errOut := cmd.ErrOrStderr()
			prompter := console.NewPrompter(in, errOut)
			p := parser.New()

			sel := &selector.Selector{
				Prompter:    prompter,
				Interactive: !quiet && a.interactive(in, errOut),
				Read: func(path string) (*model.Invocation, error) {
					return store.Read(p, path)
				},
				Now:     a.now,
				Color:   console.UseColor(errOut),
				CLIName: a.cfg.CLIName,
			}

			d := &feedback.Driver{
				Tracker:    a.cfg.Tracker(),
				TrackerURL: a.cfg.IssueTrackerURL,
				Traceback:  a.cfg.TracebackOptions(),
				Recent: func() ([]*model.Invocation, error) {
					result, err := a.recent(p, 0)
					return result.Invocations, err
				},
				Snapshot: func() string {
					return a.snapshot(true).String()
				},
				Selector:    sel,
				Prompter:    prompter,
				Opener:      a.opener,
				Out:         cmd.OutOrStdout(),
				Width:       console.Width(errOut),
				CLIName:     a.cfg.CLIName,
				ProductName: a.cfg.ProductName,
				Logger:      logger.Get(),
			}
			return d.Run(feedback.Options{Quiet: quiet, LogFile: logFile})
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&quiet, "quiet", "q", false, "print the report and where to send it instead of opening a browser")
	flags.StringVar(&logFile, "log-file", "", "report on this invocation log instead of choosing a recent one")

	return cmd
}

func (a *app) newLogsCmd() *cobra.Command {
	var (
		limit      int
		formatFlag string
		noHeader   bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List recent invocations in reverse chronological order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := a.recent(parser.New(), limit)
			if err != nil {
				return err
			}

			errs := cmd.ErrOrStderr()
			for _, warn := range result.Warnings {
				fmt.Fprintf(errs, "warning: %v\n", warn) //nolint:errcheck
			}

			return format.WriteInvocations(cmd.OutOrStdout(), result.Invocations, a.now(), !noHeader, formatFlag)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&limit, "limit", 0, "limit number of invocations listed (default: recent_count setting)")
	flags.StringVar(&formatFlag, "format", "table", "output format: table, plain, json, or jsonl")
	flags.BoolVar(&noHeader, "no-header", false, "omit header row for table and plain output")

	return cmd
}

func (a *app) newInfoCmd() *cobra.Command {
	var (
		formatFlag string
		anonymize  bool
	)

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the installation information attached to bug reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return format.WriteInfo(cmd.OutOrStdout(), a.snapshot(anonymize), formatFlag)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&formatFlag, "format", "text", "output format: text or json")
	flags.BoolVar(&anonymize, "anonymize", false, "replace user-specific directories with placeholders")

	return cmd
}
