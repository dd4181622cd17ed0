package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tracking-reconciliation-service/cmd/reconciler/config"
	"tracking-reconciliation-service/pkg/errors"
	"tracking-reconciliation-service/pkg/logger"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// app carries the state shared by the commands of one root command.
type app struct {
	v       *viper.Viper
	fs      afero.Fs
	cfgFile string
	verbose bool
	log     logger.Logger
}

// NewRootCommand builds the command tree over its own viper instance.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{v: viper.New(), fs: afero.NewOsFs()})
}

func newRootCommand(a *app) *cobra.Command {
	config.SetDefaults(a.v)

	root := &cobra.Command{
		Use:   "reconciler",
		Short: "Tracking-code reconciliation tool",
		Long: `Reconciler matches platform transaction records against a payment
provider's export by the tracking codes embedded in their text fields, and
writes a five-table report of matches and non-matches.

Examples:
  reconciler reconcile --platform platform.xlsx --provider sep.csv --gateway sep
  reconciler reconcile -p platform.csv -r provider.json --mode fuzzy --threshold 80 -o report.json
  reconciler patterns "paid ref 123456789"`,
		Version:           versionString(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initialize,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (optional)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().String("log-level", string(logger.InfoLevel), "log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", string(logger.TextFormat), "log format: text, json")

	a.v.BindPFlag("log.level", root.PersistentFlags().Lookup("log-level"))
	a.v.BindPFlag("log.format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(newReconcileCommand(a), newPatternsCommand(a))
	return root
}

// initialize reads the config file and environment, then configures the
// process logger.
func (a *app) initialize(cmd *cobra.Command, args []string) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "config", a.cfgFile, err).
				WithSuggestion("check the config file path and its YAML, JSON or TOML syntax")
		}
	}
	config.BindEnv(a.v)

	settings, err := config.Load(a.v)
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(settings.LoggerConfig(a.verbose))
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "log", settings.Log, err)
	}
	logger.SetGlobalLogger(log)
	a.log = log.WithComponent("cli")

	if a.cfgFile != "" {
		a.log.WithField("config_file", a.v.ConfigFileUsed()).Debug("Using config file")
	}
	return nil
}

// bindFlags binds command flags to setting keys. Binding happens when the
// command runs since several commands share keys.
func (a *app) bindFlags(cmd *cobra.Command, bindings map[string]string) error {
	for key, name := range bindings {
		if err := a.v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return errors.InternalError("bind flag --"+name, err)
		}
	}
	return nil
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return run(ctx, NewRootCommand(), os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, root *cobra.Command, args []string, stdout, stderr io.Writer) int {
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	verbose, _ := root.PersistentFlags().GetBool("verbose")
	return NewCLIErrorHandler(stderr, verbose).HandleError(err)
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

func versionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
