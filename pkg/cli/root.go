// Package cli wires the veriqa commands. Every command loads configuration
// from the environment (optionally seeded from a YAML file), builds the
// process logger, and tears both down when the command returns. Commands
// that touch the database additionally open one connector session for
// their lifetime.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veriqa-inc/veriqa-engine/pkg/config"
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	_ "github.com/veriqa-inc/veriqa-engine/pkg/connector/all"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
	"github.com/veriqa-inc/veriqa-engine/pkg/logging"
	"github.com/veriqa-inc/veriqa-engine/pkg/metadata"
)

// Exit codes. A run that completes with failing checks still exits zero;
// the report is the verdict, not the process status.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// errUsage marks errors caused by how the command was invoked rather than
// by anything that happened against the database.
var errUsage = errors.New("usage error")

// Execute runs the CLI and returns the process exit code. Error text is
// sanitized because driver errors can echo connection strings.
func Execute(version string) int {
	root := newRootCmd(version)
	err := root.Execute()
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", logging.SanitizeError(err))
	if errors.Is(err, errUsage) {
		return ExitUsage
	}
	return ExitError
}

func newRootCmd(version string) *cobra.Command {
	app := &app{version: version}

	root := &cobra.Command{
		Use:   "veriqa",
		Short: "Database profiling and data-quality checks",
		Long: `veriqa inspects a relational database (PostgreSQL, MySQL, SQL Server, or
Oracle), profiles its tables and columns, and runs data-quality checks
against them. The connection comes from VERIQA_DB_* environment variables,
optionally seeded from a YAML config file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
		},
	}
	root.PersistentFlags().StringVar(&app.configFile, "config", "", "config file (default config.yaml if present)")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	root.AddCommand(
		newListObjectsCmd(app),
		newDescribeTableCmd(app),
		newRunChecksCmd(app),
		newChecksCmd(app),
		newMCPCmd(app),
	)
	return root
}

// app carries the per-invocation state shared by the commands. setup is
// idempotent; connect is called only by commands that need a session.
type app struct {
	version    string
	configFile string

	cfg      *config.Config
	logger   *zap.Logger
	conn     connector.Connector
	resolver *metadata.Resolver
}

func (a *app) setup() error {
	if a.cfg != nil {
		return nil
	}
	var (
		cfg *config.Config
		err error
	)
	if a.configFile != "" {
		cfg, err = config.LoadFile(a.configFile, a.version)
	} else {
		cfg, err = config.Load(a.version)
	}
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// connect builds the backend session and its resolver. The kind string
// from config is validated here so a typo fails before any dial.
func (a *app) connect(ctx context.Context) error {
	kind, err := dialect.ParseKind(a.cfg.Source.Kind)
	if err != nil {
		return err
	}
	conn, err := connector.New(kind, a.profile(kind), a.logger)
	if err != nil {
		return err
	}
	if err := conn.Connect(ctx); err != nil {
		return err
	}
	a.conn = conn
	a.resolver = metadata.NewResolver(conn, a.logger)
	return nil
}

func (a *app) profile(kind dialect.Kind) connector.Profile {
	src := a.cfg.Source
	return connector.Profile{
		Host:           src.ResolvedHost(),
		Port:           src.Port,
		User:           src.User,
		Password:       src.Password,
		Database:       src.Database,
		SSLMode:        src.SSLMode,
		MaxOpenConns:   src.MaxOpenConns,
		ConnectTimeout: src.ConnectTimeout(),
	}
}

// schema returns the explicit schema choice, falling back to the
// backend's default for the configured profile.
func (a *app) schema(flag string) string {
	if flag != "" {
		return flag
	}
	if a.cfg.Source.Schema != "" {
		return a.cfg.Source.Schema
	}
	kind, err := dialect.ParseKind(a.cfg.Source.Kind)
	if err != nil {
		return ""
	}
	return a.profile(kind).DefaultSchema(kind)
}

func (a *app) shutdown() {
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
