package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veriqa-inc/veriqa-engine/pkg/mcp"
)

func newMCPCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the profiling tools over MCP on stdin/stdout",
		Long: `Connects to the configured database and serves the list_objects,
describe_table, and run_checks tools over the Model Context Protocol on
stdin/stdout. All tools are read only. Logs go to stderr so they never
interleave with the protocol stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(); err != nil {
				return err
			}
			defer app.shutdown()

			ctx := cmd.Context()
			if err := app.connect(ctx); err != nil {
				return err
			}

			srv := mcp.NewServer("veriqa", app.version, app.logger)
			mcp.RegisterTools(srv.MCP(), &mcp.ToolDeps{
				Conn:     app.conn,
				Resolver: app.resolver,
				Executor: newExecutor(app),
				Schema:   app.schema(""),
				Logger:   app.logger,
			})

			app.logger.Info("serving MCP on stdio",
				zap.String("backend", app.cfg.Source.Kind),
				zap.String("schema", app.schema("")))
			return srv.ServeStdio()
		},
	}
}
