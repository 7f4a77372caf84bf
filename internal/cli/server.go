package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/drutigliano19/spark-history-mcp/internal/server"
)

func newServerCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the MCP server",
	}
	cmd.AddCommand(newServerStartCommand(o))
	return cmd
}

func newServerStartCommand(o *options) *cobra.Command {
	var (
		port      int
		address   string
		transport string
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Serve the Spark History tools and prompts over MCP",
		Long: `Serve the Spark History tools and prompts over MCP. Without --transport the
first transport of mcp.transports is used. Logs go to stderr as JSON, since
stdout carries the stdio transport.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd.ErrOrStderr(), o.v.GetBool("debug") || o.cfg.Mcp.Debug, o.v.GetBool("quiet"), true)

			if cmd.Flags().Changed("port") {
				o.cfg.Mcp.Port = port
			}
			if cmd.Flags().Changed("address") {
				o.cfg.Mcp.Address = address
			}
			if transport == "" && len(o.cfg.Mcp.Transports) > 0 {
				transport = o.cfg.Mcp.Transports[0]
			}
			if err := o.cfg.Validate(); err != nil {
				return err
			}

			clients, err := server.Clients(o.cfg)
			if err != nil {
				return err
			}
			srv, err := server.New(o.cfg, clients, o.version)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, transport)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port of the HTTP transports, mcp.port by default")
	cmd.Flags().StringVar(&address, "address", "", "Listen address of the HTTP transports, mcp.address by default")
	cmd.Flags().StringVarP(&transport, "transport", "t", "", "stdio, sse or streamable-http")
	return cmd
}
