// Package cli implements the spark-history-mcp command line: browsing
// applications, running analyses and comparisons, managing configuration
// and starting the MCP server.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/config"
	"github.com/drutigliano19/spark-history-mcp/internal/fetch"
)

// options is shared by every command. It is filled by the persistent flags
// in PersistentPreRunE.
type options struct {
	v       *viper.Viper
	version string

	cfg     *config.Config
	format  formatter
	session *Session
	// newCaller is swapped in tests.
	newCaller func(ctx context.Context, o *options) (toolCaller, error)
}

func NewCommand(version string) *cobra.Command {
	return newRootCommand(&options{v: viper.New(), version: version, newCaller: newMCPCaller})
}

func newRootCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spark-history-mcp",
		Short: "Spark History Server MCP server and command line",
		Long: `spark-history-mcp exposes Apache Spark History Server data to AI agents over MCP
and to humans on the command line. It lists applications, jobs and stages,
finds bottlenecks and compares application runs.`,
		Version:       o.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", config.DefaultConfigFile, "Path to the configuration file")
	flags.Bool("debug", false, "Enable debug logging")
	flags.Bool("quiet", false, "Only log errors")
	flags.StringP("server", "s", "", "History Server to query, the default server when empty")
	flags.StringP("format", "o", FormatHuman, "Output format: human, json, yaml or table")
	for _, name := range []string{"config", "debug", "quiet", "server", "format"} {
		_ = o.v.BindPFlag(name, flags.Lookup(name))
	}
	for _, name := range []string{"config", "format"} {
		_ = o.v.BindEnv(name, config.EnvPrefix+"_CLI_"+strings.ToUpper(name))
	}

	cmd.AddCommand(newAppsCommand(o))
	cmd.AddCommand(newAnalyzeCommand(o))
	cmd.AddCommand(newCompareCommand(o))
	cmd.AddCommand(newConfigCommand(o))
	cmd.AddCommand(newServerCommand(o))
	cmd.AddCommand(newCacheCommand(o))
	return cmd
}

func (o *options) init(cmd *cobra.Command) error {
	setupLogging(cmd.ErrOrStderr(), o.v.GetBool("debug"), o.v.GetBool("quiet"), false)

	var err error
	if o.format, err = newFormatter(o.v.GetString("format")); err != nil {
		return err
	}
	if o.cfg, err = config.Load(o.v.GetString("config")); err != nil {
		return err
	}
	config.SetTools(o.cfg.Tools)
	if o.session == nil {
		if o.session, err = DefaultSession(); err != nil {
			return err
		}
	}
	return nil
}

func setupLogging(w io.Writer, debug, quiet, json bool) {
	level := slog.LevelInfo
	switch {
	case debug:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if json {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func (o *options) serverName() string {
	return o.v.GetString("server")
}

// client returns the REST client of the selected server and a fetcher that
// caches its responses.
func (o *options) client() (*sparkhistory.Client, *fetch.Fetcher, error) {
	name, s, err := o.cfg.Server(o.serverName())
	if err != nil {
		return nil, nil, err
	}
	c, err := sparkhistory.NewClient(name, s.ClientConfig())
	if err != nil {
		return nil, nil, err
	}
	dir := ""
	if o.cfg.Cache.Enabled {
		if dir, err = o.cfg.Cache.Path(); err != nil {
			return nil, nil, err
		}
	}
	return c, fetch.New(c, dir), nil
}

func (o *options) print(cmd *cobra.Command, v view) error {
	return o.format.Format(cmd.OutOrStdout(), v)
}

// resolve turns numbered references from the last 'apps list' into app ids.
func (o *options) resolve(refs ...string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		id, err := o.session.Resolve(ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printErr(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}
