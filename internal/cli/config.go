package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/drutigliano19/spark-history-mcp/internal/config"
)

const masked = "********"

func newConfigCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create, show and validate the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(o))
	cmd.AddCommand(newConfigShowCommand(o))
	cmd.AddCommand(newConfigValidateCommand(o))
	return cmd
}

func newConfigInitCommand(o *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := o.v.GetString("config")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite it", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to check %s: %w", path, err)
			}
			if err := config.Default().Write(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

// redact hides credentials before the configuration is printed.
func redact(cfg *config.Config) *config.Config {
	out := *cfg
	out.Servers = make(map[string]config.ServerConfig, len(cfg.Servers))
	for name, s := range cfg.Servers {
		if s.Auth.Password != "" {
			s.Auth.Password = masked
		}
		if s.Auth.Token != "" {
			s.Auth.Token = masked
		}
		out.Servers[name] = s
	}
	return &out
}

func newConfigShowCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML, with credentials masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := yaml.Marshal(redact(o.cfg))
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newConfigValidateCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			defaultServer, err := o.cfg.DefaultServer()
			if err != nil {
				return err
			}
			t := tableView{Title: "Servers", Headers: []string{"Name", "URL", "Default", "Verify SSL", "Timeout (s)"}}
			type serverInfo struct {
				Name    string `json:"name"`
				URL     string `json:"url"`
				Default bool   `json:"default"`
			}
			var servers []serverInfo
			for _, name := range o.cfg.ServerNames() {
				s := o.cfg.Servers[name]
				t.Rows = append(t.Rows, []string{
					name, s.URL, strconv.FormatBool(name == defaultServer),
					strconv.FormatBool(s.VerifySSL), strconv.Itoa(s.Timeout),
				})
				servers = append(servers, serverInfo{Name: name, URL: s.URL, Default: name == defaultServer})
			}
			return o.print(cmd, view{
				Title:  "Configuration is valid",
				Tables: []tableView{t},
				Data:   map[string]any{"valid": true, "servers": servers},
			})
		},
	}
}
