package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/inodb/canonical-tx/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage canonical-tx configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/" + config.FileName + ".",
		Example: `  canonical-tx config                                    # show effective config
  canonical-tx config set inputs.biomart biomart_grch38.txt # set an input path
  canonical-tx config get workers                        # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout(), viper.GetViper())
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), viper.GetViper(), args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), viper.GetViper(), args[0])
		},
	}
}

func runConfigShow(w io.Writer, v *viper.Viper) error {
	if used := v.ConfigFileUsed(); used != "" {
		fmt.Fprintf(w, "# Config file: %s\n", used)
	} else {
		fmt.Fprintf(w, "# No config file found, showing defaults. Config file: ~/%s\n", config.FileName)
	}

	out, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(w, string(out))
	return nil
}

func runConfigSet(w io.Writer, v *viper.Viper, key, value string) error {
	switch value {
	case "true", "yes", "on":
		v.Set(key, true)
	case "false", "no", "off":
		v.Set(key, false)
	default:
		if n, err := strconv.Atoi(value); err == nil {
			v.Set(key, n)
		} else {
			v.Set(key, value)
		}
	}

	// The result must still decode before it is persisted.
	if _, err := config.Load(v); err != nil {
		return usageError{err}
	}

	cfgFile := v.ConfigFileUsed()
	if cfgFile == "" {
		cfgFile = config.DefaultPath()
		if cfgFile == "" {
			return fmt.Errorf("cannot determine home directory")
		}
	}

	if err := v.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(w, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(w io.Writer, v *viper.Viper, key string) error {
	if !v.IsSet(key) {
		return usageError{fmt.Errorf("key %q is not set", key)}
	}
	val := v.Get(key)
	if _, ok := val.(string); !ok {
		out, err := yaml.Marshal(val)
		if err != nil {
			return fmt.Errorf("marshaling value: %w", err)
		}
		fmt.Fprint(w, string(out))
		return nil
	}
	fmt.Fprintln(w, val)
	return nil
}
