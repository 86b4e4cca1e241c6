package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"
	"github.com/tidwall/sjson"

	"github.com/alanmeadows/refgraph/internal/config"
)

var (
	configJSONFlag    bool
	configProjectFlag bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage refgraph configuration",
	Long:  `Show and modify refgraph configuration values.`,
}

func init() {
	configShowCmd.Flags().BoolVar(&configJSONFlag, "json", false, "Output raw JSON without formatting")
	configSetCmd.Flags().BoolVar(&configProjectFlag, "project", false, "Write to the project config instead of the user config")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show merged configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		redacted := appConfig.Redacted()

		var data []byte
		var err error
		if configJSONFlag {
			data, err = json.Marshal(redacted)
		} else {
			data, err = json.MarshalIndent(redacted, "", "  ")
		}
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long: `Set a configuration value using a dotted key path.

The value is written to the user config file, or with --project to
.refgraph/refgraph.jsonc in the repository root. The file is created if it
does not exist.

Note: JSONC comments are not preserved on write.`,
	Example: `  refgraph config set fetch.max_parallel 8
  refgraph config set github.base_url https://ghe.example.com/
  refgraph config set --project mirror.base_dir /srv/mirrors`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ProjectConfigPath()
		if !configProjectFlag {
			var err error
			path, err = config.UserConfigPath()
			if err != nil {
				return fmt.Errorf("locating user config: %w", err)
			}
		}

		value, err := setConfigValue(path, args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v in %s\n", args[0], value, path)
		return nil
	},
}

// setConfigValue writes key=raw into the JSONC file at path, typing raw as
// an integer, float, bool or string in that order of preference.
func setConfigValue(path, key, raw string) (any, error) {
	var value any
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		value = i
	} else if f, err := strconv.ParseFloat(raw, 64); err == nil {
		value = f
	} else if b, err := strconv.ParseBool(raw); err == nil {
		value = b
	} else {
		value = raw
	}

	existing := []byte("{}")
	if data, err := os.ReadFile(path); err == nil {
		// sjson needs plain JSON.
		existing = jsonc.ToJSON(data)
	}

	updated, err := sjson.SetBytes(existing, key, value)
	if err != nil {
		return nil, fmt.Errorf("setting key %q: %w", key, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, updated, 0644); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}
	return value, nil
}
