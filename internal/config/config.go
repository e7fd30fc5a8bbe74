// Package config loads sdkfeedback settings from defaults, an optional YAML
// file, SDKFEEDBACK_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"sdkfeedback/internal/issue"
	"sdkfeedback/internal/store"
	"sdkfeedback/internal/traceback"
)

const (
	// EnvPrefix prefixes every environment override, e.g. SDKFEEDBACK_LOGS_DIR.
	EnvPrefix = "SDKFEEDBACK"
	// ConfigDirEnv overrides the configuration directory.
	ConfigDirEnv = "SDKFEEDBACK_CONFIG"

	configName = "config"
	configType = "yaml"
)

// Setting keys.
const (
	KeyLogsDir            = "logs_dir"
	KeyMaxURLLength       = "max_url_length"
	KeyComponentID        = "component_id"
	KeyNewIssueURL        = "new_issue_url"
	KeyIssueTrackerURL    = "issue_tracker_url"
	KeyRecentCount        = "recent_count"
	KeySnippetWidth       = "snippet_width"
	KeyToolPackage        = "tool_package"
	KeyProductName        = "product_name"
	KeyCLIName            = "cli_name"
	KeyVerbosity          = "verbosity"
	KeyDisableFileLogging = "disable_file_logging"
)

// Verbosity names accepted by KeyVerbosity, most verbose first.
var Verbosities = []string{"debug", "info", "warning", "error", "critical", "none"}

// Config is the resolved configuration.
type Config struct {
	LogsDir            string `mapstructure:"logs_dir"`
	MaxURLLength       int    `mapstructure:"max_url_length"`
	ComponentID        int    `mapstructure:"component_id"`
	NewIssueURL        string `mapstructure:"new_issue_url"`
	IssueTrackerURL    string `mapstructure:"issue_tracker_url"`
	RecentCount        int    `mapstructure:"recent_count"`
	SnippetWidth       int    `mapstructure:"snippet_width"`
	ToolPackage        string `mapstructure:"tool_package"`
	ProductName        string `mapstructure:"product_name"`
	CLIName            string `mapstructure:"cli_name"`
	Verbosity          string `mapstructure:"verbosity"`
	DisableFileLogging bool   `mapstructure:"disable_file_logging"`

	// ConfigDir and ConfigFile are informational and not read from settings.
	ConfigDir  string `mapstructure:"-"`
	ConfigFile string `mapstructure:"-"`
}

// Dir returns the configuration directory: $SDKFEEDBACK_CONFIG, else
// sdkfeedback under the user configuration directory.
func Dir() string {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "sdkfeedback")
}

// New returns a viper instance carrying the defaults and environment
// bindings.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyLogsDir, filepath.Join(Dir(), "logs"))
	v.SetDefault(KeyMaxURLLength, issue.DefaultMaxURLLength)
	v.SetDefault(KeyComponentID, issue.DefaultComponentID)
	v.SetDefault(KeyNewIssueURL, issue.DefaultNewIssueURL)
	v.SetDefault(KeyIssueTrackerURL, issue.DefaultTrackerURL)
	v.SetDefault(KeyRecentCount, store.DefaultLimit)
	v.SetDefault(KeySnippetWidth, traceback.DefaultSnippetWidth)
	v.SetDefault(KeyToolPackage, traceback.DefaultToolPackage)
	v.SetDefault(KeyProductName, "Google Cloud SDK")
	v.SetDefault(KeyCLIName, "gcloud")
	v.SetDefault(KeyVerbosity, "warning")
	v.SetDefault(KeyDisableFileLogging, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds the command-line flags that mirror settings. Flags that
// are not defined on fs are skipped.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range map[string]string{
		KeyLogsDir:   "logs-dir",
		KeyVerbosity: "verbosity",
	} {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load reads the configuration file and resolves v into a Config. An empty
// path looks for config.yaml in Dir() and tolerates its absence; an explicit
// path must exist.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigDir = Dir()
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail late.
func (c Config) Validate() error {
	if c.LogsDir == "" {
		return fmt.Errorf("%s must not be empty", KeyLogsDir)
	}
	if c.MaxURLLength <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyMaxURLLength, c.MaxURLLength)
	}
	if c.RecentCount <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyRecentCount, c.RecentCount)
	}
	for _, name := range Verbosities {
		if strings.EqualFold(c.Verbosity, name) {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", KeyVerbosity, strings.Join(Verbosities, ", "), c.Verbosity)
}

// Tracker describes the issue tracker form the report is sent to.
func (c Config) Tracker() issue.Tracker {
	return issue.Tracker{
		NewIssueURL:  c.NewIssueURL,
		ComponentID:  c.ComponentID,
		MaxURLLength: c.MaxURLLength,
	}
}

// TracebackOptions configures trace formatting.
func (c Config) TracebackOptions() traceback.Options {
	return traceback.Options{
		SnippetWidth: c.SnippetWidth,
		ToolPackage:  c.ToolPackage,
	}
}

// Property is one resolved setting.
type Property struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Properties lists every resolved setting of v sorted by key.
func Properties(v *viper.Viper) []Property {
	keys := v.AllKeys()
	sort.Strings(keys)
	props := make([]Property, 0, len(keys))
	for _, key := range keys {
		props = append(props, Property{Key: key, Value: fmt.Sprint(v.Get(key))})
	}
	return props
}
