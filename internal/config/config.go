// Package config resolves sqsync settings from defaults, a config file,
// SQ_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SQ"

// DefaultHTTPTimeout bounds a single request unless http_timeout overrides it.
const DefaultHTTPTimeout = 30 * time.Second

// Config keys.
const (
	KeyOperation              = "operation"
	KeyURL                    = "url"
	KeyUsername               = "username"
	KeyPassword               = "password"
	KeySourceProjectKey       = "source.project_key"
	KeySourceBranch           = "source.branch"
	KeyDestinationProjectKeys = "destination.project_keys"
	KeyDestinationBranch      = "destination.branch"
	KeyUserMap                = "user_map"
	KeyUserMapFile            = "user_map_file"
	KeyLogLevel               = "log_level"
	KeyAddNote                = "add_note"
	KeyDryRun                 = "dry_run"
	KeyHTTPTimeout            = "http_timeout"
	KeyTelemetryEnabled       = "telemetry.enabled"
	KeyTelemetryStdout        = "telemetry.stdout"
)

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"url":                      KeyURL,
	"username":                 KeyUsername,
	"password":                 KeyPassword,
	"source-project-key":       KeySourceProjectKey,
	"source-branch":            KeySourceBranch,
	"destination-project-keys": KeyDestinationProjectKeys,
	"destination-branch":       KeyDestinationBranch,
	"user-map":                 KeyUserMap,
	"user-map-file":            KeyUserMapFile,
	"log-level":                KeyLogLevel,
	"add-note":                 KeyAddNote,
	"dry-run":                  KeyDryRun,
	"http-timeout":             KeyHTTPTimeout,
}

// Settings is the resolved configuration of one run.
type Settings struct {
	Operation Operation

	URL      string
	Username string
	Password string

	SourceProjectKey       string
	SourceBranch           string
	DestinationProjectKeys []string
	DestinationBranch      string

	UserMap UserMap

	LogLevel    LogLevel
	AddNote     bool
	DryRun      bool
	HTTPTimeout time.Duration

	Telemetry TelemetrySettings

	// ConfigFile is the file the settings were read from, if any.
	ConfigFile string
}

// TelemetrySettings controls OpenTelemetry export.
type TelemetrySettings struct {
	Enabled bool
	Stdout  bool
}

// Load resolves settings. configFile may be empty, in which case sqsync.yaml
// (or .toml, .json) is looked up in the working directory and the user's
// config directories. flags may be nil.
//
// Values that cannot be parsed (unknown operation or log level, malformed
// user map) are errors. Missing values are reported by Validate.
func Load(configFile string, flags *pflag.FlagSet) (*Settings, error) {
	v, err := newViper(configFile, flags)
	if err != nil {
		return nil, err
	}

	s := &Settings{
		URL:                    strings.TrimSpace(v.GetString(KeyURL)),
		Username:               strings.TrimSpace(v.GetString(KeyUsername)),
		Password:               v.GetString(KeyPassword),
		SourceProjectKey:       strings.TrimSpace(v.GetString(KeySourceProjectKey)),
		SourceBranch:           strings.TrimSpace(v.GetString(KeySourceBranch)),
		DestinationProjectKeys: splitList(v.Get(KeyDestinationProjectKeys)),
		DestinationBranch:      strings.TrimSpace(v.GetString(KeyDestinationBranch)),
		AddNote:                v.GetBool(KeyAddNote),
		DryRun:                 v.GetBool(KeyDryRun),
		HTTPTimeout:            v.GetDuration(KeyHTTPTimeout),
		Telemetry: TelemetrySettings{
			Enabled: v.GetBool(KeyTelemetryEnabled),
			Stdout:  v.GetBool(KeyTelemetryStdout),
		},
		ConfigFile: v.ConfigFileUsed(),
	}

	if s.Operation, err = ParseOperation(v.GetString(KeyOperation)); err != nil {
		return nil, err
	}
	if s.LogLevel, err = ParseLogLevel(v.GetString(KeyLogLevel)); err != nil {
		return nil, err
	}
	if s.HTTPTimeout < 0 {
		return nil, fmt.Errorf("%s must not be negative, got %s", KeyHTTPTimeout, s.HTTPTimeout)
	}

	if s.UserMap, err = userMapValue(v.Get(KeyUserMap), s.ConfigFile); err != nil {
		return nil, err
	}
	if path := strings.TrimSpace(v.GetString(KeyUserMapFile)); path != "" {
		fromFile, err := LoadUserMapFile(expandHome(path))
		if err != nil {
			return nil, err
		}
		if err := s.UserMap.Merge(fromFile); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func newViper(configFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(KeyOperation, "")
	v.SetDefault(KeyURL, "")
	v.SetDefault(KeyUsername, "")
	v.SetDefault(KeyPassword, "")
	v.SetDefault(KeySourceProjectKey, "")
	v.SetDefault(KeySourceBranch, "")
	v.SetDefault(KeyDestinationProjectKeys, "")
	v.SetDefault(KeyDestinationBranch, "")
	v.SetDefault(KeyUserMap, "")
	v.SetDefault(KeyUserMapFile, "")
	v.SetDefault(KeyLogLevel, string(LogLevelInfo))
	v.SetDefault(KeyAddNote, false)
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyHTTPTimeout, DefaultHTTPTimeout)
	v.SetDefault(KeyTelemetryEnabled, false)
	v.SetDefault(KeyTelemetryStdout, false)

	// SQ_SOURCE_PROJECT_KEY for source.project_key, and so on.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(KeyTelemetryEnabled, "SQ_TELEMETRY_ENABLED", "SQ_OTEL_ENABLED")
	_ = v.BindEnv(KeyTelemetryStdout, "SQ_TELEMETRY_STDOUT", "SQ_OTEL_STDOUT")

	if configFile != "" {
		v.SetConfigFile(expandHome(configFile))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("sqsync")
		for _, dir := range configDirs() {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag --%s: %w", name, err)
				}
			}
		}
	}

	return v, nil
}

// configDirs lists where sqsync.yaml is searched, first match wins.
func configDirs() []string {
	dirs := []string{"."}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "sqsync"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "sqsync"))
	}
	return dirs
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// splitList accepts a comma-separated string (flags, environment) or a list
// (config file). Blank entries are dropped.
func splitList(raw any) []string {
	var items []string
	switch val := raw.(type) {
	case string:
		items = strings.Split(val, ",")
	case []string:
		items = val
	case []any:
		for _, item := range val {
			items = append(items, fmt.Sprint(item))
		}
	}

	var result []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}

// userMapValue accepts the inline "a=b;c=d" form or a mapping. A mapping
// can only come from the config file, which is re-read so author names keep
// their case.
func userMapValue(raw any, configFile string) (UserMap, error) {
	switch val := raw.(type) {
	case nil:
		return UserMap{}, nil
	case string:
		return ParseUserMap(val)
	case map[string]any:
		if configFile == "" {
			result, err := userMapFromTable(val)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", KeyUserMap, err)
			}
			return result, nil
		}
		return configFileUserMap(configFile)
	default:
		return nil, fmt.Errorf("%s: expected \"author=login;...\" or a mapping, got %T", KeyUserMap, raw)
	}
}
