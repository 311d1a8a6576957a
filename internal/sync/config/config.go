package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultSettingsFile is consulted when no --config path is given.
// A missing default file is not an error.
const DefaultSettingsFile = "settings.yaml"

// AppConfig holds the resolved configuration for one run. Values are layered
// in precedence order: built-in defaults < settings file < environment
// (BLOCKSYNC_ prefix) < command-line flags.
type AppConfig struct {
	// Remotes lists the trusted servers whose public block lists are fetched.
	Remotes []string `koanf:"remotes" validate:"required,min=1,dive,hostname_rfc1123"`

	// Home is the administrator's own server. Optional unless Apply is set.
	Home string `koanf:"home" validate:"required_if=Apply true,omitempty,hostname_rfc1123"`

	// Token is the access token for Home's admin API.
	Token string `koanf:"token" validate:"required_if=Apply true"`

	// Output is the CSV export path. Empty disables the CSV sink.
	Output string `koanf:"output"`

	// ImportFile is an optional previously exported CSV fed in as an
	// additional source.
	ImportFile string `koanf:"import_file"`

	// Apply pushes new entries to Home's admin API instead of export-only.
	Apply bool `koanf:"apply"`

	// Offline serves every source from the fetch cache without touching
	// the network.
	Offline bool `koanf:"offline"`

	// CachePath is the bbolt database holding the last good fetch per source.
	CachePath string `koanf:"cache_path" validate:"required"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `koanf:"timeout" validate:"required,gte=1s"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// UserAgent is sent on every outbound request.
	UserAgent string `koanf:"user_agent" validate:"required"`
}

// DEFAULT_APP_CONFIG defines the built-in defaults. Remotes, Home, and Token
// have no sensible defaults and must come from a higher-precedence layer.
var DEFAULT_APP_CONFIG = AppConfig{
	Output:    "domain_blocks.csv",
	CachePath: "blocksync.db",
	Timeout:   10 * time.Second,
	LogLevel:  "info",
	Env:       "prod",
	UserAgent: "blocksync/1.0",
}

// envLoader loads environment variables with the prefix "BLOCKSYNC_",
// lowercasing keys and splitting comma- or space-separated values into
// slices so BLOCKSYNC_REMOTES="a.example,b.example" works.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "BLOCKSYNC_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "BLOCKSYNC_"))
			value = strings.TrimSpace(value)

			if value == "" {
				return key, value
			}

			if strings.Contains(value, " ") || strings.Contains(value, ",") {
				parts := strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
				return key, parts
			}

			return key, value
		},
	}), nil)
}

// defaultLoader loads the built-in defaults via the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// fileLoader loads a YAML settings file. When the path is the default and
// the file does not exist, the layer is skipped silently; an explicitly
// requested file must exist.
var fileLoader = func(k *koanf.Koanf, path string, explicit bool) error {
	if _, err := os.Stat(path); err != nil {
		if !explicit && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("settings file %s: %w", path, err)
	}
	return k.Load(file.Provider(path), yaml.Parser())
}

// Load resolves the configuration from all layers and validates it.
// filePath is the settings file from --config ("" selects the default).
// overrides carries the command-line flag values the user actually set,
// keyed by config name; it is applied last so flags win.
func Load(filePath string, overrides map[string]any) (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	explicit := filePath != ""
	if !explicit {
		filePath = DefaultSettingsFile
	}
	if err := fileLoader(k, filePath, explicit); err != nil {
		return nil, fmt.Errorf("error loading settings file: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("error loading flag overrides: %w", err)
		}
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
