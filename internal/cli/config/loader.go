package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

var (
	k              = koanf.New(".")
	configFileUsed string
	current        *Config
)

// findConfigFile finds the config file to use.
// Priority: explicit path > dhis2scan.yaml > dhis2scan.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"dhis2scan.yaml", "dhis2scan.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load merges configuration from defaults, config file, environment
// variables, and flags, in rising precedence, then resolves the
// per-country credentials file.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"output":  DefaultOutput,
		"workers": DefaultWorkers,
		"verbose": false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// DHIS2_BASE_URL -> base_url, DHIS2_PARAMS_FILE -> params_file, ...
	if err := k.Load(env.Provider("DHIS2_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "DHIS2_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			// The CLI uses --state for brevity; the config key is state_path.
			if key == "state" {
				key = "state_path"
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyCountryParams(&cfg); err != nil {
		return nil, err
	}

	current = &cfg
	return &cfg, nil
}

// applyCountryParams fills unset connection fields from the selected
// country's entry in the params file. Explicitly configured values keep
// priority over the file.
func applyCountryParams(cfg *Config) error {
	if cfg.Country == "" || cfg.ParamsFile == "" {
		return nil
	}
	data, err := os.ReadFile(cfg.ParamsFile)
	if err != nil {
		return fmt.Errorf("error reading params file %s: %w", cfg.ParamsFile, err)
	}
	params := make(map[string]CountryParams)
	if err := json.Unmarshal(data, &params); err != nil {
		return fmt.Errorf("error parsing params file %s: %w", cfg.ParamsFile, err)
	}
	entry, ok := params[cfg.Country]
	if !ok {
		return fmt.Errorf("country %q not found in params file %s", cfg.Country, cfg.ParamsFile)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = entry.BaseURL
	}
	if cfg.Username == "" {
		cfg.Username = entry.Username
	}
	if cfg.Password == "" {
		cfg.Password = entry.Password
	}
	if cfg.Token == "" {
		cfg.Token = entry.Token
	}
	return nil
}

// Current returns the most recently loaded config.
func Current() *Config {
	return current
}

// GetConfigFileUsed returns the path of the config file that was loaded,
// if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// Reset clears loader state. Used for testing.
func Reset() {
	k = koanf.New(".")
	configFileUsed = ""
	current = nil
}
