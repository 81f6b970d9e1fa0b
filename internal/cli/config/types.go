// Package config loads CLI configuration for dhis2scan. Values merge
// from four layers, lowest to highest precedence: built-in defaults, a
// dhis2scan.yaml config file, DHIS2_-prefixed environment variables, and
// command-line flags. A per-country credentials file (the JSON format
// DHIS2_PARAMS_FILE has always pointed at) fills whatever connection
// fields are still unset.
package config

// Config holds every CLI option.
type Config struct {
	BaseURL    string `koanf:"base_url"`
	Username   string `koanf:"username"`
	Password   string `koanf:"password"`
	Token      string `koanf:"token"`
	Country    string `koanf:"country"`
	ParamsFile string `koanf:"params_file"`
	Output     string `koanf:"output"`
	StatePath  string `koanf:"state_path"`
	Workers    int    `koanf:"workers"`
	Verbose    bool   `koanf:"verbose"`
}

// CountryParams is one entry of the per-country credentials file.
type CountryParams struct {
	BaseURL  string `json:"baseUrl"`
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

// Defaults.
const (
	DefaultOutput  = "csv"
	DefaultWorkers = 10
)
