package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/tally/internal/paths"
	"github.com/mesh-intelligence/tally/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "TALLY"
)

// Config keys.
const (
	cfgKeyBackend   = "backend"
	cfgKeyDataDir   = "data_dir"
	cfgKeyDSN       = "dsn"
	cfgKeyListen    = "listen"
	cfgKeyLogLevel  = "log_level"
	cfgKeyLogJSON   = "log_json"
	cfgKeyRateLimit = "rate_limit"
	cfgKeyRateBurst = "rate_burst"
	cfgKeyServerURL = "server_url"
)

// Settings is the content of config.yaml after environment overrides.
type Settings struct {
	Backend   string  `mapstructure:"backend" yaml:"backend"`
	DataDir   string  `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	DSN       string  `mapstructure:"dsn" yaml:"dsn,omitempty"`
	Listen    string  `mapstructure:"listen" yaml:"listen"`
	LogLevel  string  `mapstructure:"log_level" yaml:"log_level"`
	LogJSON   bool    `mapstructure:"log_json" yaml:"log_json"`
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst" yaml:"rate_burst"`
	ServerURL string  `mapstructure:"server_url" yaml:"server_url"`

	// ConfigDir is where the settings were read from.
	ConfigDir string `mapstructure:"-" yaml:"-"`
}

func defaultSettings() Settings {
	return Settings{
		Backend:   types.BackendSQLite,
		Listen:    ":8080",
		LogLevel:  "info",
		RateBurst: 20,
		ServerURL: "http://localhost:8080",
	}
}

// loadSettings reads config.yaml from configDir, creating the directory and
// a default file on first run. Every key except data_dir can be overridden
// by a TALLY_<KEY> environment variable; data_dir follows the precedence in
// paths.ResolveDataDir.
func loadSettings(configDir string) (*Settings, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), defaultSettings()); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	d := defaultSettings()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, d.Backend)
	v.SetDefault(cfgKeyListen, d.Listen)
	v.SetDefault(cfgKeyLogLevel, d.LogLevel)
	v.SetDefault(cfgKeyLogJSON, d.LogJSON)
	v.SetDefault(cfgKeyRateLimit, d.RateLimit)
	v.SetDefault(cfgKeyRateBurst, d.RateBurst)
	v.SetDefault(cfgKeyServerURL, d.ServerURL)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	for _, key := range []string{
		cfgKeyBackend, cfgKeyDSN, cfgKeyListen, cfgKeyLogLevel, cfgKeyLogJSON,
		cfgKeyRateLimit, cfgKeyRateBurst, cfgKeyServerURL,
	} {
		if err := v.BindEnv(key, envPrefix+"_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	s.ConfigDir = configDir
	return &s, nil
}

// writeConfigIfMissing creates config.yaml with s if the file does not exist.
func writeConfigIfMissing(path string, s Settings) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# tally configuration\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}

// storageConfig returns the backend configuration, resolving the data
// directory from the flag, config.yaml, TALLY_DATA_DIR, or the CWD default.
func (a *app) storageConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.settings.DataDir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		Backend: a.settings.Backend,
		DataDir: dataDir,
		DSN:     a.settings.DSN,
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("config %s: %w", filepath.Join(a.settings.ConfigDir, configFileExt), err)
	}
	return cfg, nil
}
