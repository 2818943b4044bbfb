// Package config loads client settings using Viper.
//
// Precedence, highest first: command-line flags, PARKSPOT_* environment
// variables (including those loaded from .env), the YAML config file,
// built-in defaults.
package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	perrors "github.com/felixgeelhaar/parkspot/internal/errors"
	"github.com/felixgeelhaar/parkspot/internal/log"
)

// EnvPrefix prefixes every environment variable the client reads
const EnvPrefix = "PARKSPOT"

// DefaultAPIURL is the backend used when nothing else is configured
const DefaultAPIURL = "http://localhost:5000/api"

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config holds the client configuration.
type Config struct {
	APIURL      string        `mapstructure:"api_url" yaml:"api_url"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	SessionFile string        `mapstructure:"session_file" yaml:"session_file"`
	Format      string        `mapstructure:"format" yaml:"format"`
	Log         LogConfig     `mapstructure:"log" yaml:"log"`
	Proxy       ProxyConfig   `mapstructure:"proxy" yaml:"proxy"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// ProxyConfig holds the development proxy settings.
type ProxyConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
	Target string `mapstructure:"target" yaml:"target"`
}

// Options tells Load where to look.
type Options struct {
	// ConfigFile is an explicit config path. Unlike the default location,
	// it must exist.
	ConfigFile string
	// Dir replaces ~/.parkspot as the default config directory.
	Dir string
	// EnvFiles are dotenv files to load. Missing files are skipped.
	// Nil means ".env" in the working directory.
	EnvFiles []string
	// Flags are bound by name: api-url, session-file, format, log-level,
	// log-format, timeout. Only flags the user changed override.
	Flags *pflag.FlagSet
}

var flagKeys = map[string]string{
	"api-url":      "api_url",
	"session-file": "session_file",
	"format":       "format",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"timeout":      "timeout",
}

// DefaultDir returns ~/.parkspot
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".parkspot"
	}
	return filepath.Join(home, ".parkspot")
}

// Load reads configuration from flags, environment, .env and file.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFiles(opts.EnvFiles); err != nil {
		return nil, err
	}

	dir := opts.Dir
	if dir == "" {
		dir = DefaultDir()
	}

	v := viper.New()
	setDefaults(v, dir)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, perrors.Wrap(perrors.ErrCodeConfigRead, "failed to bind flag "+name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// No config file at the default location is fine
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, perrors.Wrap(perrors.ErrCodeConfigRead, "failed to read config file", err).
				WithSuggestion("Check the YAML syntax of " + configPathHint(v, opts))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeConfigRead, "failed to decode configuration", err)
	}

	cfg.SessionFile = expandHome(cfg.SessionFile)
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no sources are set
func Default() *Config {
	dir := DefaultDir()
	return &Config{
		APIURL:      DefaultAPIURL,
		Timeout:     30 * time.Second,
		SessionFile: filepath.Join(dir, "session.json"),
		Format:      FormatText,
		Log:         LogConfig{Level: "warn", Format: "text"},
		Proxy:       ProxyConfig{Listen: ":8081", Target: "http://localhost:5000"},
	}
}

func setDefaults(v *viper.Viper, dir string) {
	def := Default()
	v.SetDefault("api_url", def.APIURL)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("session_file", filepath.Join(dir, "session.json"))
	v.SetDefault("format", def.Format)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("proxy.listen", def.Proxy.Listen)
	v.SetDefault("proxy.target", def.Proxy.Target)
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	var problems []string

	if err := checkURL(c.APIURL); err != nil {
		problems = append(problems, "api_url: "+err.Error())
	}
	if c.Timeout <= 0 {
		problems = append(problems, "timeout must be positive")
	}
	if strings.TrimSpace(c.SessionFile) == "" {
		problems = append(problems, "session_file is empty")
	}
	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		problems = append(problems, "format must be text, json or yaml, got "+quote(c.Format))
	}
	if _, err := log.ConfigFromStrings(c.Log.Level, c.Log.Format); err != nil {
		problems = append(problems, "log: "+err.Error())
	}
	if c.Proxy.Target != "" {
		if err := checkURL(c.Proxy.Target); err != nil {
			problems = append(problems, "proxy.target: "+err.Error())
		}
	}

	if len(problems) > 0 {
		return perrors.NewConfigInvalidError(strings.Join(problems, "; "))
	}
	return nil
}

// Logger builds the logger described by c.Log
func (c *Config) Logger() (*log.Logger, error) {
	lc, err := log.ConfigFromStrings(c.Log.Level, c.Log.Format)
	if err != nil {
		return nil, perrors.NewConfigInvalidError(err.Error())
	}
	return log.New(lc), nil
}

// Save writes cfg as YAML to path.
func Save(cfg *Config, path string) error {
	v := viper.New()

	v.Set("api_url", cfg.APIURL)
	v.Set("timeout", cfg.Timeout.String())
	v.Set("session_file", cfg.SessionFile)
	v.Set("format", cfg.Format)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("proxy.listen", cfg.Proxy.Listen)
	v.Set("proxy.target", cfg.Proxy.Target)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return perrors.Wrap(perrors.ErrCodeDirectoryFailed, "failed to create config directory", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return perrors.Wrap(perrors.ErrCodeFileWriteFailed, "failed to write config file", err)
	}
	return nil
}

func loadEnvFiles(files []string) error {
	if files == nil {
		files = []string{".env"}
	}
	for _, f := range files {
		// godotenv never overrides variables already set
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return perrors.Wrap(perrors.ErrCodeConfigRead, "failed to load "+f, err)
		}
	}
	return nil
}

func checkURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("host is missing")
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}

func configPathHint(v *viper.Viper, opts Options) string {
	if f := v.ConfigFileUsed(); f != "" {
		return f
	}
	return opts.ConfigFile
}

func quote(s string) string {
	return "\"" + s + "\""
}
