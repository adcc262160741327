package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"pagesdeck/internal/logger"
)

const (
	EnvPrefix      = "PAGESDECK"
	ConfigFileName = ".pagesdeck"

	KeyAPIURL          = "api_url"
	KeyAffiliation     = "affiliation"
	KeyConcurrency     = "concurrency"
	KeyLogLevel        = "log_level"
	KeyLogFile         = "log_file"
	KeyCredentialsFile = "credentials_file"
	KeyToken           = "token"

	DefaultAPIURL = "https://api.github.com/"
)

// Config is the resolved runtime configuration.
type Config struct {
	APIURL          string
	Affiliation     string // passed through to GET /user/repos when set
	Concurrency     int    // max in-flight Pages lookups, 0 = unbounded
	LogLevel        string
	LogFile         string
	CredentialsFile string
	Token           string // from env or config file; overrides the credential store
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIURL, DefaultAPIURL)
	v.SetDefault(KeyAffiliation, "")
	v.SetDefault(KeyConcurrency, 0)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, defaultPath(os.UserCacheDir, "pagesdeck.log"))
	v.SetDefault(KeyCredentialsFile, defaultPath(os.UserConfigDir, "credentials.toml"))
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration out of v and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		APIURL:          strings.TrimSpace(v.GetString(KeyAPIURL)),
		Affiliation:     strings.TrimSpace(v.GetString(KeyAffiliation)),
		Concurrency:     v.GetInt(KeyConcurrency),
		LogLevel:        v.GetString(KeyLogLevel),
		LogFile:         v.GetString(KeyLogFile),
		CredentialsFile: v.GetString(KeyCredentialsFile),
		Token:           strings.TrimSpace(v.GetString(KeyToken)),
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if !strings.HasSuffix(cfg.APIURL, "/") {
		cfg.APIURL += "/"
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks a resolved configuration.
func Validate(cfg Config) error {
	u, err := url.Parse(cfg.APIURL)
	if err != nil {
		return errors.Wrapf(err, "invalid %s", KeyAPIURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s %q: scheme must be http or https", KeyAPIURL, cfg.APIURL)
	}
	if cfg.Concurrency < 0 {
		return fmt.Errorf("invalid %s %d: must be >= 0", KeyConcurrency, cfg.Concurrency)
	}
	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.CredentialsFile == "" {
		return fmt.Errorf("%s must be set", KeyCredentialsFile)
	}
	return nil
}

func defaultPath(base func() (string, error), file string) string {
	dir, err := base()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "pagesdeck", file)
}
