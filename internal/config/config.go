package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/mldwnk1488/soundcloudbot/internal/lang"
)

// Default values for configuration.
const (
	DefaultDatabasePath    = "soundcloudbot.db"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultYtdlpPath       = "yt-dlp"
	DefaultZipPartSizeMB   = 45
	DefaultSearchLimit     = 15
	DefaultSearchTimeout   = 20  // seconds
	DefaultFetchTimeout    = 600 // seconds
	DefaultConfigFilePath  = "config.toml"
	DefaultDefaultLanguage = lang.DefaultLanguage
)

// ErrMissingToken is returned when no bot token is configured.
var ErrMissingToken = errors.New("bot token is not configured")

// Config holds the application's configuration settings.
type Config struct {
	BotToken         string `toml:"BotToken" json:"-"`
	AdminID          int64  `toml:"AdminID" json:"AdminID"`
	DatabasePath     string `toml:"DatabasePath" json:"DatabasePath"`
	WorkDir          string `toml:"WorkDir" json:"WorkDir"`
	YtdlpPath        string `toml:"YtdlpPath" json:"YtdlpPath"`
	LogLevel         string `toml:"LogLevel" json:"LogLevel"`
	LogFormat        string `toml:"LogFormat" json:"LogFormat"`
	DefaultLanguage  string `toml:"DefaultLanguage" json:"DefaultLanguage"`
	PromoText        string `toml:"PromoText" json:"PromoText"`
	ZipPartSizeMB    int    `toml:"ZipPartSizeMB" json:"ZipPartSizeMB"`
	SearchLimit      int    `toml:"SearchLimit" json:"SearchLimit"`
	SearchTimeoutSec int    `toml:"SearchTimeoutSec" json:"SearchTimeoutSec"`
	FetchTimeoutSec  int    `toml:"FetchTimeoutSec" json:"FetchTimeoutSec"`
}

// setViperDefaults configures Viper with the application's default values.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("bottoken", "")
	v.SetDefault("adminid", int64(0))
	v.SetDefault("databasepath", DefaultDatabasePath)
	v.SetDefault("workdir", os.TempDir())
	v.SetDefault("ytdlppath", DefaultYtdlpPath)
	v.SetDefault("loglevel", DefaultLogLevel)
	v.SetDefault("logformat", DefaultLogFormat)
	v.SetDefault("defaultlanguage", DefaultDefaultLanguage)
	v.SetDefault("promotext", "")
	v.SetDefault("zippartsizemb", DefaultZipPartSizeMB)
	v.SetDefault("searchlimit", DefaultSearchLimit)
	v.SetDefault("searchtimeoutsec", DefaultSearchTimeout)
	v.SetDefault("fetchtimeoutsec", DefaultFetchTimeout)
}

// Load reads the configuration from the given file (optional), the
// environment (SOUNDCLOUDBOT_*), and defaults, in flag > env > file >
// default precedence. An empty cfgFile means "use ./config.toml if it
// exists".
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	setViperDefaults(v)

	v.SetEnvPrefix("SOUNDCLOUDBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			log.Debug("No config file found, using defaults and environment")
		} else if _, statErr := os.Stat(cfgFile); cfgFile != "" && statErr != nil {
			return Config{}, fmt.Errorf("config file %s: %w", cfgFile, err)
		} else if cfgFile != "" {
			return Config{}, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	} else {
		log.Infof("Loaded configuration from %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.ZipPartSizeMB <= 0 {
		cfg.ZipPartSizeMB = DefaultZipPartSizeMB
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultSearchLimit
	}
	if cfg.SearchTimeoutSec <= 0 {
		cfg.SearchTimeoutSec = DefaultSearchTimeout
	}
	if cfg.FetchTimeoutSec <= 0 {
		cfg.FetchTimeoutSec = DefaultFetchTimeout
	}
	if !lang.IsSupported(cfg.DefaultLanguage) {
		log.Warnf("Unsupported default language %q, falling back to %q", cfg.DefaultLanguage, DefaultDefaultLanguage)
		cfg.DefaultLanguage = DefaultDefaultLanguage
	}
	return nil
}

// ValidateRuntime checks the settings that are only required to
// actually run the bot (not to load the config for inspection).
func ValidateRuntime(cfg Config) error {
	if cfg.BotToken == "" {
		return ErrMissingToken
	}
	if cfg.AdminID == 0 {
		log.Warn("AdminID is not set; admin commands are disabled")
	}
	return nil
}
