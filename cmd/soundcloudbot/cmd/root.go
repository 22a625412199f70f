package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mldwnk1488/soundcloudbot/internal/config"
)

// cfgFile holds the path to the config file specified by the user.
var cfgFile string

var (
	logLevelFlag  string
	logFormatFlag string
	tokenFlag     string
)

// globalConfig holds the loaded configuration.
var globalConfig config.Config

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "soundcloudbot",
	Short: "A Telegram bot that downloads SoundCloud tracks and playlists",
	Long: `soundcloudbot resolves SoundCloud links sent in chat, downloads the
audio with yt-dlp and delivers it back as individual tracks or a
split zip archive.`,
	PersistentPreRunE: loadGlobalConfig,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path (default is ./config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Logging level (trace, debug, info, warn, error); overrides config")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Logging format (text, json); overrides config")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "Bot API token (overrides config and environment)")

	_ = viper.BindPFlag("bottoken", rootCmd.PersistentFlags().Lookup("token"))
}

// loadGlobalConfig loads the configuration and applies flag overrides,
// then configures logging accordingly.
func loadGlobalConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	if logFormatFlag != "" {
		cfg.LogFormat = logFormatFlag
	}

	initLogging(cfg.LogLevel, cfg.LogFormat)
	globalConfig = cfg
	return nil
}

func initLogging(level, format string) {
	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Invalid log level %q, using info", level)
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}
