package config

import (
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pagemirror/internal/pkg/utils"
)

// Config holds all configuration for our program, parsed from various sources
// The `mapstructure` tags are used to map the fields to the viper configuration
type Config struct {
	Job     string `mapstructure:"job"`
	JobPath string

	UserAgent           string   `mapstructure:"user-agent"`
	OutputDir           string   `mapstructure:"output"`
	MaxConcurrentAssets int      `mapstructure:"max-concurrent-assets"`
	HTTPTimeout         int      `mapstructure:"http-timeout"`
	DisableHTMLTag      []string `mapstructure:"disable-html-tag"`

	// Logging
	NoFileLogging  bool   `mapstructure:"no-log-file"`
	StdoutLogLevel string `mapstructure:"log-level"`
	NoColor        bool   `mapstructure:"no-color"`

	// Seed is the URL to mirror, set by the command layer
	Seed string
}

var (
	config *Config
	once   sync.Once
)

// InitConfig initializes the configuration
// Flags -> Env -> Config file
// Latest has precedence over the rest
func InitConfig() error {
	var err error
	once.Do(func() {
		config = &Config{}

		// Check if a config file is provided via flag
		if configFile := viper.GetString("config-file"); configFile != "" {
			viper.SetConfigFile(configFile)
		} else {
			home, homeErr := os.UserHomeDir()
			if homeErr != nil {
				err = homeErr
				return
			}

			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".pagemirror-config")
		}

		viper.SetEnvPrefix("PAGEMIRROR")
		replacer := strings.NewReplacer("-", "_", ".", "_")
		viper.SetEnvKeyReplacer(replacer)
		viper.AutomaticEnv()

		if readErr := viper.ReadInConfig(); readErr == nil {
			fmt.Println("Using config file:", viper.ConfigFileUsed())
		}

		// Unmarshal the config into the Config struct
		err = viper.Unmarshal(config)
	})
	return err
}

// BindFlags binds the flags to the viper configuration
// This is needed because viper doesn't support same flag name accross multiple commands
// Details here: https://github.com/spf13/viper/issues/375#issuecomment-794668149
func BindFlags(flagSet *pflag.FlagSet) {
	flagSet.VisitAll(func(flag *pflag.Flag) {
		viper.BindPFlag(flag.Name, flag)
	})
}

// Get returns the config struct
func Get() *Config {
	return config
}

// GenerateRunConfig derives the per-run values from the parsed configuration
func GenerateRunConfig() error {
	// If the job name isn't specified, we generate a random name
	if config.Job == "" {
		UUID, err := uuid.NewUUID()
		if err != nil {
			return err
		}

		config.Job = UUID.String()
	}

	config.JobPath = path.Join("jobs", config.Job)

	if config.OutputDir == "" {
		config.OutputDir = config.JobPath
	}

	if config.MaxConcurrentAssets <= 0 {
		config.MaxConcurrentAssets = 8
	}

	if config.UserAgent == "" {
		version := utils.GetVersion()

		// If Version is a commit hash, we only take the first 7 characters
		if len(version.Version) >= 40 {
			version.Version = version.Version[:7]
		}

		config.UserAgent = "pagemirror/" + version.Version
	}

	return nil
}
