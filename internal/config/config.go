// Package config loads meetnotes settings from defaults, an optional YAML
// file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment variables, e.g. MEETNOTES_MODEL.
const EnvPrefix = "MEETNOTES"

// Config is the resolved application configuration.
type Config struct {
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model" validate:"required"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	FilePrefix     string        `mapstructure:"file_prefix" validate:"required,excludesall=/\\"`

	DownloadsDir string `mapstructure:"downloads_dir"`
	DataDir      string `mapstructure:"data_dir" validate:"required"`
	LogFile      string `mapstructure:"log_file"`
	LogLevel     string `mapstructure:"log_level" validate:"oneof=debug info warn error"`

	// Capture
	SampleRate  int    `mapstructure:"sample_rate" validate:"oneof=8000 16000 22050 24000 44100 48000"`
	SystemAudio bool   `mapstructure:"system_audio"`
	Device      string `mapstructure:"device"`
	FFmpegPath  string `mapstructure:"ffmpeg_path" validate:"required"`
	PactlPath   string `mapstructure:"pactl_path" validate:"required"`

	AutoSummarize        bool `mapstructure:"auto_summarize"`
	AllowDirectoryAccess bool `mapstructure:"allow_directory_access"`
}

// LoadOptions points Load at non-default files.
type LoadOptions struct {
	// ConfigFile is an explicit YAML file; it must exist when set.
	ConfigFile string
	// EnvFile defaults to ".env" in the working directory.
	EnvFile string
}

// DefaultDataDir returns the per-user data directory.
func DefaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "meetnotes")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_key", "")
	v.SetDefault("model", "gemini-3-flash-preview")
	v.SetDefault("request_timeout", "90s")
	v.SetDefault("file_prefix", "Meeting")

	v.SetDefault("downloads_dir", "")
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")

	v.SetDefault("sample_rate", 16000)
	v.SetDefault("system_audio", false)
	v.SetDefault("device", "")
	v.SetDefault("ffmpeg_path", "ffmpeg")
	v.SetDefault("pactl_path", "pactl")

	v.SetDefault("auto_summarize", false)
	v.SetDefault("allow_directory_access", true)
}

// Load resolves the configuration and validates it.
func Load(opts LoadOptions) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api_key", EnvPrefix+"_API_KEY", "GEMINI_API_KEY", "API_KEY"); err != nil {
		return nil, fmt.Errorf("bind api key: %w", err)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString("data_dir"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// DBPath is the session database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "meetnotes.sqlite")
}

// LogPath is the log file location.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, "meetnotes.log")
}
