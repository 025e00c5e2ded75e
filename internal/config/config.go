package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeRender = "render"
	ModeServer = "server"

	// Default values
	DefaultPort          = 8080
	DefaultHost          = "127.0.0.1"
	DefaultLogLevel      = "info"
	DefaultMaxUploadSize = 10 * 1024 * 1024 // 10MB per uploaded file
	DefaultFollowupDelay = 500 * time.Millisecond
	DefaultRecipient     = "maxcoopforms@gmail.com"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the subscription form kit
type Config struct {
	// Invocation configuration
	Mode string // "render" for one-shot CLI rendering, "server" for the HTTP intake API
	Host string
	Port int

	// Submission configuration
	OutputDirectory string // where rendered PDFs are written on the download fallback
	RecipientEmail  string // fixed administrative address submissions are emailed to
	MaxUploadSize   int64  // maximum size of a single uploaded file in bytes
	FollowupDelay   time.Duration

	// Application configuration
	Version     string
	ServiceName string
	LogLevel    string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:            ModeRender,
		Host:            DefaultHost,
		Port:            DefaultPort,
		OutputDirectory: currentDir,
		RecipientEmail:  DefaultRecipient,
		MaxUploadSize:   DefaultMaxUploadSize,
		FollowupDelay:   DefaultFollowupDelay,
		Version:         "1.0.0",
		ServiceName:     "maxcoop-form",
		LogLevel:        DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand the output directory if needed
	if cfg.OutputDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.OutputDirectory); err == nil {
			cfg.OutputDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("MAXCOOP")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("out", cfg.OutputDirectory)
	viper.SetDefault("recipient", cfg.RecipientEmail)
	viper.SetDefault("maxuploadsize", cfg.MaxUploadSize)
	viper.SetDefault("followupdelay", cfg.FollowupDelay)
	viper.SetDefault("loglevel", cfg.LogLevel)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Mode: 'render' for one-shot PDF rendering, 'server' for the HTTP intake API")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("out", cfg.OutputDirectory, "Directory rendered PDFs are written to")
	pflag.String("recipient", cfg.RecipientEmail, "Administrative email address submissions are sent to")
	pflag.Int64("maxuploadsize", cfg.MaxUploadSize, "Maximum uploaded file size in bytes")
	pflag.Duration("followupdelay", cfg.FollowupDelay, "Delay between the fallback download and the email-compose step")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("out", pflag.Lookup("out"))
	_ = viper.BindPFlag("recipient", pflag.Lookup("recipient"))
	_ = viper.BindPFlag("maxuploadsize", pflag.Lookup("maxuploadsize"))
	_ = viper.BindPFlag("followupdelay", pflag.Lookup("followupdelay"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMAXCOOP Form - renders cooperative-housing subscription forms to PDF\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s submission.json                        # render one submission to the current directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --out=/var/maxcoop submission.json     # render into a custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --port=8081              # run the HTTP intake API\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  MAXCOOP_MODE           Invocation mode\n")
		fmt.Fprintf(os.Stderr, "  MAXCOOP_HOST           Server host\n")
		fmt.Fprintf(os.Stderr, "  MAXCOOP_PORT           Server port\n")
		fmt.Fprintf(os.Stderr, "  MAXCOOP_OUT            Output directory\n")
		fmt.Fprintf(os.Stderr, "  MAXCOOP_RECIPIENT      Administrative email address\n")
		fmt.Fprintf(os.Stderr, "  MAXCOOP_MAXUPLOADSIZE  Maximum upload size\n")
		fmt.Fprintf(os.Stderr, "  MAXCOOP_FOLLOWUPDELAY  Download to email-compose delay\n")
		fmt.Fprintf(os.Stderr, "  MAXCOOP_LOGLEVEL       Log level\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.OutputDirectory = viper.GetString("out")
	cfg.RecipientEmail = viper.GetString("recipient")
	cfg.MaxUploadSize = viper.GetInt64("maxuploadsize")
	cfg.FollowupDelay = viper.GetDuration("followupdelay")
	cfg.LogLevel = viper.GetString("loglevel")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeRender && c.Mode != ModeServer {
		return errors.New("mode must be either 'render' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.OutputDirectory == "" {
		return errors.New("output directory cannot be empty")
	}

	// Create the output directory if it does not exist yet
	if _, err := os.Stat(c.OutputDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.OutputDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create output directory %s: %w", c.OutputDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access output directory %s: %w", c.OutputDirectory, err)
	}

	if !strings.Contains(c.RecipientEmail, "@") {
		return fmt.Errorf("invalid recipient email: %s", c.RecipientEmail)
	}

	if c.MaxUploadSize <= 0 {
		return errors.New("maximum upload size must be positive")
	}

	if c.FollowupDelay < 0 {
		return errors.New("followup delay cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, OutputDirectory: %s, Recipient: %s, LogLevel: %s, MaxUploadSize: %d}",
		c.Mode, c.Host, c.Port, c.OutputDirectory, c.RecipientEmail, c.LogLevel, c.MaxUploadSize)
}

// IsServerMode returns true if running the HTTP intake API
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsRenderMode returns true if running a one-shot render
func (c *Config) IsRenderMode() bool {
	return c.Mode == ModeRender
}
