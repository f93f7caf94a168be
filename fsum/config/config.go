package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	internal "github.com/ZanzyTHEbar/filesum/fsum"
	"github.com/ZanzyTHEbar/filesum/fsum/filesystem/common"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	RootPath   string           `mapstructure:"root_path"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Processing ProcessingConfig `mapstructure:"processing"`
}

// DatabaseConfig stores database connection details.
type DatabaseConfig struct {
	DSN   string `mapstructure:"dsn"`
	Type  string `mapstructure:"type"`
	Table string `mapstructure:"table"`
	// AuthTokenEnv names the environment variable holding a remote auth token
	AuthTokenEnv string `mapstructure:"auth_token_env"`
}

// LoggingConfig stores log destination and verbosity.
type LoggingConfig struct {
	FilePath string `mapstructure:"file_path"`
	Level    string `mapstructure:"level"`
	Debug    bool   `mapstructure:"debug"`
}

// ProcessingConfig stores scan tuning.
type ProcessingConfig struct {
	BlockSize  int    `mapstructure:"block_size"`
	Workers    int    `mapstructure:"workers"`
	IgnoreFile string `mapstructure:"ignore_file"`
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name may be composed into SQL as a table name
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("root_path", internal.DefaultRootPath)
	v.SetDefault("database.dsn", internal.DefaultDatabaseDSN)
	v.SetDefault("database.type", internal.DefaultDatabaseType)
	v.SetDefault("database.table", internal.DefaultTableName)
	v.SetDefault("database.auth_token_env", "")
	v.SetDefault("logging.file_path", internal.DefaultLogFilePath)
	v.SetDefault("logging.level", internal.DefaultLogLevel)
	v.SetDefault("logging.debug", false)
	v.SetDefault("processing.block_size", internal.DefaultBlockSize)
	v.SetDefault("processing.workers", internal.DefaultWorkers)
	v.SetDefault("processing.ignore_file", internal.DefaultIgnoreFile)
}

// LoadConfig reads configuration from file or environment variables.
// An explicit configPath must exist; without one the default locations are searched
// and defaults are used when nothing is found.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName(internal.DefaultConfigName)
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(internal.DefaultEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // database.dsn -> FILESUM_DATABASE_DSN
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, common.ConfigError("read config", fmt.Errorf("failed to read config file: %w", err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, common.ConfigError("decode config", fmt.Errorf("unable to decode into struct: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that every value the scan depends on is usable.
func (c *Config) Validate() error {
	pathUtils := common.NewPathUtils()

	if err := pathUtils.ValidatePath(c.RootPath); err != nil {
		return common.ConfigError("validate root_path", err)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return common.ConfigError("validate database.dsn", errors.New("database.dsn cannot be empty"))
	}
	if !ValidIdentifier(c.Database.Table) {
		return common.ConfigError("validate database.table", fmt.Errorf("%w: %q", common.ErrInvalidIdentifier, c.Database.Table))
	}
	switch c.Database.Type {
	case "libsql", "sqlite":
	default:
		return common.ConfigError("validate database.type", fmt.Errorf("unsupported database type %q", c.Database.Type))
	}
	if c.Logging.FilePath == "" {
		return common.ConfigError("validate logging.file_path", errors.New("logging.file_path cannot be empty"))
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil {
		return common.ConfigError("validate logging.level", err)
	}
	if c.Processing.BlockSize <= 0 {
		return common.ConfigError("validate processing.block_size", fmt.Errorf("block size must be positive, got %d", c.Processing.BlockSize))
	}
	if c.Processing.Workers < 1 {
		return common.ConfigError("validate processing.workers", fmt.Errorf("workers must be at least 1, got %d", c.Processing.Workers))
	}
	return nil
}
