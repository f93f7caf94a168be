package config

import (
	"os"
	"path/filepath"
	"testing"

	internal "github.com/ZanzyTHEbar/filesum/fsum"
	"github.com/ZanzyTHEbar/filesum/fsum/filesystem/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	suite.tempDir = suite.T().TempDir()
	require.NoError(suite.T(), os.Chdir(suite.tempDir))
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}
}

func (suite *ConfigTestSuite) writeConfig(content string) string {
	configFile := filepath.Join(suite.tempDir, "config.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte(content), 0o644))
	return configFile
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), internal.DefaultRootPath, cfg.RootPath)
	assert.Equal(suite.T(), internal.DefaultDatabaseDSN, cfg.Database.DSN)
	assert.Equal(suite.T(), internal.DefaultDatabaseType, cfg.Database.Type)
	assert.Equal(suite.T(), "file_metadata", cfg.Database.Table)
	assert.Equal(suite.T(), internal.DefaultLogFilePath, cfg.Logging.FilePath)
	assert.Equal(suite.T(), "info", cfg.Logging.Level)
	assert.False(suite.T(), cfg.Logging.Debug)
	assert.Equal(suite.T(), 8192, cfg.Processing.BlockSize)
	assert.Equal(suite.T(), 1, cfg.Processing.Workers)
	assert.Equal(suite.T(), ".filesumignore", cfg.Processing.IgnoreFile)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	configFile := suite.writeConfig(`
root_path: ./scan-here
database:
  dsn: file:./db/test.db
  type: sqlite
  table: scanned_files
logging:
  file_path: ./logs/test.log
  level: debug
  debug: true
processing:
  block_size: 4096
  workers: 3
`)

	cfg, err := LoadConfig(configFile)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "./scan-here", cfg.RootPath)
	assert.Equal(suite.T(), "file:./db/test.db", cfg.Database.DSN)
	assert.Equal(suite.T(), "sqlite", cfg.Database.Type)
	assert.Equal(suite.T(), "scanned_files", cfg.Database.Table)
	assert.Equal(suite.T(), "./logs/test.log", cfg.Logging.FilePath)
	assert.Equal(suite.T(), "debug", cfg.Logging.Level)
	assert.True(suite.T(), cfg.Logging.Debug)
	assert.Equal(suite.T(), 4096, cfg.Processing.BlockSize)
	assert.Equal(suite.T(), 3, cfg.Processing.Workers)
}

func (suite *ConfigTestSuite) TestLoadConfigFromSearchPath() {
	suite.writeConfig("root_path: ./found-by-search\n")

	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "./found-by-search", cfg.RootPath)
}

func (suite *ConfigTestSuite) TestEnvironmentOverridesFile() {
	configFile := suite.writeConfig("database:\n  table: from_file\n")
	suite.T().Setenv("FILESUM_DATABASE_TABLE", "from_env")
	suite.T().Setenv("FILESUM_PROCESSING_WORKERS", "4")

	cfg, err := LoadConfig(configFile)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "from_env", cfg.Database.Table)
	assert.Equal(suite.T(), 4, cfg.Processing.Workers)
}

func (suite *ConfigTestSuite) TestMissingExplicitFileIsConfigError() {
	cfg, err := LoadConfig(filepath.Join(suite.tempDir, "nope.yaml"))

	assert.Nil(suite.T(), cfg)
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), common.KindConfig, common.KindOf(err))
}

func (suite *ConfigTestSuite) TestMalformedFileIsConfigError() {
	configFile := suite.writeConfig("root_path: [unterminated\n")

	_, err := LoadConfig(configFile)

	require.Error(suite.T(), err)
	assert.Equal(suite.T(), common.KindConfig, common.KindOf(err))
}

func (suite *ConfigTestSuite) TestInvalidTableNameRejected() {
	configFile := suite.writeConfig("database:\n  table: \"files; DROP TABLE x\"\n")

	_, err := LoadConfig(configFile)

	require.Error(suite.T(), err)
	assert.ErrorIs(suite.T(), err, common.ErrInvalidIdentifier)
	assert.Equal(suite.T(), common.KindConfig, common.KindOf(err))
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			RootPath:   "/data",
			Database:   DatabaseConfig{DSN: "file:x.db", Type: "libsql", Table: "file_metadata"},
			Logging:    LoggingConfig{FilePath: "x.log", Level: "info"},
			Processing: ProcessingConfig{BlockSize: 1, Workers: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty root", func(c *Config) { c.RootPath = "" }},
		{"empty dsn", func(c *Config) { c.Database.DSN = " " }},
		{"bad table", func(c *Config) { c.Database.Table = "1files" }},
		{"bad type", func(c *Config) { c.Database.Type = "postgres" }},
		{"empty log path", func(c *Config) { c.Logging.FilePath = "" }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"zero block size", func(c *Config) { c.Processing.BlockSize = 0 }},
		{"zero workers", func(c *Config) { c.Processing.Workers = 0 }},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, common.KindConfig, common.KindOf(err))
		})
	}
}

func TestGetSecret(t *testing.T) {
	t.Setenv("FILESUM_TEST_SECRET", "s3cret")
	value, err := GetSecret("FILESUM_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", value)

	t.Setenv("FILESUM_TEST_SECRET", "")
	_, err = GetSecret("FILESUM_TEST_SECRET")
	assert.ErrorIs(t, err, common.ErrSecretMissing)
	assert.Equal(t, common.KindConfig, common.KindOf(err))
}
