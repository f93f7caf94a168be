package internal

import (
	"log"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

var (
	// DefaultAppName is used for the config directory and env prefix
	DefaultAppName    = "filesum"
	DefaultEnvPrefix  = "FILESUM"
	DefaultConfigPath = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	DefaultConfigName = "config"

	// Defaults follow the logs/database/data directory convention
	DefaultRootPath     = filepath.Join(".", "data")
	DefaultDatabaseDSN  = "file:" + filepath.Join(".", "database", DefaultAppName+".db")
	DefaultDatabaseType = "libsql"
	DefaultTableName    = "file_metadata"
	DefaultLogFilePath  = filepath.Join(".", "logs", DefaultAppName+".log")
	DefaultLogLevel     = "info"
	DefaultIgnoreFile   = "." + DefaultAppName + "ignore"

	// DefaultBlockSize is the read size used when hashing file content
	DefaultBlockSize = 8192
	DefaultWorkers   = 1

	// StatusProcessed is the only status written for a stored file record
	StatusProcessed = "processed"
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a bootstrap zerolog logger for use before configuration is loaded
func GetLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
