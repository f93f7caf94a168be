package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ZanzyTHEbar/filesum/fsum/config"
)

// DriverName maps a configured database type to its database/sql driver name
func DriverName(dbType string) string {
	switch dbType {
	case "sqlite":
		return "sqlite"
	default:
		return "libsql"
	}
}

// DriverAvailable reports whether the driver for dbType is compiled in.
// libsql needs cgo; the sqlite driver is pure Go and always present.
func DriverAvailable(dbType string) bool {
	return slices.Contains(sql.Drivers(), DriverName(dbType))
}

func isRemote(dsn string) bool {
	for _, scheme := range []string{"libsql://", "http://", "https://", "wss://", "ws://"} {
		if strings.HasPrefix(dsn, scheme) {
			return true
		}
	}
	return false
}

// localPath returns the filesystem path behind a local DSN, or "" for in-memory DSNs
func localPath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return ""
	}
	return path
}

// ResolveDSN normalizes the configured DSN. Bare paths become file: URLs and a remote
// URL gets the auth token named by AuthTokenEnv.
func ResolveDSN(cfg config.DatabaseConfig) (string, error) {
	dsn := strings.TrimSpace(cfg.DSN)

	if !isRemote(dsn) {
		if !strings.HasPrefix(dsn, "file:") {
			dsn = "file:" + dsn
		}
		return dsn, nil
	}

	if cfg.AuthTokenEnv == "" {
		return dsn, nil
	}

	token, err := config.GetSecret(cfg.AuthTokenEnv)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(dsn)
	if err != nil {
		if strings.Contains(dsn, "?") {
			return dsn + "&authToken=" + url.QueryEscape(token), nil
		}
		return dsn + "?authToken=" + url.QueryEscape(token), nil
	}
	q := u.Query()
	q.Set("authToken", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ConnectToDB opens and pings the configured database. Parent directories of a local
// database file are created first.
func ConnectToDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if !DriverAvailable(cfg.Type) {
		return nil, fmt.Errorf("database driver %q is not available in this build", DriverName(cfg.Type))
	}

	dsn, err := ResolveDSN(cfg)
	if err != nil {
		return nil, err
	}

	if !isRemote(dsn) {
		if path := localPath(dsn); path != "" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("could not create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open(DriverName(cfg.Type), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connector: %w", err)
	}

	// SQLite allows one writer; a single pooled connection serializes writes from parallel scans
	if !isRemote(dsn) {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}
