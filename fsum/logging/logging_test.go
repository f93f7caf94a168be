package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/filesum/fsum/config"
	"github.com/ZanzyTHEbar/filesum/fsum/filesystem/common"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestNewCreatesDirectoryAndAppends(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "nested", "filesum.log")
	cfg := config.LoggingConfig{FilePath: logPath, Level: "info"}

	logger, closer, err := New(cfg)
	require.NoError(t, err)
	logger.Debug().Msg("hidden")
	logger.Info().Str("path", "/a").Msg("first")
	require.NoError(t, closer.Close())

	logger, closer, err = New(cfg)
	require.NoError(t, err)
	logger.Warn().Msg("second")
	require.NoError(t, closer.Close())

	entries := readEntries(t, logPath)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0]["message"])
	assert.Equal(t, "/a", entries[0]["path"])
	assert.Contains(t, entries[0], "time")
	assert.Equal(t, "second", entries[1]["message"])
	assert.Equal(t, "warn", entries[1]["level"])
}

func TestDebugAddsConsoleSink(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "filesum.log")
	var console bytes.Buffer

	logger, closer, err := newWithConsole(config.LoggingConfig{FilePath: logPath, Level: "info", Debug: true}, &console)
	require.NoError(t, err)
	logger.Debug().Msg("trace only")
	logger.Info().Msg("everywhere")
	require.NoError(t, closer.Close())

	assert.Contains(t, console.String(), "trace only")
	assert.Contains(t, console.String(), "everywhere")

	entries := readEntries(t, logPath)
	require.Len(t, entries, 1)
	assert.Equal(t, "everywhere", entries[0]["message"])
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, _, err := New(config.LoggingConfig{FilePath: filepath.Join(t.TempDir(), "x.log"), Level: "chatty"})
	require.Error(t, err)
	assert.Equal(t, common.KindConfig, common.KindOf(err))
}

func TestFatalErrorCarriesStack(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "filesum.log")
	logger, closer, err := New(config.LoggingConfig{FilePath: logPath, Level: "info"})
	require.NoError(t, err)

	common.LogError(logger, "File processing failed", common.FatalError("walk", "/missing", os.ErrNotExist))
	require.NoError(t, closer.Close())

	entries := readEntries(t, logPath)
	require.Len(t, entries, 1)
	assert.Equal(t, "FatalRunFailure", entries[0]["kind"])
	assert.Contains(t, entries[0], "stack")
}

func TestComponentTagsLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "filesum.log")
	logger, closer, err := New(config.LoggingConfig{FilePath: logPath, Level: "info"})
	require.NoError(t, err)

	componentLogger := Component(logger, "scanner")
	componentLogger.Info().Msg("hello")
	require.NoError(t, closer.Close())

	entries := readEntries(t, logPath)
	require.Len(t, entries, 1)
	assert.Equal(t, "scanner", entries[0]["component"])
}

func TestNewInstallsStackMarshaler(t *testing.T) {
	previous := zerolog.ErrorStackMarshaler
	zerolog.ErrorStackMarshaler = nil
	t.Cleanup(func() { zerolog.ErrorStackMarshaler = previous })

	logPath := filepath.Join(t.TempDir(), "filesum.log")
	logger, closer, err := New(config.LoggingConfig{FilePath: logPath, Level: "info"})
	require.NoError(t, err)
	require.NotNil(t, zerolog.ErrorStackMarshaler)

	logger.Info().Msg("stamped")
	require.NoError(t, closer.Close())

	entries := readEntries(t, logPath)
	require.Len(t, entries, 1)
	_, err = time.Parse(time.RFC3339, entries[0]["time"].(string))
	assert.NoError(t, err)
}
