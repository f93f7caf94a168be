package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorNil(t *testing.T) {
	assert.Nil(t, NewError(KindIO, "open", "/x", nil))
	assert.Nil(t, FatalError("walk", "/x", nil))
}

func TestKindOf(t *testing.T) {
	base := &fs.PathError{Op: "open", Path: "/a", Err: os.ErrPermission}

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"io", IOError("open", "/a", base), KindIO},
		{"store", StoreError("upsert", "/a", base), KindStore},
		{"config", ConfigError("load", base), KindConfig},
		{"fatal", FatalError("schema", "", base), KindFatal},
		{"plain", base, KindUnknown},
		{"wrapped", errors.Join(IOError("read", "/a", base)), KindIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorUnwrapKeepsCause(t *testing.T) {
	err := IOError("open", "/a/b.txt", os.ErrPermission)

	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Equal(t, "/a/b.txt", PathOf(err))
	assert.Equal(t, "open /a/b.txt: permission denied", err.Error())

	fatal := FatalError("ensure schema", "", ErrInvalidIdentifier)
	assert.ErrorIs(t, fatal, ErrInvalidIdentifier)
	assert.Equal(t, "ensure schema: invalid SQL identifier", fatal.Error())
}

func TestLogErrorWritesContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	LogError(logger, "File processing failed", StoreError("upsert", "/a", errors.New("disk full")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "File processing failed", entry["message"])
	assert.Equal(t, "StoreFailure", entry["kind"])
	assert.Equal(t, "*errors.errorString", entry["type"])
	assert.Equal(t, "upsert /a: disk full", entry["error"])
}

func TestLogErrorIgnoresNil(t *testing.T) {
	var buf bytes.Buffer
	LogError(zerolog.New(&buf), "nothing", nil)
	assert.Zero(t, buf.Len())
}

func TestPathUtilsValidatePath(t *testing.T) {
	pu := NewPathUtils()

	assert.ErrorIs(t, pu.ValidatePath(""), ErrPathEmpty)
	assert.ErrorIs(t, pu.ValidatePath("  "), ErrPathEmpty)
	assert.ErrorIs(t, pu.ValidatePath("a\x00b"), ErrPathInvalid)
	assert.ErrorIs(t, pu.ValidatePath(string(bytes.Repeat([]byte("a"), 4097))), ErrPathTooLong)
	assert.NoError(t, pu.ValidatePath("/tmp/data"))
}

func TestRunMetrics(t *testing.T) {
	rm := NewRunMetrics()
	rm.RecordFile(10)
	rm.RecordFile(5)
	rm.RecordSkip()

	total, ok, failed := rm.Counts()
	assert.EqualValues(t, 3, total)
	assert.EqualValues(t, 2, ok)
	assert.EqualValues(t, 1, failed)
	assert.EqualValues(t, 15, rm.Bytes())
	assert.GreaterOrEqual(t, rm.Elapsed().Nanoseconds(), int64(0))
}
