package checksum

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	internal "github.com/ZanzyTHEbar/filesum/fsum"
	"github.com/ZanzyTHEbar/filesum/fsum/filesystem/common"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Computer produces MD5 digests of file content, reading fixed-size blocks so that
// files larger than memory can be hashed.
type Computer struct {
	fs        afero.Fs
	blockSize int
	logger    zerolog.Logger
}

// New creates a checksum computer. A non-positive blockSize selects the default.
func New(fs afero.Fs, blockSize int, logger zerolog.Logger) *Computer {
	if blockSize <= 0 {
		blockSize = internal.DefaultBlockSize
	}
	return &Computer{
		fs:        fs,
		blockSize: blockSize,
		logger:    logger.With().Str("component", "checksum").Logger(),
	}
}

// BlockSize returns the read size in bytes
func (c *Computer) BlockSize() int {
	return c.blockSize
}

// Compute opens path and returns the lowercase hex MD5 of its full content.
// Open and read failures are logged with the path and returned as IOFailure; no
// partial digest is ever returned.
func (c *Computer) Compute(ctx context.Context, path string) (string, error) {
	file, err := c.fs.Open(path)
	if err != nil {
		err = common.IOError("open", path, err)
		c.logger.Error().Err(err).Str("path", path).Msg("Failed to calculate MD5")
		return "", err
	}
	defer file.Close()

	sum, err := c.sum(ctx, file)
	if err != nil {
		err = common.IOError("read", path, err)
		c.logger.Error().Err(err).Str("path", path).Msg("Failed to calculate MD5")
		return "", err
	}
	return sum, nil
}

// Sum hashes everything readable from r.
func (c *Computer) Sum(r io.Reader) (string, error) {
	return c.sum(context.Background(), r)
}

func (c *Computer) sum(ctx context.Context, r io.Reader) (string, error) {
	hasher := md5.New()
	block := make([]byte, c.blockSize)

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := r.Read(block)
		if n > 0 {
			hasher.Write(block[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed after reading block: %w", err)
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
