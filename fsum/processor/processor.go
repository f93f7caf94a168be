package processor

import (
	"context"
	"path/filepath"

	internal "github.com/ZanzyTHEbar/filesum/fsum"
	"github.com/ZanzyTHEbar/filesum/fsum/filesystem/checksum"
	"github.com/ZanzyTHEbar/filesum/fsum/filesystem/common"
	"github.com/ZanzyTHEbar/filesum/fsum/models"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Upserter persists a single file record
type Upserter interface {
	Upsert(ctx context.Context, record *models.FileRecord) error
}

// Processor turns one path into a stored FileRecord
type Processor struct {
	fs     afero.Fs
	sum    *checksum.Computer
	store  Upserter
	logger zerolog.Logger
}

func New(fs afero.Fs, sum *checksum.Computer, store Upserter, logger zerolog.Logger) *Processor {
	return &Processor{
		fs:     fs,
		sum:    sum,
		store:  store,
		logger: logger.With().Str("component", "processor").Logger(),
	}
}

// Process stats and hashes path, then upserts the resulting record. Stat and read
// failures are IOFailure, upsert failures are StoreFailure. Nothing is stored on error.
func (p *Processor) Process(ctx context.Context, path string) (*models.FileRecord, error) {
	info, err := p.fs.Stat(path)
	if err != nil {
		return nil, common.IOError("stat", path, err)
	}

	digest, err := p.sum.Compute(ctx, path)
	if err != nil {
		return nil, err
	}

	record := &models.FileRecord{
		FileName: filepath.Base(path),
		FilePath: path,
		FileSize: info.Size(),
		MD5Hash:  digest,
		Status:   internal.StatusProcessed,
	}

	if err := p.store.Upsert(ctx, record); err != nil {
		if common.KindOf(err) == common.KindUnknown {
			err = common.StoreError("upsert", path, err)
		}
		return nil, err
	}

	p.logger.Debug().
		Str("path", path).
		Int64("size", record.FileSize).
		Str("md5", digest).
		Msg("Processed file")
	return record, nil
}
