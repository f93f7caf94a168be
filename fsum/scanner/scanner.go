package scanner

import (
	"context"
	"iter"
	"time"

	internal "github.com/ZanzyTHEbar/filesum/fsum"
	"github.com/ZanzyTHEbar/filesum/fsum/filesystem/common"
	"github.com/ZanzyTHEbar/filesum/fsum/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// PathSource lazily yields regular file paths under a root
type PathSource interface {
	Walk(root string) iter.Seq2[string, error]
}

// FileProcessor records a single file
type FileProcessor interface {
	Process(ctx context.Context, path string) (*models.FileRecord, error)
}

// SchemaEnsurer prepares the store before the first write
type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// State is the lifecycle position of a run
type State string

const (
	StateNotStarted     State = "not_started"
	StateSchemaReady    State = "schema_ready"
	StateIterating      State = "iterating"
	StateCompleted      State = "completed"
	StateFatallyAborted State = "fatally_aborted"
)

// Summary reports the outcome of one run. Total is always Processed + Skipped.
type Summary struct {
	RunID     uuid.UUID     `json:"run_id"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Total     int           `json:"total"`
	Bytes     int64         `json:"bytes"`
	Duration  time.Duration `json:"duration"`
	State     State         `json:"state"`
}

type Option func(*Scanner)

// WithWorkers sets how many files are processed concurrently. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n < 1 {
			n = 1
		}
		s.workers = n
	}
}

// Scanner drives one full pass: schema, walk, per-file processing and tallies.
type Scanner struct {
	walker    PathSource
	processor FileProcessor
	store     SchemaEnsurer
	logger    zerolog.Logger
	workers   int
}

func New(walker PathSource, processor FileProcessor, store SchemaEnsurer, logger zerolog.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		walker:    walker,
		processor: processor,
		store:     store,
		logger:    logger.With().Str("component", "scanner").Logger(),
		workers:   internal.DefaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scans root once. Per-file failures are logged and counted as skipped; schema
// failures, root failures and cancellation abort the run with a FatalRunFailure. The
// returned Summary is never nil.
func (s *Scanner) Run(ctx context.Context, root string) (*Summary, error) {
	summary := &Summary{RunID: uuid.New(), State: StateNotStarted}
	metrics := common.NewRunMetrics()
	logger := s.logger.With().Str("run_id", summary.RunID.String()).Str("root", root).Logger()

	logger.Info().Int("workers", s.workers).Msg("Starting scan")

	if err := s.store.EnsureSchema(ctx); err != nil {
		return s.finish(summary, metrics, common.FatalError("ensure schema", "", err))
	}
	summary.State = StateSchemaReady

	summary.State = StateIterating
	var err error
	if s.workers > 1 {
		err = s.iterateParallel(ctx, root, metrics, logger)
	} else {
		err = s.iterate(ctx, root, metrics, logger)
	}
	if err != nil {
		return s.finish(summary, metrics, err)
	}

	summary, _ = s.finish(summary, metrics, nil)
	logger.Info().
		Int("processed", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("total", summary.Total).
		Int64("bytes", summary.Bytes).
		Dur("duration", summary.Duration).
		Msg("Scan completed")
	return summary, nil
}

func (s *Scanner) finish(summary *Summary, metrics *common.RunMetrics, err error) (*Summary, error) {
	total, ok, failed := metrics.Counts()
	summary.Processed = int(ok)
	summary.Skipped = int(failed)
	summary.Total = int(total)
	summary.Bytes = metrics.Bytes()
	summary.Duration = metrics.Elapsed()
	if err != nil {
		summary.State = StateFatallyAborted
		return summary, err
	}
	summary.State = StateCompleted
	return summary, nil
}

func (s *Scanner) iterate(ctx context.Context, root string, metrics *common.RunMetrics, logger zerolog.Logger) error {
	for path, walkErr := range s.walker.Walk(root) {
		if err := ctx.Err(); err != nil {
			return common.FatalError("scan", root, err)
		}
		if walkErr != nil {
			if common.KindOf(walkErr) == common.KindFatal {
				return walkErr
			}
			s.skip(logger, metrics, common.PathOf(walkErr), walkErr)
			continue
		}
		s.attempt(ctx, logger, metrics, path)
	}
	if err := ctx.Err(); err != nil {
		return common.FatalError("scan", root, err)
	}
	return nil
}

// iterateParallel walks on the calling goroutine and hands each path to a bounded pool.
// Per-file failures are absorbed by attempt, so tasks have nothing to return.
func (s *Scanner) iterateParallel(ctx context.Context, root string, metrics *common.RunMetrics, logger zerolog.Logger) error {
	p := pool.New().WithMaxGoroutines(s.workers)

	var fatal error
	for path, walkErr := range s.walker.Walk(root) {
		if err := ctx.Err(); err != nil {
			fatal = common.FatalError("scan", root, err)
			break
		}
		if walkErr != nil {
			if common.KindOf(walkErr) == common.KindFatal {
				fatal = walkErr
				break
			}
			s.skip(logger, metrics, common.PathOf(walkErr), walkErr)
			continue
		}
		p.Go(func() {
			s.attempt(ctx, logger, metrics, path)
		})
	}

	p.Wait()
	if fatal != nil {
		return fatal
	}
	if err := ctx.Err(); err != nil {
		return common.FatalError("scan", root, err)
	}
	return nil
}

func (s *Scanner) attempt(ctx context.Context, logger zerolog.Logger, metrics *common.RunMetrics, path string) {
	record, err := s.processor.Process(ctx, path)
	if err != nil {
		s.skip(logger, metrics, path, err)
		return
	}
	metrics.RecordFile(record.FileSize)
	logger.Debug().Str("path", path).Str("md5", record.MD5Hash).Msg("Recorded file")
}

func (s *Scanner) skip(logger zerolog.Logger, metrics *common.RunMetrics, path string, err error) {
	metrics.RecordSkip()
	logger.Warn().
		Str("path", path).
		Str("kind", common.KindOf(err).String()).
		Err(err).
		Msg("Skipping file")
}
