package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	internal "github.com/ZanzyTHEbar/filesum/fsum"
	"github.com/ZanzyTHEbar/filesum/fsum/config"
	"github.com/ZanzyTHEbar/filesum/fsum/db"
	"github.com/ZanzyTHEbar/filesum/fsum/filesystem/checksum"
	"github.com/ZanzyTHEbar/filesum/fsum/filesystem/common"
	"github.com/ZanzyTHEbar/filesum/fsum/filesystem/walker"
	"github.com/ZanzyTHEbar/filesum/fsum/logging"
	"github.com/ZanzyTHEbar/filesum/fsum/models"
	"github.com/ZanzyTHEbar/filesum/fsum/processor"
	"github.com/ZanzyTHEbar/filesum/fsum/scanner"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	out        io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:           "filesum",
		Short:         "Record the size and MD5 digest of every file under a directory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config file (default ./config.yaml or ~/.config/filesum/config.yaml)")

	scanCmd := &cobra.Command{
		Use:   "scan [config]",
		Short: "Walk root_path and upsert a record for every regular file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runScan,
	}
	listCmd := &cobra.Command{
		Use:   "list [config]",
		Short: "Print every stored record",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runList,
	}
	showCmd := &cobra.Command{
		Use:   "show <path>",
		Short: "Print the stored record for one file path",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runShow,
	}

	rootCmd.AddCommand(scanCmd, listCmd, showCmd)
	return rootCmd
}

// loadConfig prefers --config, then the positional argument, then the search path
func (a *app) loadConfig(args []string) (*config.Config, error) {
	path := a.configPath
	if path == "" && len(args) > 0 {
		path = args[0]
	}
	return config.LoadConfig(path)
}

// session holds what every subcommand needs once configuration is loaded
type session struct {
	cfg     *config.Config
	logger  zerolog.Logger
	store   *db.Store
	closer  io.Closer
	console zerolog.Logger // reports failures once the log file is gone
}

func (s *session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to close store")
		}
	}
	if err := s.closer.Close(); err != nil {
		s.console.Warn().Err(err).Msg("Failed to close log file")
	}
}

func (a *app) open(cmd *cobra.Command, args []string) (*session, error) {
	cfg, err := a.loadConfig(args)
	if err != nil {
		return nil, err
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	store, err := db.Open(cmd.Context(), cfg.Database, logger)
	if err != nil {
		common.LogError(logger, "Failed to open metadata store", err)
		closer.Close()
		return nil, common.FatalError("open store", "", err)
	}

	return &session{cfg: cfg, logger: logger, store: store, closer: closer, console: internal.GetLogger()}, nil
}

func (a *app) runScan(cmd *cobra.Command, args []string) error {
	s, err := a.open(cmd, args)
	if err != nil {
		return err
	}
	defer s.Close()

	fs := afero.NewOsFs()
	sum := checksum.New(fs, s.cfg.Processing.BlockSize, s.logger)
	proc := processor.New(fs, sum, s.store, s.logger)
	w := walker.New(fs, walker.WithIgnoreFile(s.cfg.Processing.IgnoreFile))
	sc := scanner.New(w, proc, s.store, s.logger, scanner.WithWorkers(s.cfg.Processing.Workers))

	summary, err := sc.Run(cmd.Context(), s.cfg.RootPath)
	if err != nil {
		common.LogError(s.logger.With().Str("run_id", summary.RunID.String()).Logger(), "Scan aborted", err)
		return err
	}

	fmt.Fprintf(a.out, "run %s: processed=%d skipped=%d total=%d in %s\n",
		summary.RunID, summary.Processed, summary.Skipped, summary.Total, summary.Duration.Round(time.Millisecond))
	return nil
}

func (a *app) runList(cmd *cobra.Command, args []string) error {
	s, err := a.open(cmd, args)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.store.EnsureSchema(cmd.Context()); err != nil {
		return err
	}

	records, err := s.store.List(cmd.Context())
	if err != nil {
		return err
	}
	for _, record := range records {
		printRecord(a.out, record)
	}
	return nil
}

func (a *app) runShow(cmd *cobra.Command, args []string) error {
	s, err := a.open(cmd, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.store.EnsureSchema(cmd.Context()); err != nil {
		return err
	}

	record, err := s.store.Get(cmd.Context(), args[0])
	if errors.Is(err, db.ErrNotFound) {
		fmt.Fprintln(a.out, "not found")
		return nil
	}
	if err != nil {
		return err
	}
	printRecord(a.out, record)
	return nil
}

func printRecord(out io.Writer, record *models.FileRecord) {
	fmt.Fprintf(out, "%s\t%d\t%s\t%s\t%s\n",
		record.FilePath, record.FileSize, record.MD5Hash, record.Status, record.ProcessedAt.Format(time.RFC3339))
}
