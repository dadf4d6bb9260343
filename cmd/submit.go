package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nanont/scroblog/internal/asclog"
	"github.com/nanont/scroblog/internal/config"
	"github.com/nanont/scroblog/internal/session"
	"github.com/nanont/scroblog/internal/submitter"
	"github.com/nanont/scroblog/pkg/lastfm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	submitFile     string
	submitTZOffset time.Duration
	submitDryRun   bool
	submitLogLevel string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a listening log to Last.fm",
	Long: `Parse an audioscrobbler log and scrobble its listened entries.

The log header is validated (#AUDIOSCROBBLER/1.1, #TZ/UNKNOWN), entries
rated L are submitted in log order, and accepted entries are recorded in
a local journal. Entries already in the journal are skipped, so replaying
the same log after a partial failure never double-submits.

Log timestamps are device-local; --tz-offset (or core.tz_offset in the
config) is subtracted to turn them into UTC. For a device that was on
UTC+2, pass --tz-offset 2h.`,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVar(&submitFile, "file", "", "Path to the .scrobbler.log file (required)")
	submitCmd.Flags().DurationVar(&submitTZOffset, "tz-offset", 0, "Offset subtracted from log timestamps (overrides config)")
	submitCmd.Flags().BoolVar(&submitDryRun, "dry-run", false, "Parse and report without submitting")
	submitCmd.Flags().StringVar(&submitLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	_ = submitCmd.MarkFlagRequired("file")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	logger, err := newLogger(submitLogLevel)
	if err != nil {
		return err
	}

	cfgDir, err := configDir()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	tzOffset := cfg.Core.TZOffset
	if cmd.Flags().Changed("tz-offset") {
		tzOffset = submitTZOffset
	}

	cacheDir, err := cacheDir()
	if err != nil {
		return err
	}
	sessionKey, err := session.New(cacheDir).Load(cfg.Core.User)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return fmt.Errorf("no session key for %s; run 'scroblog auth' first", cfg.Core.User)
		}
		return err
	}

	entries, err := asclog.ParseFile(submitFile)
	if err != nil {
		return err
	}
	logger.Info().Str("file", submitFile).Int("entries", len(entries)).Msg("log parsed")

	client, err := lastfm.NewClient(lastfm.Config{
		APIKey:     cfg.API.Key,
		APISecret:  cfg.API.Secret,
		SessionKey: sessionKey,
		Logger:     zerologAdapter{logger},
	})
	if err != nil {
		return err
	}

	dataDir, err := dataDir()
	if err != nil {
		return err
	}
	journal, err := submitter.NewJournal(filepath.Join(dataDir, "journal.db"))
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer journal.Close()

	sub := submitter.New(client.Scrobble(), journal, submitter.Options{
		TZOffset: tzOffset,
		DryRun:   submitDryRun,
		Logger:   logger,
	})

	result, err := sub.Submit(ctx, entries)
	if err != nil {
		// Partial progress is already journaled; say so.
		if result != nil && result.Submitted > 0 {
			logger.Error().
				Int("submitted", result.Submitted).
				Msg("submission aborted; accepted entries are journaled and will be skipped on rerun")
		}
		return err
	}

	if submitDryRun {
		fmt.Printf("Dry run: %d entries, %d listened, %d already journaled, %d would be submitted\n",
			result.Parsed, result.Listened, result.Duplicate,
			result.Listened-result.Duplicate)
		return nil
	}

	fmt.Printf("Submitted %d of %d listened entries (%d duplicates skipped, %d ignored by Last.fm)\n",
		result.Submitted, result.Listened, result.Duplicate, result.Ignored)
	return nil
}

// newLogger builds the zerolog console logger for CLI runs.
func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger(), nil
}

// zerologAdapter lets the lastfm client debug-log through zerolog.
type zerologAdapter struct {
	logger zerolog.Logger
}

func (a zerologAdapter) Debugf(format string, args ...interface{}) {
	a.logger.Debug().Msgf(format, args...)
}
