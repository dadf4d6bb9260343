// Package submitter replays parsed listening logs against the Last.fm
// API and keeps a journal of what was accepted.
package submitter

import (
	"context"
	"fmt"
	"time"

	"github.com/nanont/scroblog/internal/asclog"
	"github.com/nanont/scroblog/pkg/lastfm"
	"github.com/rs/zerolog"
)

// BatchAPI is the slice of the Last.fm client the submitter needs.
// *lastfm.ScrobbleService satisfies it.
type BatchAPI interface {
	SubmitBatch(ctx context.Context, scrobbles []lastfm.Scrobble) (*lastfm.ScrobbleResult, error)
}

// Options configures a Submitter.
type Options struct {
	// TZOffset is subtracted from each log timestamp before
	// submission. Logs with #TZ/UNKNOWN carry device-local times.
	TZOffset time.Duration

	// DryRun parses, filters and reports without touching the network
	// or the journal.
	DryRun bool

	Logger zerolog.Logger
}

// Submitter drives log entries through the API in log order.
type Submitter struct {
	api     BatchAPI
	journal *Journal
	opts    Options
	logger  zerolog.Logger
}

// Result summarizes one submission run.
type Result struct {
	Parsed    int // entries in the log
	Listened  int // entries rated L
	Duplicate int // already in the journal, skipped
	Submitted int // sent and accepted
	Ignored   int // sent but ignored by Last.fm
}

// New creates a Submitter. The journal may be nil, in which case no
// dedupe is performed and nothing is recorded.
func New(api BatchAPI, journal *Journal, opts Options) *Submitter {
	return &Submitter{
		api:     api,
		journal: journal,
		opts:    opts,
		logger:  opts.Logger.With().Str("component", "submitter").Logger(),
	}
}

// Submit filters entries for listened tracks, drops the ones already
// journaled, and submits the rest in batches of up to 50, strictly in
// log order. Each accepted batch is journaled before the next one is
// sent, so a fatal error mid-run loses no record of what got through.
func (s *Submitter) Submit(ctx context.Context, entries []asclog.Entry) (*Result, error) {
	result := &Result{Parsed: len(entries)}

	listened := asclog.Listened(entries)
	result.Listened = len(listened)

	pending := make([]lastfm.Scrobble, 0, len(listened))
	for _, e := range listened {
		adjusted := e.Timestamp.Add(-s.opts.TZOffset)

		if s.journal != nil {
			seen, err := s.journal.Contains(ctx, e.Artist, e.Title, adjusted)
			if err != nil {
				return result, err
			}
			if seen {
				result.Duplicate++
				s.logger.Debug().
					Str("artist", e.Artist).
					Str("title", e.Title).
					Time("timestamp", adjusted).
					Msg("already journaled, skipping")
				continue
			}
		}

		pending = append(pending, lastfm.Scrobble{
			Track: lastfm.Track{
				Artist:      e.Artist,
				Track:       e.Title,
				Album:       e.Album,
				Duration:    e.Duration,
				TrackNumber: e.Position,
				MBTrackID:   e.MBID,
			},
			Timestamp: adjusted,
		})
	}

	if s.opts.DryRun {
		s.logger.Info().
			Int("listened", result.Listened).
			Int("duplicate", result.Duplicate).
			Int("would_submit", len(pending)).
			Msg("dry run, not submitting")
		return result, nil
	}

	for start := 0; start < len(pending); start += lastfm.MaxBatchSize {
		end := start + lastfm.MaxBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		resp, err := s.api.SubmitBatch(ctx, batch)
		if err != nil {
			return result, fmt.Errorf("submit batch of %d: %w", len(batch), err)
		}

		result.Submitted += resp.Accepted
		result.Ignored += resp.Ignored
		for _, outcome := range resp.Tracks {
			if outcome.IgnoredCode != 0 {
				s.logger.Warn().
					Str("artist", outcome.Artist).
					Str("title", outcome.Track).
					Int("code", outcome.IgnoredCode).
					Str("reason", outcome.IgnoredMessage).
					Msg("scrobble ignored")
			}
		}

		if s.journal != nil {
			if err := s.journal.Record(ctx, toSubmissions(batch)); err != nil {
				return result, fmt.Errorf("journal batch: %w", err)
			}
		}

		s.logger.Info().
			Int("batch", len(batch)).
			Int("accepted", resp.Accepted).
			Int("ignored", resp.Ignored).
			Msg("batch submitted")
	}

	return result, nil
}

func toSubmissions(batch []lastfm.Scrobble) []Submission {
	out := make([]Submission, len(batch))
	for i, sc := range batch {
		out[i] = Submission{
			Artist:    sc.Track.Artist,
			Title:     sc.Track.Track,
			Album:     sc.Track.Album,
			Timestamp: sc.Timestamp,
		}
	}
	return out
}
