package submitter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nanont/scroblog/internal/asclog"
	"github.com/nanont/scroblog/pkg/lastfm"
	"github.com/rs/zerolog"
)

// fakeAPI records every batch it is handed and accepts everything.
type fakeAPI struct {
	batches [][]lastfm.Scrobble
	err     error
}

func (f *fakeAPI) SubmitBatch(ctx context.Context, scrobbles []lastfm.Scrobble) (*lastfm.ScrobbleResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, scrobbles)
	return &lastfm.ScrobbleResult{Accepted: len(scrobbles)}, nil
}

func entry(title string, ts int64, rating string) asclog.Entry {
	return asclog.Entry{
		Artist:    "Artist",
		Title:     title,
		Duration:  240,
		Rating:    rating,
		Timestamp: time.Unix(ts, 0).UTC(),
	}
}

func TestSubmitFiltersSkipped(t *testing.T) {
	api := &fakeAPI{}
	s := New(api, newTestJournal(t), Options{Logger: zerolog.Nop()})

	entries := []asclog.Entry{
		entry("kept", 1000, asclog.RatingListened),
		entry("skipped", 2000, asclog.RatingSkipped),
	}

	result, err := s.Submit(context.Background(), entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Parsed != 2 || result.Listened != 1 || result.Submitted != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(api.batches) != 1 || len(api.batches[0]) != 1 {
		t.Fatalf("unexpected batches: %v", api.batches)
	}
	if api.batches[0][0].Track.Track != "kept" {
		t.Errorf("wrong track submitted: %q", api.batches[0][0].Track.Track)
	}
}

func TestSubmitAppliesTZOffset(t *testing.T) {
	api := &fakeAPI{}
	s := New(api, nil, Options{
		TZOffset: time.Hour,
		Logger:   zerolog.Nop(),
	})

	logTime := int64(1143374412)
	_, err := s.Submit(context.Background(), []asclog.Entry{
		entry("track", logTime, asclog.RatingListened),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Unix(logTime, 0).UTC().Add(-time.Hour)
	got := api.batches[0][0].Timestamp
	if !got.Equal(want) {
		t.Errorf("expected adjusted timestamp %v, got %v", want, got)
	}
}

func TestSubmitBatchesInLogOrder(t *testing.T) {
	api := &fakeAPI{}
	s := New(api, nil, Options{Logger: zerolog.Nop()})

	var entries []asclog.Entry
	for i := 0; i < 120; i++ {
		entries = append(entries, entry(fmt.Sprintf("track-%03d", i), int64(1000+i), asclog.RatingListened))
	}

	result, err := s.Submit(context.Background(), entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Submitted != 120 {
		t.Errorf("expected 120 submitted, got %d", result.Submitted)
	}
	if len(api.batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(api.batches))
	}
	if len(api.batches[0]) != 50 || len(api.batches[1]) != 50 || len(api.batches[2]) != 20 {
		t.Errorf("unexpected batch sizes: %d/%d/%d",
			len(api.batches[0]), len(api.batches[1]), len(api.batches[2]))
	}

	// Strict log order across batch boundaries.
	if api.batches[0][0].Track.Track != "track-000" {
		t.Errorf("first submission out of order: %q", api.batches[0][0].Track.Track)
	}
	if api.batches[2][19].Track.Track != "track-119" {
		t.Errorf("last submission out of order: %q", api.batches[2][19].Track.Track)
	}
}

func TestSubmitJournalDedupe(t *testing.T) {
	journal := newTestJournal(t)
	api := &fakeAPI{}
	s := New(api, journal, Options{Logger: zerolog.Nop()})

	entries := []asclog.Entry{
		entry("one", 1000, asclog.RatingListened),
		entry("two", 2000, asclog.RatingListened),
	}

	result, err := s.Submit(context.Background(), entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Submitted != 2 {
		t.Fatalf("expected 2 submitted, got %d", result.Submitted)
	}

	// Replaying the same log submits nothing.
	result, err = s.Submit(context.Background(), entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Duplicate != 2 {
		t.Errorf("expected 2 duplicates, got %d", result.Duplicate)
	}
	if result.Submitted != 0 {
		t.Errorf("expected 0 submitted on replay, got %d", result.Submitted)
	}
	if len(api.batches) != 1 {
		t.Errorf("expected no second batch, got %d", len(api.batches))
	}
}

func TestSubmitDryRun(t *testing.T) {
	journal := newTestJournal(t)
	api := &fakeAPI{}
	s := New(api, journal, Options{DryRun: true, Logger: zerolog.Nop()})

	result, err := s.Submit(context.Background(), []asclog.Entry{
		entry("track", 1000, asclog.RatingListened),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Submitted != 0 {
		t.Errorf("dry run submitted %d", result.Submitted)
	}
	if len(api.batches) != 0 {
		t.Error("dry run hit the API")
	}

	count, err := journal.Count(context.Background())
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 0 {
		t.Errorf("dry run wrote %d journal rows", count)
	}
}

func TestSubmitAPIErrorPreservesJournal(t *testing.T) {
	journal := newTestJournal(t)
	api := &fakeAPI{err: fmt.Errorf("boom")}
	s := New(api, journal, Options{Logger: zerolog.Nop()})

	_, err := s.Submit(context.Background(), []asclog.Entry{
		entry("track", 1000, asclog.RatingListened),
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	count, err := journal.Count(context.Background())
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 0 {
		t.Errorf("failed batch was journaled: %d rows", count)
	}
}
