// Package asclog parses portable-player listening logs in the
// AUDIOSCROBBLER/1.1 format (Rockbox and friends write these as
// .scrobbler.log).
//
// The file starts with fixed header lines:
//
//	#AUDIOSCROBBLER/1.1
//	#TZ/UNKNOWN
//	#CLIENT/Rockbox h3xx 1.1        (optional)
//
// followed by one tab-separated record per played track:
//
//	artist, album, title, position, duration, rating, timestamp, mbid
//
// Rating is L for listened (played at least half) or S for skipped.
// Only listened entries are eligible for submission.
package asclog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Header sentinels. The format line and timezone marker must match
// exactly; a log in another version or timezone convention is rejected
// rather than submitted with wrong timestamps.
const (
	HeaderFormat = "#AUDIOSCROBBLER/1.1"
	HeaderTZ     = "#TZ/UNKNOWN"

	clientHeaderPrefix = "#CLIENT/"
)

// Ratings recorded by the player.
const (
	RatingListened = "L"
	RatingSkipped  = "S"
)

const fieldsPerLine = 8

// Entry is one parsed log record. Immutable once created.
type Entry struct {
	Artist    string
	Album     string // optional
	Title     string
	Position  int // track position on album, 0 if absent
	Duration  int // seconds
	Rating    string
	Timestamp time.Time // as recorded by the player
	MBID      string    // MusicBrainz track ID, optional
}

// Listened reports whether the track was played far enough to count.
func (e Entry) Listened() bool {
	return e.Rating == RatingListened
}

// ParseFile reads and parses a log file from disk.
func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Parse validates the header and parses every data line. A log with a
// bad header or without a single data line is rejected outright.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if err := expectLine(scanner, HeaderFormat); err != nil {
		return nil, err
	}
	if err := expectLine(scanner, HeaderTZ); err != nil {
		return nil, err
	}

	var entries []Entry
	lineNo := 2
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		// Players append a client identification header after the two
		// fixed lines.
		if lineNo == 3 && strings.HasPrefix(line, clientHeaderPrefix) {
			continue
		}

		entry, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no data lines after header")
	}
	return entries, nil
}

// Listened filters entries down to those rated L. Skipped tracks are
// dropped without comment; that is what the rating is for.
func Listened(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Listened() {
			out = append(out, e)
		}
	}
	return out
}

func expectLine(scanner *bufio.Scanner, want string) error {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read log: %w", err)
		}
		return fmt.Errorf("missing header line %q", want)
	}
	if got := scanner.Text(); got != want {
		return fmt.Errorf("bad header: got %q, want %q", got, want)
	}
	return nil
}

func parseLine(line string) (Entry, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != fieldsPerLine {
		return Entry{}, fmt.Errorf("expected %d tab-separated fields, got %d", fieldsPerLine, len(fields))
	}

	entry := Entry{
		Artist: fields[0],
		Album:  fields[1],
		Title:  fields[2],
		Rating: fields[5],
		MBID:   fields[7],
	}

	if entry.Artist == "" {
		return Entry{}, fmt.Errorf("artist is required")
	}
	if entry.Title == "" {
		return Entry{}, fmt.Errorf("title is required")
	}
	if entry.Rating == "" {
		return Entry{}, fmt.Errorf("rating is required")
	}

	if fields[3] != "" {
		pos, err := strconv.Atoi(fields[3])
		if err != nil {
			return Entry{}, fmt.Errorf("bad position %q: %w", fields[3], err)
		}
		entry.Position = pos
	}

	dur, err := strconv.Atoi(fields[4])
	if err != nil {
		return Entry{}, fmt.Errorf("bad duration %q: %w", fields[4], err)
	}
	entry.Duration = dur

	ts, err := strconv.ParseInt(fields[6], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("bad timestamp %q: %w", fields[6], err)
	}
	entry.Timestamp = time.Unix(ts, 0).UTC()

	return entry, nil
}
