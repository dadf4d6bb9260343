package lastfm

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// ScrobbleService submits listens to Last.fm.
type ScrobbleService struct {
	client *Client
}

// MaxBatchSize is the largest number of scrobbles Last.fm accepts in a
// single track.scrobble call.
const MaxBatchSize = 50

// UpdateNowPlaying sets the "now playing" status. Does not count as a
// scrobble. Requires a session key.
func (s *ScrobbleService) UpdateNowPlaying(ctx context.Context, track Track) (*NowPlayingResult, error) {
	params := map[string]string{
		"artist": track.Artist,
		"track":  track.Track,
	}
	addOptionalTrackParams(params, "", track)

	inner, err := s.client.post(ctx, "track.updateNowPlaying", params, true)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Artist      string `xml:"nowplaying>artist"`
		Track       string `xml:"nowplaying>track"`
		Album       string `xml:"nowplaying>album"`
		AlbumArtist string `xml:"nowplaying>albumArtist"`
		Ignored     struct {
			Code int    `xml:"code,attr"`
			Text string `xml:",chardata"`
		} `xml:"nowplaying>ignoredMessage"`
	}
	if err := xml.Unmarshal(wrap(inner), &resp); err != nil {
		return nil, fmt.Errorf("lastfm: parse now playing response: %w", err)
	}

	return &NowPlayingResult{
		Artist:         resp.Artist,
		Track:          resp.Track,
		Album:          resp.Album,
		AlbumArtist:    resp.AlbumArtist,
		IgnoredCode:    resp.Ignored.Code,
		IgnoredMessage: strings.TrimSpace(resp.Ignored.Text),
	}, nil
}

// Submit scrobbles a single track. Requires a session key.
func (s *ScrobbleService) Submit(ctx context.Context, scrobble Scrobble) (*ScrobbleResult, error) {
	return s.SubmitBatch(ctx, []Scrobble{scrobble})
}

// SubmitBatch scrobbles up to MaxBatchSize tracks in one call using
// indexed parameters (artist[0], track[0], ...). Larger slices are an
// error; callers are expected to chunk.
func (s *ScrobbleService) SubmitBatch(ctx context.Context, scrobbles []Scrobble) (*ScrobbleResult, error) {
	if len(scrobbles) == 0 {
		return &ScrobbleResult{}, nil
	}
	if len(scrobbles) > MaxBatchSize {
		return nil, fmt.Errorf("lastfm: batch of %d exceeds limit of %d", len(scrobbles), MaxBatchSize)
	}

	params := make(map[string]string, len(scrobbles)*4)
	for i, sc := range scrobbles {
		idx := "[" + strconv.Itoa(i) + "]"
		params["artist"+idx] = sc.Track.Artist
		params["track"+idx] = sc.Track.Track
		params["timestamp"+idx] = strconv.FormatInt(sc.Timestamp.Unix(), 10)
		addOptionalTrackParams(params, idx, sc.Track)
	}

	inner, err := s.client.post(ctx, "track.scrobble", params, true)
	if err != nil {
		return nil, err
	}
	return parseScrobbleResult(inner)
}

func addOptionalTrackParams(params map[string]string, idx string, track Track) {
	if track.Album != "" {
		params["album"+idx] = track.Album
	}
	if track.AlbumArtist != "" {
		params["albumArtist"+idx] = track.AlbumArtist
	}
	if track.Duration > 0 {
		params["duration"+idx] = strconv.Itoa(track.Duration)
	}
	if track.TrackNumber > 0 {
		params["trackNumber"+idx] = strconv.Itoa(track.TrackNumber)
	}
	if track.MBTrackID != "" {
		params["mbid"+idx] = track.MBTrackID
	}
}

func parseScrobbleResult(inner []byte) (*ScrobbleResult, error) {
	var resp struct {
		Scrobbles struct {
			Accepted string `xml:"accepted,attr"`
			Ignored  string `xml:"ignored,attr"`
			Items    []struct {
				Artist    string `xml:"artist"`
				Track     string `xml:"track"`
				Album     string `xml:"album"`
				Timestamp string `xml:"timestamp"`
				Ignored   struct {
					Code int    `xml:"code,attr"`
					Text string `xml:",chardata"`
				} `xml:"ignoredMessage"`
			} `xml:"scrobble"`
		} `xml:"scrobbles"`
	}
	if err := xml.Unmarshal(wrap(inner), &resp); err != nil {
		return nil, fmt.Errorf("lastfm: parse scrobble response: %w", err)
	}

	result := &ScrobbleResult{
		Accepted: atoiOrZero(resp.Scrobbles.Accepted),
		Ignored:  atoiOrZero(resp.Scrobbles.Ignored),
		Tracks:   make([]ScrobbleOutcome, len(resp.Scrobbles.Items)),
	}
	for i, item := range resp.Scrobbles.Items {
		ts, _ := strconv.ParseInt(item.Timestamp, 10, 64)
		result.Tracks[i] = ScrobbleOutcome{
			Artist:         item.Artist,
			Track:          item.Track,
			Album:          item.Album,
			Timestamp:      ts,
			IgnoredCode:    item.Ignored.Code,
			IgnoredMessage: strings.TrimSpace(item.Ignored.Text),
		}
	}
	return result, nil
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
