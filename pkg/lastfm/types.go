package lastfm

import "time"

// Track describes a track for scrobbling or now playing updates.
type Track struct {
	Artist      string // Required: artist name
	Track       string // Required: track name
	Album       string // Optional: album name
	AlbumArtist string // Optional: album artist, if different
	Duration    int    // Optional: duration in seconds
	TrackNumber int    // Optional: position on the album
	MBTrackID   string // Optional: MusicBrainz track ID
}

// Scrobble is a single listen: a track plus the time playback started.
type Scrobble struct {
	Track     Track
	Timestamp time.Time
}

// Token is an unauthorized request token from auth.getToken.
type Token struct {
	Token string
}

// Session is an authenticated session from auth.getSession.
type Session struct {
	Key        string // session key for authenticated requests
	Username   string // Last.fm username the token was authorized by
	Subscriber bool
}

// NowPlayingResult is the parsed response of track.updateNowPlaying.
type NowPlayingResult struct {
	Artist         string
	Track          string
	Album          string
	AlbumArtist    string
	IgnoredCode    int
	IgnoredMessage string
}

// ScrobbleResult reports the outcome of a track.scrobble call.
type ScrobbleResult struct {
	Accepted int
	Ignored  int
	Tracks   []ScrobbleOutcome
}

// ScrobbleOutcome is the per-track detail inside a ScrobbleResult.
type ScrobbleOutcome struct {
	Artist         string
	Track          string
	Album          string
	Timestamp      int64
	IgnoredCode    int
	IgnoredMessage string
}
