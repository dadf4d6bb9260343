// Package session persists Last.fm session keys between runs.
//
// A session key is obtained once via the token handshake (scroblog
// auth) and is valid until the user revokes it on Last.fm. The cache is
// one small file per username; revoking out of band means deleting the
// file.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoSession is returned by Load when no key is cached for the user.
var ErrNoSession = errors.New("no cached session key")

// Cache stores session keys under an explicit directory, one file per
// username.
type Cache struct {
	dir string
}

// New creates a cache rooted at dir. The directory is created lazily on
// the first Store.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Path returns the cache file path for a username.
func (c *Cache) Path(user string) string {
	return filepath.Join(c.dir, user+".session")
}

// Load reads the cached session key for user. Returns ErrNoSession if
// the file does not exist or is empty.
func (c *Cache) Load(user string) (string, error) {
	data, err := os.ReadFile(c.Path(user))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w for %q", ErrNoSession, user)
		}
		return "", fmt.Errorf("read session cache: %w", err)
	}

	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("%w for %q (cache file is empty)", ErrNoSession, user)
	}
	return key, nil
}

// Store writes the session key for user. The file is mode 0600; the key
// authorizes writes to the user's listening history.
func (c *Cache) Store(user, key string) error {
	if key == "" {
		return errors.New("refusing to store empty session key")
	}
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(c.Path(user), []byte(key+"\n"), 0o600); err != nil {
		return fmt.Errorf("write session cache: %w", err)
	}
	return nil
}
