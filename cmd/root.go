/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var (
	flagConfigDir string
	flagCacheDir  string
	flagDataDir   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scroblog",
	Short: "Submit portable-player listening logs to Last.fm",
	Long: `scroblog replays audioscrobbler logs (.scrobbler.log files written
by portable players such as Rockbox devices) against the Last.fm API.

Typical usage:

  scroblog auth                       # one-time session handshake
  scroblog submit --file .scrobbler.log
  scroblog history                    # what has been submitted so far

Credentials live in config.toml under the config directory; the session
key obtained by 'auth' is cached per user and reused until revoked.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "Config directory (default: ~/.config/scroblog)")
	rootCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "Session cache directory (default: ~/.cache/scroblog)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Data directory for the submission journal (default: ~/.local/share/scroblog)")
}

// configDir resolves the config directory, preferring the flag.
func configDir() (string, error) {
	if flagConfigDir != "" {
		return flagConfigDir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "scroblog"), nil
}

// cacheDir resolves the session cache directory, preferring the flag.
func cacheDir() (string, error) {
	if flagCacheDir != "" {
		return flagCacheDir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(base, "scroblog"), nil
}

// dataDir resolves the journal directory, preferring the flag. The
// directory is created if needed.
func dataDir() (string, error) {
	if flagDataDir != "" {
		if err := os.MkdirAll(flagDataDir, 0o755); err != nil {
			return "", fmt.Errorf("create data dir: %w", err)
		}
		return flagDataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}
	dir := filepath.Join(home, ".local", "share", "scroblog")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return dir, nil
}
