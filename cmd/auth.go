package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nanont/scroblog/internal/config"
	"github.com/nanont/scroblog/internal/session"
	"github.com/nanont/scroblog/pkg/lastfm"
	"github.com/spf13/cobra"
)

var authForce bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with Last.fm",
	Long: `Perform the Last.fm session handshake and cache the session key.

This is a one-time, out-of-band step:
1. A request token is fetched from Last.fm
2. You authorize the token at the printed URL
3. The token is exchanged for a session key
4. The key is cached per user; 'submit' reads it from the cache

API credentials must already be present in config.toml. Session keys do
not expire; rerun this only after revoking the application on Last.fm,
or pass --force to replace an existing cached key.`,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.Flags().BoolVar(&authForce, "force", false, "Redo the handshake even if a session key is cached")
}

func runAuth(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfgDir, err := configDir()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cacheDir, err := cacheDir()
	if err != nil {
		return err
	}
	cache := session.New(cacheDir)

	if !authForce {
		if _, err := cache.Load(cfg.Core.User); err == nil {
			fmt.Printf("Session key for %s already cached at %s\n", cfg.Core.User, cache.Path(cfg.Core.User))
			fmt.Println("Use --force to redo the handshake.")
			return nil
		} else if !errors.Is(err, session.ErrNoSession) {
			return err
		}
	}

	client, err := lastfm.NewClient(lastfm.Config{
		APIKey:    cfg.API.Key,
		APISecret: cfg.API.Secret,
	})
	if err != nil {
		return err
	}

	fmt.Println("Requesting authentication token...")
	token, err := client.Auth().GetToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to get auth token: %w", err)
	}

	fmt.Println("\nPlease visit this URL to authorize scroblog:")
	fmt.Printf("\n  %s\n\n", client.Auth().AuthURL(token.Token))
	fmt.Println("After authorizing, press Enter to continue...")
	reader := bufio.NewReader(os.Stdin)
	_, _ = reader.ReadString('\n')

	// Authorization can take a moment to propagate; retry a few times
	// before giving up.
	fmt.Println("Retrieving session key...")
	var sess *lastfm.Session
	maxRetries := 3
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		sess, err = client.Auth().GetSession(ctx, token.Token)
		if err == nil {
			break
		}
		if i < maxRetries-1 {
			fmt.Printf("Failed to retrieve session (attempt %d/%d). Retrying in %v...\n",
				i+1, maxRetries, retryDelay)
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to get session key after %d attempts: %w", maxRetries, err)
	}

	if sess.Username != "" && sess.Username != cfg.Core.User {
		fmt.Printf("Note: authorized as %s, config says core.user = %s; caching under %s\n",
			sess.Username, cfg.Core.User, cfg.Core.User)
	}

	if err := cache.Store(cfg.Core.User, sess.Key); err != nil {
		return fmt.Errorf("failed to cache session key: %w", err)
	}

	fmt.Printf("\n✓ Authentication successful!\n")
	fmt.Printf("✓ Session key cached at %s\n", cache.Path(cfg.Core.User))
	fmt.Println("\nYou can now use 'scroblog submit' to replay a listening log.")

	return nil
}
