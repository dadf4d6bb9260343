package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/nanont/scroblog/internal/submitter"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show submitted scrobbles",
	Long: `List the scrobbles recorded in the local submission journal,
newest first. The journal only contains entries Last.fm accepted.`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show at most n entries (0 = all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	dataDir, err := dataDir()
	if err != nil {
		return err
	}
	journal, err := submitter.NewJournal(filepath.Join(dataDir, "journal.db"))
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer journal.Close()

	submissions, err := journal.List(ctx)
	if err != nil {
		return err
	}
	if len(submissions) == 0 {
		fmt.Println("No submissions recorded yet.")
		return nil
	}
	if historyLimit > 0 && len(submissions) > historyLimit {
		submissions = submissions[:historyLimit]
	}

	const (
		artistWidth = 24
		titleWidth  = 32
	)

	fmt.Printf("%s  %s  %s\n",
		pad("ARTIST", artistWidth),
		pad("TITLE", titleWidth),
		"PLAYED AT")
	for _, s := range submissions {
		fmt.Printf("%s  %s  %s\n",
			pad(s.Artist, artistWidth),
			pad(s.Title, titleWidth),
			s.Timestamp.Format(time.DateTime))
	}

	return nil
}

// pad truncates or pads text to a fixed display width, measured in
// terminal columns so CJK names line up.
func pad(text string, width int) string {
	w := runewidth.StringWidth(text)
	if w > width {
		return runewidth.Truncate(text, width, "...")
	}
	return text + strings.Repeat(" ", width-w)
}
