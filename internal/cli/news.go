// internal/cli/news.go
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/law-makers/schoolsoft/internal/downloader"
	"github.com/law-makers/schoolsoft/internal/extractor"
	"github.com/law-makers/schoolsoft/internal/reqctx"
	"github.com/law-makers/schoolsoft/internal/ui"
	"github.com/law-makers/schoolsoft/internal/utils/output"
	"github.com/law-makers/schoolsoft/pkg/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var attachmentsDir string

// newsCmd represents the news command
var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Read the news feed",
	Long: `Fetches every news item visible to the logged-in user, grouped by category.
Items the portal renders collapsed are completed with one extra request each.

Bodies are kept as the portal's HTML in JSON and CSV exports; the terminal
and Markdown views convert them to Markdown.`,
	Example: `  # Print the news feed
  schoolsoft news

  # Export as JSON, CSV or Markdown (picked by extension)
  schoolsoft news -o news.json
  schoolsoft news -o news.md

  # Also download attachments
  schoolsoft news --attachments=./bilagor`,
	Args: cobra.NoArgs,
	RunE: runNews,
}

func init() {
	rootCmd.AddCommand(newsCmd)

	newsCmd.Flags().StringVarP(&outputPath, "output", "o", "", "File path to save output (.json, .csv or .md)")
	newsCmd.Flags().StringVar(&attachmentsDir, "attachments", "", "Download attachments into this directory")
}

func runNews(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}
	s, err := a.Session()
	if err != nil {
		return err
	}

	items, err := extractor.FetchNews(ctx, s)
	if err != nil {
		return reqctx.NewRequestError(ctx, err)
	}
	pageURL := s.PageURL(extractor.NewsPath)

	w := cmd.OutOrStdout()
	switch {
	case outputPath != "":
		if err := saveNews(items, pageURL, outputPath); err != nil {
			return err
		}
		printSaved(w, "news items", outputPath, len(items))
	case a.Config.JSONLog:
		if err := output.WriteJSON(w, items); err != nil {
			return err
		}
	case len(items) == 0:
		fmt.Fprintf(w, "\n%s\n\n", ui.Info("No news."))
	default:
		if err := output.WriteNewsMarkdown(w, items, pageURL); err != nil {
			return err
		}
	}

	if attachmentsDir == "" {
		return nil
	}

	dl := downloader.NewDownloader(s, pageURL)
	if term.IsTerminal(int(os.Stderr.Fd())) {
		dl.Progress = os.Stderr
	}
	results := dl.DownloadAll(ctx, items, attachmentsDir)
	printDownloads(cmd.ErrOrStderr(), results)

	if err := ctx.Err(); err != nil {
		return reqctx.NewRequestError(ctx, err)
	}
	return nil
}

func saveNews(items []models.NewsItem, pageURL, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return output.SaveJSON(items, path)
	case ".csv":
		return output.SaveNewsCSV(items, path)
	case ".md", ".markdown":
		return output.SaveNewsMarkdown(items, pageURL, path)
	default:
		return fmt.Errorf("unsupported output format %q (use .json, .csv or .md)", filepath.Ext(path))
	}
}

func printDownloads(w io.Writer, results []*downloader.DownloadResult) {
	if len(results) == 0 {
		fmt.Fprintf(w, "%s\n", ui.Info("No attachments to download."))
		return
	}

	var ok, failed int
	var size int64
	var took time.Duration
	for _, r := range results {
		if r.Success {
			ok++
			size += r.Size
			took += r.Duration
			fmt.Fprintf(w, "  %s %s\n", ui.Success("✓"), r.FilePath)
			continue
		}
		failed++
		fmt.Fprintf(w, "  %s news %d: %v\n", ui.Error("✗"), r.NewsID, r.Error)
	}

	summary := fmt.Sprintf("%d downloaded, %d failed (%.1f KB in %s)", ok, failed, float64(size)/1024, took.Round(time.Millisecond))
	if failed > 0 {
		summary = ui.Warn(summary)
	}
	fmt.Fprintf(w, "\n%s %s\n", ui.Bold("Attachments:"), summary)
}
