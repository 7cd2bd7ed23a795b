// internal/downloader/downloader.go
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/law-makers/schoolsoft/internal/portal"
	urlutil "github.com/law-makers/schoolsoft/internal/utils/url"
	"github.com/law-makers/schoolsoft/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// Fetcher performs authenticated GETs. *portal.Session implements it.
type Fetcher interface {
	FetchAuthenticated(ctx context.Context, rawURL string) (*portal.FetchResult, error)
}

// DownloadResult represents the result of one attachment download
type DownloadResult struct {
	NewsID    int
	URL       string
	FilePath  string
	Size      int64
	Success   bool
	Error     error
	StartTime time.Time
	Duration  time.Duration
}

// Downloader saves news attachments through the portal session so they are
// fetched with the session cookies.
type Downloader struct {
	fetcher Fetcher
	pageURL string

	// Progress receives the progress bar of DownloadAll; nil disables it
	Progress io.Writer
}

// NewDownloader creates a Downloader. pageURL is the news page the items
// were extracted from; relative attachment links resolve against it.
func NewDownloader(f Fetcher, pageURL string) *Downloader {
	return &Downloader{fetcher: f, pageURL: pageURL}
}

// Download saves item's attachment into dir. Items without an attachment
// yield a failed result.
func (d *Downloader) Download(ctx context.Context, item models.NewsItem, dir string) *DownloadResult {
	result := &DownloadResult{
		NewsID:    item.ID,
		StartTime: time.Now(),
	}
	fail := func(err error) *DownloadResult {
		result.Error = err
		result.Duration = time.Since(result.StartTime)
		return result
	}

	if !item.HasAttachment() {
		return fail(fmt.Errorf("news %d has no attachment", item.ID))
	}

	result.URL = urlutil.ResolveURL(d.pageURL, item.AttachmentURL)
	if _, err := url.Parse(result.URL); err != nil {
		return fail(fmt.Errorf("invalid URL: %w", err))
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fail(fmt.Errorf("failed to create output directory: %w", err))
	}
	result.FilePath = filepath.Join(dir, attachmentFilename(item, result.URL))

	res, err := d.fetcher.FetchAuthenticated(ctx, result.URL)
	if err != nil {
		return fail(err)
	}
	if res.StatusCode != http.StatusOK {
		return fail(fmt.Errorf("bad status: %d", res.StatusCode))
	}

	if err := os.WriteFile(result.FilePath, []byte(res.Body), 0644); err != nil {
		os.Remove(result.FilePath)
		return fail(fmt.Errorf("failed to write file: %w", err))
	}

	result.Size = int64(len(res.Body))
	result.Success = true
	result.Duration = time.Since(result.StartTime)

	log.Debug().
		Int("news_id", item.ID).
		Str("url", result.URL).
		Str("file", result.FilePath).
		Int64("bytes", result.Size).
		Dur("duration", result.Duration).
		Msg("Download completed")

	return result
}

// DownloadAll downloads every attachment among items, one at a time in item
// order. Items without an attachment are skipped. A cancelled context stops
// the remaining downloads.
func (d *Downloader) DownloadAll(ctx context.Context, items []models.NewsItem, dir string) []*DownloadResult {
	var pending []models.NewsItem
	for _, item := range items {
		if item.HasAttachment() {
			pending = append(pending, item)
		}
	}

	results := make([]*DownloadResult, 0, len(pending))
	if len(pending) == 0 {
		return results
	}

	var bar *progressbar.ProgressBar
	if d.Progress != nil {
		bar = progressbar.NewOptions(len(pending),
			progressbar.OptionSetWriter(d.Progress),
			progressbar.OptionSetDescription("Downloading attachments"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	for _, item := range pending {
		if err := ctx.Err(); err != nil {
			results = append(results, &DownloadResult{NewsID: item.ID, URL: item.AttachmentURL, Error: err, StartTime: time.Now()})
			continue
		}
		res := d.Download(ctx, item, dir)
		if !res.Success {
			log.Warn().Err(res.Error).Int("news_id", item.ID).Msg("Attachment download failed")
		}
		results = append(results, res)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	return results
}

// attachmentFilename prefixes the sanitized attachment name with the news id
// so attachments of different items never collide. The extension is taken
// from the URL when the title has none.
func attachmentFilename(item models.NewsItem, rawURL string) string {
	name := sanitizeFilename(item.AttachmentName)
	urlName := ""
	if u, err := url.Parse(rawURL); err == nil {
		urlName = sanitizeFilename(path.Base(u.Path))
	}
	if name == "" {
		name = urlName
	} else if filepath.Ext(name) == "" {
		name += filepath.Ext(urlName)
	}
	if name == "" {
		name = "attachment"
	}
	return strconv.Itoa(item.ID) + "_" + name
}

// sanitizeFilename prevents path traversal attacks
func sanitizeFilename(input string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", "..", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	input = replacer.Replace(input)

	input = strings.TrimSpace(input)
	input = strings.Trim(input, ".")

	if len(input) > 200 {
		input = input[:200]
	}
	return input
}
