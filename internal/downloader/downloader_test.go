package downloader

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/schoolsoft/internal/portal"
	"github.com/law-makers/schoolsoft/internal/portal/portaltest"
	"github.com/law-makers/schoolsoft/pkg/models"
)

const newsPath = "/jsp/student/right_student_news.jsp?menu=news"

func newSession(t *testing.T, srv *portaltest.Server) *portal.Session {
	t.Helper()
	s, err := portal.New(&http.Client{Timeout: 5 * time.Second}, portal.Credentials{
		School:   srv.School,
		Username: srv.Username,
		Password: srv.Password,
		UserType: portal.UserTypeStudent,
	}, portal.Options{BaseURL: srv.BaseURL()})
	if err != nil {
		t.Fatalf("portal.New: %v", err)
	}
	return s
}

func TestDownload_Success(t *testing.T) {
	srv := portaltest.NewServer("skolan", "elev", "hemligt")
	defer srv.Close()
	content := "%PDF-1.4 test"
	srv.Handle("/jsp/student/files/plan.pdf", content)

	s := newSession(t, srv)
	dl := NewDownloader(s, s.PageURL(newsPath))

	item := models.NewsItem{ID: 12, AttachmentURL: "files/plan.pdf", AttachmentName: "Läsårsplan"}
	result := dl.Download(context.Background(), item, t.TempDir())

	if !result.Success {
		t.Fatalf("Download failed: %v", result.Error)
	}
	if filepath.Base(result.FilePath) != "12_Läsårsplan.pdf" {
		t.Errorf("unexpected file name %q", filepath.Base(result.FilePath))
	}

	data, err := os.ReadFile(result.FilePath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != content {
		t.Errorf("Content mismatch: got %q, want %q", string(data), content)
	}
	if len(srv.Logins()) != 1 {
		t.Errorf("expected one login, got %d", len(srv.Logins()))
	}
}

func TestDownload_NotFound(t *testing.T) {
	srv := portaltest.NewServer("skolan", "elev", "hemligt")
	defer srv.Close()

	s := newSession(t, srv)
	dl := NewDownloader(s, s.PageURL(newsPath))

	result := dl.Download(context.Background(), models.NewsItem{ID: 1, AttachmentURL: "missing.pdf"}, t.TempDir())
	if result.Success || result.Error == nil {
		t.Fatal("expected failure for missing attachment")
	}
	if _, err := os.Stat(result.FilePath); !os.IsNotExist(err) {
		t.Errorf("no file should be written, stat err = %v", err)
	}
}

func TestDownload_NoAttachment(t *testing.T) {
	dl := NewDownloader(nil, "https://sms5.schoolsoft.se/skolan/")
	result := dl.Download(context.Background(), models.NewsItem{ID: 3}, t.TempDir())
	if result.Success || result.Error == nil {
		t.Fatal("expected failure for item without attachment")
	}
}

func TestDownloadAll(t *testing.T) {
	srv := portaltest.NewServer("skolan", "elev", "hemligt")
	defer srv.Close()
	srv.Handle("/jsp/student/a.pdf", "A")
	srv.Handle("/jsp/student/b.pdf", "B")

	s := newSession(t, srv)
	var progress bytes.Buffer
	dl := NewDownloader(s, s.PageURL(newsPath))
	dl.Progress = &progress

	items := []models.NewsItem{
		{ID: 1, AttachmentURL: "a.pdf", AttachmentName: "A"},
		{ID: 2},
		{ID: 3, AttachmentURL: "b.pdf"},
	}
	results := dl.DownloadAll(context.Background(), items, t.TempDir())

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].NewsID != 1 || results[1].NewsID != 3 {
		t.Errorf("results out of order: %d, %d", results[0].NewsID, results[1].NewsID)
	}
	for _, r := range results {
		if !r.Success {
			t.Errorf("download of news %d failed: %v", r.NewsID, r.Error)
		}
	}
	if filepath.Base(results[1].FilePath) != "3_b.pdf" {
		t.Errorf("unexpected file name %q", filepath.Base(results[1].FilePath))
	}
}

func TestDownloadAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dl := NewDownloader(nil, "https://sms5.schoolsoft.se/skolan/")
	results := dl.DownloadAll(ctx, []models.NewsItem{{ID: 1, AttachmentURL: "a.pdf"}}, t.TempDir())
	if len(results) != 1 || results[0].Error == nil {
		t.Fatalf("expected one cancelled result, got %+v", results)
	}
}

func TestSanitizeFilename_Security(t *testing.T) {
	dangerous := []string{
		"../../etc/passwd",
		"/etc/shadow",
		"file:with:colons",
		`..\..\windows`,
	}

	for _, input := range dangerous {
		t.Run(input, func(t *testing.T) {
			result := sanitizeFilename(input)
			if strings.Contains(result, "/") || strings.Contains(result, "\\") {
				t.Errorf("Sanitized filename contains path separator: %q", result)
			}
			if strings.Contains(result, "..") {
				t.Errorf("Sanitized filename contains '..': %q", result)
			}
		})
	}
}
