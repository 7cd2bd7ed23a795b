package extractor

import (
	"context"
	"errors"
	"sync"

	"github.com/law-makers/schoolsoft/internal/portal"
	"github.com/rs/zerolog"
)

const fakeBase = "https://sms5.schoolsoft.se/skolan"

// fakeFetcher serves fixed bodies by path and records every fetched URL
type fakeFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	errs   map[string]error
	called []string
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, errs: make(map[string]error)}
}

func (f *fakeFetcher) PageURL(path string) string {
	return fakeBase + path
}

func (f *fakeFetcher) FetchAuthenticated(ctx context.Context, rawURL string) (*portal.FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called = append(f.called, rawURL)

	path := rawURL[len(fakeBase):]
	if err, ok := f.errs[path]; ok {
		return nil, err
	}
	body, ok := f.pages[path]
	if !ok {
		return nil, errors.New("unexpected fetch: " + path)
	}
	return &portal.FetchResult{URL: rawURL, StatusCode: 200, Body: body}, nil
}

func (f *fakeFetcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.called...)
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
