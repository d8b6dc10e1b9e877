package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
)

func TestBrowserFetcherMissingBinary(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "no-such-chrome")
	b, err := NewBrowserFetcher(bin, "", time.Second, 0, quietLogger())
	if err == nil {
		b.Close()
		t.Fatal("expected an error when Chrome cannot be started")
	}
}

func TestBrowserFetcherSharesOneBrowser(t *testing.T) {
	if findChromeBinary() == "" {
		t.Skip("no Chrome binary available")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><h1>42 treff</h1></body></html>`))
	}))
	defer srv.Close()

	b, err := NewBrowserFetcher("", "", 10*time.Second, 0, quietLogger())
	if err != nil {
		t.Fatalf("NewBrowserFetcher: %v", err)
	}
	defer b.Close()

	browser := chromedp.FromContext(b.browserCtx).Browser
	if browser == nil {
		t.Fatal("browser should be running after construction")
	}

	for i := 0; i < 2; i++ {
		resp, err := b.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if !strings.Contains(string(resp.Body), "42 treff") {
			t.Errorf("fetch %d: unexpected body %q", i, resp.Body)
		}
	}

	if chromedp.FromContext(b.browserCtx).Browser != browser {
		t.Error("fetches should reuse the browser started at construction")
	}
}
