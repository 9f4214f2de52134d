package strategy

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scraper/internal/domain"
	"scraper/internal/identity"
)

func TestPlainRequestFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	res, err := NewPlainRequest(5*time.Second).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", res.RawContent)
	assert.Equal(t, identity.DefaultUserAgent, gotUA)
}

func TestPlainRequestFailsOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewPlainRequest(5*time.Second).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrBadStatus)
}

func TestPlainRequestReportsFinalURL(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("moved"))
	})

	res, err := NewPlainRequest(5*time.Second).Fetch(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/new", res.FinalURL)
}

func TestRotatedRequestSendsRichHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	pool := identity.NewPool(1)
	_, err := NewRotatedRequest(5*time.Second, pool).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.NotEmpty(t, got.Get("User-Agent"))
	assert.NotEmpty(t, got.Get("Accept-Language"))
	assert.Equal(t, "1", got.Get("Upgrade-Insecure-Requests"))
}

func TestRequestStrategiesDecodeGzipBodies(t *testing.T) {
	const page = "<html><body>compressed page body</body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "gzip")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte(page))
		gz.Close()
	}))
	defer srv.Close()

	res, err := NewPlainRequest(5*time.Second).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, page, res.RawContent)

	res, err = NewRotatedRequest(5*time.Second, identity.NewPool(1)).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, page, res.RawContent)
}

func TestRotatedRequestHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewRotatedRequest(5*time.Second, identity.NewPool(1)).Fetch(ctx, "http://127.0.0.1:1/unreachable")
	assert.Error(t, err)
	// The pre-request delay must respect the context, not run to completion.
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestIsCompanyGuidesURL(t *testing.T) {
	assert.True(t, isCompanyGuidesURL("https://interviewing.io/topics#companies"))
	assert.False(t, isCompanyGuidesURL("https://interviewing.io/blog"))
}

func TestGuideItems(t *testing.T) {
	items := guideItems([]guideLink{
		{Title: "Acme", URL: "https://example.com/guides/acme"},
		{Title: "Globex", URL: "https://example.com/guides/globex"},
	})
	require.Len(t, items, 2)
	assert.Equal(t, "Acme", items[0].Title)
	assert.Equal(t, "https://example.com/guides/acme", items[0].SourceURL)
	assert.Equal(t, "blog", items[0].ContentType)
	assert.Contains(t, items[0].Content, "Acme")
}

func TestNewSetRegistersAllStrategies(t *testing.T) {
	pool := identity.NewPool(1)
	set := NewSet(
		NewPlainRequest(time.Second),
		NewRotatedRequest(time.Second, pool),
		NewRenderedBrowser(time.Second, zap.NewNop()),
		NewHardenedBrowser(time.Second, pool),
	)
	for _, id := range domain.StrategyOrder {
		assert.Contains(t, set, id)
	}
}
