package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var longSentence = strings.Repeat("John Doe addressed the ABC Corp board about the quarterly results. ", 4)

func TestExtractPrefersArticle(t *testing.T) {
	t.Parallel()

	html := fmt.Sprintf(`<html><body>
		<nav><p>Home | Markets | Politics | Sports | Opinion | Videos | Podcasts | Newsletters</p></nav>
		<script>var tracking = "John Doe";</script>
		<article><h1>Title</h1><p>%s</p><p>Second paragraph.</p></article>
		<footer><p>Copyright</p></footer>
	</body></html>`, longSentence)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	text := Extract(doc)
	assert.Contains(t, text, "Second paragraph.")
	assert.NotContains(t, text, "Markets")
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "Copyright")
}

func TestExtractFallsBackToBody(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body><div>Short   page
		text</div></body></html>`))
	require.NoError(t, err)

	assert.Equal(t, "Short page text", Extract(doc))
}

func TestFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/article":
			assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", longSentence)
		case "/pdf":
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, "%PDF")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := New(Options{UserAgent: "test-agent"})

	text, err := f.Fetch(context.Background(), srv.URL+"/article")
	require.NoError(t, err)
	assert.Contains(t, text, "ABC Corp board")

	_, err = f.Fetch(context.Background(), srv.URL+"/pdf")
	assert.ErrorContains(t, err, "not html")

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "404")
}
