package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MentionMonitor/internal/search"
)

func TestGDELTSearch(t *testing.T) {
	t.Parallel()

	since := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, `"John Doe" sourcelang:english`, q.Get("query"))
		assert.Equal(t, "artlist", q.Get("mode"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "10", q.Get("maxrecords"))
		assert.Equal(t, "20260301060000", q.Get("startdatetime"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"articles":[
			{"url":"https://news.example.com/a","title":" John Doe appointed ","seendate":"20260302T091500Z","domain":"news.example.com"},
			{"url":"","title":"no link"},
			{"url":"https://news.example.com/b","title":"John Doe","seendate":"soon"}
		]}`)
	}))
	defer srv.Close()

	g := NewGDELT(GDELTOptions{Endpoint: srv.URL})
	got, err := g.Search(context.Background(), search.Query{Text: `"John Doe"`, MaxResults: 10, Since: since, Language: "en"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "John Doe appointed", got[0].Title)
	assert.Equal(t, "news.example.com", got[0].Source)
	assert.Equal(t, GDELTName, got[0].Provider)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC), got[0].PublishedAt)

	assert.True(t, got[1].PublishedAt.IsZero())
	assert.Equal(t, "soon", got[1].PublishedRaw)
}

func TestGDELTSearchErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "bad" {
			fmt.Fprint(w, "Your search contained a phrase that is too short.")
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGDELT(GDELTOptions{Endpoint: srv.URL})
	_, err := g.Search(context.Background(), search.Query{Text: "bad"})
	assert.ErrorContains(t, err, "decode gdelt response")

	_, err = g.Search(context.Background(), search.Query{Text: "busy"})
	assert.ErrorContains(t, err, "429")
}

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
  <title>Example Wire</title>
  <item>
    <title>John Doe named to ABC Corp board</title>
    <link>https://wire.example.com/1</link>
    <description>The board confirmed the appointment.</description>
    <pubDate>Mon, 02 Mar 2026 09:00:00 GMT</pubDate>
  </item>
  <item>
    <title>John Doe at the film festival</title>
    <link>https://wire.example.com/2</link>
    <pubDate>Mon, 02 Mar 2026 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Old news about John Doe and ABC Corp</title>
    <link>https://wire.example.com/3</link>
    <pubDate>Mon, 02 Feb 2026 10:00:00 GMT</pubDate>
  </item>
</channel></rss>`

func TestRSSSearchFiltersByQuery(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testFeed)
	}))
	defer srv.Close()

	r := NewRSS([]string{srv.URL + "/broken", srv.URL + "/feed"}, time.Second, nil)
	require.True(t, r.Available())

	got, err := r.Search(context.Background(), search.Query{
		Text:  `"John Doe" AND ("ABC Corp" OR "board")`,
		Since: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://wire.example.com/1", got[0].URL)
	assert.Equal(t, "Example Wire", got[0].Source)
	assert.Equal(t, "The board confirmed the appointment.", got[0].Snippet)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), got[0].PublishedAt)

	recall, err := r.Search(context.Background(), search.Query{Text: `"John Doe"`})
	require.NoError(t, err)
	assert.Len(t, recall, 3)
}

func TestQueryTerms(t *testing.T) {
	t.Parallel()

	required, anyOf := queryTerms(`"Ravi Kumar" AND ("SEBI" OR "RBI")`)
	assert.Equal(t, []string{"ravi kumar"}, required)
	assert.Equal(t, []string{"sebi", "rbi"}, anyOf)

	required, anyOf = queryTerms(`"R. Kumar"`)
	assert.Equal(t, []string{"r. kumar"}, required)
	assert.Empty(t, anyOf)

	assert.False(t, NewRSS(nil, 0, nil).Available())
}
