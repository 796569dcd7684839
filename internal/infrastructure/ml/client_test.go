package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MentionMonitor/internal/domain"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	trust := 70
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/classify", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hash:1", req.Key)
		require.NotNil(t, req.TrustScore)
		assert.Equal(t, 70, *req.TrustScore)

		fmt.Fprint(w, `{"sentiment":"POSITIVE","severity":"LOW","category":"AWARDS_RECOGNITION","summary":["Award."]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "key", time.Second)
	got, err := c.Classify(context.Background(), domain.ClassificationInput{Key: "hash:1", Title: "John Doe honoured", TrustScore: &trust})
	require.NoError(t, err)

	assert.Equal(t, domain.SentimentPositive, got.Sentiment)
	assert.Equal(t, domain.CategoryAwardsRecognition, got.Category)
	assert.Equal(t, []string{"Award."}, got.Summary)
}

func TestClassifyErrors(t *testing.T) {
	t.Parallel()

	_, err := NewClient("", "", 0).Classify(context.Background(), domain.ClassificationInput{})
	assert.ErrorContains(t, err, "not configured")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err = NewClient(srv.URL, "", 0).Classify(context.Background(), domain.ClassificationInput{Title: "x"})
	assert.ErrorContains(t, err, "503")
}
