package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MentionMonitor/internal/config"
	"MentionMonitor/internal/domain"
)

func replyWith(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, defaultModel, req.Model)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "Title: John Doe arrested")

		reply, _ := json.Marshal(content)
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%s}}]}`, reply)
	}))
}

func TestClassifyParsesVerdict(t *testing.T) {
	t.Parallel()

	srv := replyWith(t, "```json\n"+`{"sentiment":"negative","severity":"high","category":"regulatory_enforcement",
		"summary_bullets":["ED raided offices."],"why_it_matters":"Enforcement action."}`+"\n```")
	defer srv.Close()

	c := NewChatGPTClient(config.LLMConfig{Endpoint: srv.URL, APIKey: "sk-test"})
	got, err := c.Classify(context.Background(), domain.ClassificationInput{Title: "John Doe arrested"})
	require.NoError(t, err)

	assert.Equal(t, domain.Sentiment("negative"), got.Sentiment)
	assert.Equal(t, domain.Severity("high"), got.Severity)
	assert.Equal(t, domain.Category("regulatory_enforcement"), got.Category)
	assert.Equal(t, []string{"ED raided offices."}, got.Summary)
	assert.Equal(t, "Enforcement action.", got.Rationale)
}

func TestClassifyRejectsProse(t *testing.T) {
	t.Parallel()

	srv := replyWith(t, "I cannot help with that.")
	defer srv.Close()

	c := NewChatGPTClient(config.LLMConfig{Endpoint: srv.URL, APIKey: "sk-test"})
	_, err := c.Classify(context.Background(), domain.ClassificationInput{Title: "John Doe arrested"})
	assert.ErrorContains(t, err, "no JSON object")
}

func TestClassifyMisconfigured(t *testing.T) {
	t.Parallel()

	c := NewChatGPTClient(config.LLMConfig{Endpoint: "http://localhost"})
	assert.False(t, c.Configured())
	_, err := c.Classify(context.Background(), domain.ClassificationInput{})
	assert.ErrorContains(t, err, "misconfigured")
}

func TestParseVerdictEmbeddedObject(t *testing.T) {
	t.Parallel()

	v, err := parseVerdict(`Sure! {"sentiment":"positive","severity":"low","category":"awards_recognition"} Hope this helps.`)
	require.NoError(t, err)
	assert.Equal(t, "awards_recognition", v.Category)
}

func TestArticlePromptTruncatesBody(t *testing.T) {
	t.Parallel()

	prompt := articlePrompt(domain.ClassificationInput{Title: "t", Body: strings.Repeat("й", maxContentChars+50)})
	assert.Equal(t, maxContentChars, strings.Count(prompt, "й"))
	assert.Contains(t, articlePrompt(domain.ClassificationInput{Title: "t"}), "No additional content")
}
