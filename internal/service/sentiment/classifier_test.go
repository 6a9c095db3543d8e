package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clientdesk/internal/config"
	"clientdesk/internal/model"
	"clientdesk/pkg/circuitbreaker"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newBreaker() *circuitbreaker.CircuitBreaker {
	return circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold:    2,
		SuccessThreshold:    1,
		Timeout:             time.Minute,
		HalfOpenMaxRequests: 1,
	})
}

func TestHuggingFaceClassifier_TopLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "great work", body["inputs"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[[{"label":"3 stars","score":0.1},{"label":"5 stars","score":0.72},{"label":"1 star","score":0.05}]]`))
	}))
	defer srv.Close()

	hf := NewHuggingFaceClassifier(srv.URL, "hf-key", time.Second, newBreaker())
	c, err := hf.Classify(context.Background(), "great work")
	require.NoError(t, err)
	require.Equal(t, model.SentimentPositive, c.Label)
	require.Equal(t, 0.72, c.Confidence)
	require.Equal(t, model.MethodHuggingFace, hf.Method())
}

func TestHuggingFaceClassifier_ServiceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	hf := NewHuggingFaceClassifier(srv.URL, "hf-key", time.Second, newBreaker())
	_, err := hf.Classify(context.Background(), "hello")
	require.ErrorIs(t, err, ErrModelUnavailable)
}

func TestHuggingFaceClassifier_BreakerOpens(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	hf := NewHuggingFaceClassifier(srv.URL, "hf-key", time.Second, newBreaker())
	for i := 0; i < 2; i++ {
		_, err := hf.Classify(context.Background(), "hello")
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrModelUnavailable)
	}

	_, err := hf.Classify(context.Background(), "hello")
	require.ErrorIs(t, err, ErrModelUnavailable)
	require.Equal(t, 2, calls)
}

func TestOpenAIClassifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 0,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "` + "```json\\n{\\\"stars\\\": 2, \\\"confidence\\\": 0.64}\\n```" + `"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2}
		}`))
	}))
	defer srv.Close()

	o := NewOpenAIClassifier("sk-test", srv.URL+"/v1", "gpt-4o-mini", newBreaker())
	c, err := o.Classify(context.Background(), "this is taking too long")
	require.NoError(t, err)
	require.Equal(t, model.SentimentNegative, c.Label)
	require.Equal(t, 0.64, c.Confidence)
	require.Equal(t, model.MethodOpenAI, o.Method())
}

func openAIReply(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"}},
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}
}

func TestOpenAIClassifier_ConfidenceOutOfRange(t *testing.T) {
	cases := map[string]float64{
		`{"stars": 5, "confidence": 1.7}`:  1,
		`{"stars": 1, "confidence": -0.2}`: 0,
	}
	for content, want := range cases {
		srv := httptest.NewServer(openAIReply(content))
		o := NewOpenAIClassifier("sk-test", srv.URL+"/v1", "", newBreaker())
		c, err := o.Classify(context.Background(), "hello")
		srv.Close()
		require.NoError(t, err, content)
		require.Equal(t, want, c.Confidence, content)
	}
}

func TestOpenAIClassifier_MissingConfidence(t *testing.T) {
	srv := httptest.NewServer(openAIReply(`{"stars": 4}`))
	defer srv.Close()

	o := NewOpenAIClassifier("sk-test", srv.URL+"/v1", "", newBreaker())
	_, err := o.Classify(context.Background(), "hello")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrModelUnavailable)
}

func TestOpenAIClassifier_ServiceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	o := NewOpenAIClassifier("sk-test", srv.URL+"/v1", "", newBreaker())
	_, err := o.Classify(context.Background(), "hello")
	require.ErrorIs(t, err, ErrModelUnavailable)
}

func TestParseStars(t *testing.T) {
	n, err := parseStars("4 stars")
	require.NoError(t, err)
	require.Equal(t, 4, n)

	n, err = parseStars("1 star")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = parseStars("LABEL_0")
	require.Error(t, err)
}

func TestNewClassifier_NoCredentialLogsOnce(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	c := NewClassifier(config.SentimentConfig{Provider: "openai"}, zap.New(core))
	require.Nil(t, c)
	require.Equal(t, 1, logs.Len())
	require.Equal(t, zap.WarnLevel, logs.All()[0].Level)

	c = NewClassifier(config.SentimentConfig{Provider: "openai", OpenAIAPIKey: "sk-test"}, zap.New(core))
	require.IsType(t, &OpenAIClassifier{}, c)
	require.Equal(t, 1, logs.Len())
}
