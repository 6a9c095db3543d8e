package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clientdesk/internal/model"
	"clientdesk/pkg/circuitbreaker"
)

// HuggingFaceClassifier 调用 Inference API 上的五星评分模型
type HuggingFaceClassifier struct {
	url        string
	apiKey     string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
}

func NewHuggingFaceClassifier(url, apiKey string, timeout time.Duration, breaker *circuitbreaker.CircuitBreaker) *HuggingFaceClassifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HuggingFaceClassifier{
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
	}
}

func (h *HuggingFaceClassifier) Method() model.AnalysisMethod { return model.MethodHuggingFace }

type hfScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// statusError 外部模型返回的非 2xx
type statusError struct {
	provider string
	status   int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.provider, e.status)
}

func (h *HuggingFaceClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	var (
		result Classification
		status int
	)
	err := h.breaker.Execute(func() error {
		var err error
		result, status, err = h.call(ctx, text)
		return err
	})
	if err != nil {
		if unavailable(err, status) {
			return Classification{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		return Classification{}, err
	}
	return result, nil
}

func (h *HuggingFaceClassifier) call(ctx context.Context, text string) (Classification, int, error) {
	body, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return Classification{}, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return Classification{}, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return Classification{}, 0, fmt.Errorf("huggingface request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return Classification{}, resp.StatusCode, &statusError{provider: "huggingface", status: resp.StatusCode}
	}

	// 响应格式 [[{"label":"5 stars","score":0.7}, ...]]
	var scores [][]hfScore
	if err := json.NewDecoder(resp.Body).Decode(&scores); err != nil {
		return Classification{}, resp.StatusCode, fmt.Errorf("decode huggingface response: %w", err)
	}
	if len(scores) == 0 || len(scores[0]) == 0 {
		return Classification{}, resp.StatusCode, fmt.Errorf("empty huggingface response")
	}

	top := scores[0][0]
	for _, s := range scores[0][1:] {
		if s.Score > top.Score {
			top = s
		}
	}

	stars, err := parseStars(top.Label)
	if err != nil {
		return Classification{}, resp.StatusCode, err
	}
	label, err := starLabel(stars)
	if err != nil {
		return Classification{}, resp.StatusCode, err
	}
	return Classification{Label: label, Confidence: top.Score}, resp.StatusCode, nil
}

// parseStars 解析 "4 stars" / "1 star"
func parseStars(label string) (int, error) {
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return 0, fmt.Errorf("unexpected label %q", label)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("unexpected label %q", label)
	}
	return n, nil
}
