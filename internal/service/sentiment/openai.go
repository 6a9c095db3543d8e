package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"clientdesk/internal/model"
	"clientdesk/pkg/circuitbreaker"

	"github.com/sashabaranov/go-openai"
)

const openAIPrompt = `You rate the sentiment of client messages to a software agency.
Reply with JSON only, in the form {"stars": <1-5>, "confidence": <0-1>}.
1 is very negative, 3 is neutral, 5 is very positive.`

// OpenAIClassifier 用 chat completion 得到五星评分，再映射为三分类
type OpenAIClassifier struct {
	client  *openai.Client
	model   string
	breaker *circuitbreaker.CircuitBreaker
}

func NewOpenAIClassifier(apiKey, baseURL, modelName string, breaker *circuitbreaker.CircuitBreaker) *OpenAIClassifier {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if modelName == "" {
		modelName = openai.GPT3Dot5Turbo
	}
	return &OpenAIClassifier{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   modelName,
		breaker: breaker,
	}
}

func (o *OpenAIClassifier) Method() model.AnalysisMethod { return model.MethodOpenAI }

type starRating struct {
	Stars      int     `json:"stars"`
	Confidence *float64 `json:"confidence"`
}

func (o *OpenAIClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	var result Classification
	err := o.breaker.Execute(func() error {
		var err error
		result, err = o.call(ctx, text)
		return err
	})
	if err != nil {
		if unavailable(err, apiStatus(err)) {
			return Classification{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		return Classification{}, err
	}
	return result, nil
}

func (o *OpenAIClassifier) call(ctx context.Context, text string) (Classification, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: openAIPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens:   32,
		Temperature: 0,
	})
	if err != nil {
		return Classification{}, fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Classification{}, fmt.Errorf("empty openai response")
	}

	rating, err := parseRating(resp.Choices[0].Message.Content)
	if err != nil {
		return Classification{}, err
	}
	label, err := starLabel(rating.Stars)
	if err != nil {
		return Classification{}, err
	}
	if rating.Confidence == nil {
		return Classification{}, errors.New("openai rating missing confidence")
	}
	return Classification{Label: label, Confidence: ClampConfidence(*rating.Confidence)}, nil
}

// parseRating 兼容模型把 JSON 包在代码块里的情况
func parseRating(content string) (starRating, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var r starRating
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &r); err != nil {
		return starRating{}, fmt.Errorf("decode openai rating: %w", err)
	}
	return r, nil
}

func apiStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
