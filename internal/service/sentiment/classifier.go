package sentiment

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"clientdesk/internal/config"
	"clientdesk/internal/model"
	"clientdesk/pkg/circuitbreaker"

	"go.uber.org/zap"
)

// ErrModelUnavailable 外部模型暂时不可用（503、熔断打开或超时）
var ErrModelUnavailable = errors.New("sentiment model temporarily unavailable")

// Classification 一次分类的结果
type Classification struct {
	Label      model.SentimentLabel
	Confidence float64
}

// Classifier 把一段文本归类为 positive / neutral / negative
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
	Method() model.AnalysisMethod
}

// starLabel 五星评分映射到三分类：1-2 负面，3 中性，4-5 正面
func starLabel(stars int) (model.SentimentLabel, error) {
	switch stars {
	case 1, 2:
		return model.SentimentNegative, nil
	case 3:
		return model.SentimentNeutral, nil
	case 4, 5:
		return model.SentimentPositive, nil
	}
	return "", fmt.Errorf("star rating %d out of range", stars)
}

// unavailable 判断外部调用错误是否属于“暂时不可用”
func unavailable(err error, status int) bool {
	var netErr net.Error
	return errors.Is(err, circuitbreaker.ErrOpen) ||
		errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) ||
		status == http.StatusServiceUnavailable
}

// NewClassifier 按配置创建外部模型分类器；没有凭证时返回 nil，只走关键词兜底
func NewClassifier(cfg config.SentimentConfig, logger *zap.Logger) Classifier {
	if !cfg.HasCredential() {
		logger.Warn("No sentiment model credential configured, using keyword fallback only",
			zap.String("provider", cfg.Provider),
		)
		return nil
	}

	breaker := circuitbreaker.New(circuitbreaker.DefaultConfig())
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, breaker)
	default:
		return NewHuggingFaceClassifier(cfg.HuggingFaceURL, cfg.HuggingFaceAPIKey, cfg.Timeout, breaker)
	}
}
