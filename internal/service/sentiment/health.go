package sentiment

import (
	"math"

	"clientdesk/internal/model"
)

// DefaultTrendCap 趋势历史最多保留的点数
const DefaultTrendCap = 30

// trendThreshold 判断改善/下降的最小分差
const trendThreshold = 5

var summaries = map[model.SentimentLabel]string{
	model.SentimentPositive: "Client communication shows positive sentiment. The relationship appears healthy and engaged.",
	model.SentimentNeutral:  "Client communication is neutral. Continue monitoring for changes in sentiment.",
	model.SentimentNegative: "Client communication shows signs of dissatisfaction. Consider reaching out to address concerns.",
}

// ClampConfidence 把置信度限制在 [0,1]
func ClampConfidence(confidence float64) float64 {
	return math.Max(0, math.Min(1, confidence))
}

// HealthScore 把 (label, confidence) 映射到 0-100
// negative <= 49 < neutral <= 79 < positive
func HealthScore(label model.SentimentLabel, confidence float64) int {
	c := ClampConfidence(confidence)
	switch label {
	case model.SentimentPositive:
		return int(math.Round(80 + 20*c))
	case model.SentimentNegative:
		return int(math.Round(49 * c))
	default:
		return int(math.Round(50 + 29*c))
	}
}

func Summary(label model.SentimentLabel) string {
	if s, ok := summaries[label]; ok {
		return s
	}
	return summaries[model.SentimentNeutral]
}

// AppendTrend 追加一个点，只保留最近 limit 个，顺序不变
func AppendTrend(history []model.TrendPoint, point model.TrendPoint, limit int) []model.TrendPoint {
	if limit <= 0 {
		limit = DefaultTrendCap
	}
	out := make([]model.TrendPoint, 0, len(history)+1)
	out = append(out, history...)
	out = append(out, point)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Direction 比较最近两个点
func Direction(history []model.TrendPoint) model.TrendDirection {
	if len(history) < 2 {
		return model.TrendStable
	}
	latest := history[len(history)-1].Score
	previous := history[len(history)-2].Score
	switch {
	case latest > previous+trendThreshold:
		return model.TrendImproving
	case latest < previous-trendThreshold:
		return model.TrendDeclining
	default:
		return model.TrendStable
	}
}
