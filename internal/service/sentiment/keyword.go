package sentiment

import (
	"context"
	"strings"
	"unicode"

	"clientdesk/internal/model"
)

// 默认关键词表，可在 sentiment.positive_words / negative_words 中覆盖
var (
	DefaultPositiveWords = []string{
		"great", "excellent", "love", "happy", "satisfied", "amazing", "good", "wonderful",
		"fantastic", "perfect", "thanks", "thank", "pleased", "awesome", "impressed", "appreciate",
	}
	DefaultNegativeWords = []string{
		"bad", "terrible", "hate", "angry", "disappointed", "frustrated", "poor", "awful",
		"unhappy", "delay", "delayed", "issue", "problem", "worst", "unacceptable", "slow", "broken",
	}
)

// DefaultFallbackConfidence 关键词兜底固定置信度
const DefaultFallbackConfidence = 0.85

// KeywordClassifier 本地确定性兜底：大小写不敏感的整词计数
type KeywordClassifier struct {
	positive   map[string]struct{}
	negative   map[string]struct{}
	confidence float64
}

func NewKeywordClassifier(positive, negative []string, confidence float64) *KeywordClassifier {
	if len(positive) == 0 {
		positive = DefaultPositiveWords
	}
	if len(negative) == 0 {
		negative = DefaultNegativeWords
	}
	if confidence <= 0 || confidence > 1 {
		confidence = DefaultFallbackConfidence
	}
	return &KeywordClassifier{
		positive:   wordSet(positive),
		negative:   wordSet(negative),
		confidence: confidence,
	}
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return set
}

func (k *KeywordClassifier) Method() model.AnalysisMethod { return model.MethodFallback }

func (k *KeywordClassifier) Classify(_ context.Context, text string) (Classification, error) {
	return Classification{Label: k.Label(text), Confidence: k.confidence}, nil
}

// Label positive 当正面词多于负面词且大于 0，negative 反之，否则 neutral
func (k *KeywordClassifier) Label(text string) model.SentimentLabel {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	pos, neg := 0, 0
	for _, w := range words {
		if _, ok := k.positive[w]; ok {
			pos++
		}
		if _, ok := k.negative[w]; ok {
			neg++
		}
	}

	switch {
	case pos > neg && pos > 0:
		return model.SentimentPositive
	case neg > pos && neg > 0:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}
