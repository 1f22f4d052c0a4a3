package review

import (
	"encoding/json"
	"strings"
)

type structuredParseMode string

const (
	parseModeJSON      structuredParseMode = "json_object"
	parseModeExtracted structuredParseMode = "json_extracted"
	parseModeDegraded  structuredParseMode = "degraded"
)

// parseStructuredReview turns raw model output into a StructuredReview. The
// model is asked for strict JSON but routinely wraps it in fences or prose,
// so parsing tries the cleaned text first and then a balanced-object scan.
// Total failure degrades to a zero-score result instead of erroring.
func parseStructuredReview(raw string) (*StructuredReview, structuredParseMode) {
	normalized := cleanModelJSON(raw)

	if review, ok := parseReviewJSON(normalized); ok {
		return review, parseModeJSON
	}

	if extracted := extractFirstBalancedJSON(normalized, '{', '}'); extracted != "" {
		if review, ok := parseReviewJSON(extracted); ok {
			return review, parseModeExtracted
		}
	}

	return &StructuredReview{Score: 0, ParseError: raw}, parseModeDegraded
}

func parseReviewJSON(raw string) (*StructuredReview, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}
	var review StructuredReview
	if err := json.Unmarshal([]byte(raw), &review); err != nil {
		return nil, false
	}
	if review.Score < 0 {
		review.Score = 0
	}
	if review.Score > 100 {
		review.Score = 100
	}
	return &review, true
}

func cleanModelJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func extractFirstBalancedJSON(input string, open, close byte) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(input); i++ {
		ch := input[i]
		if inString {
			if escaped {
				escaped = false
				continue
			}
			if ch == '\\' {
				escaped = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case open:
			if depth == 0 {
				start = i
			}
			depth++
		case close:
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				return strings.TrimSpace(input[start : i+1])
			}
		}
	}
	return ""
}
