package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStructuredReviewEmbeddedObject(t *testing.T) {
	raw := `Sure! Here is the review you asked for:

{"summary": "decent", "score": 60, "issues": []}

Let me know if you need anything else.`

	review, mode := parseStructuredReview(raw)
	assert.Equal(t, parseModeExtracted, mode)
	assert.Equal(t, 60, review.Score)
}

func TestParseStructuredReviewClampsScore(t *testing.T) {
	review, _ := parseStructuredReview(`{"summary": "x", "score": 250, "issues": []}`)
	assert.Equal(t, 100, review.Score)

	review, _ = parseStructuredReview(`{"summary": "x", "score": -10, "issues": []}`)
	assert.Equal(t, 0, review.Score)
}

func TestParseStructuredReviewBracesInsideStrings(t *testing.T) {
	raw := `{"summary": "watch out for {braces} and \"quotes\"", "score": 50, "issues": []}`

	review, mode := parseStructuredReview(raw)
	assert.Equal(t, parseModeJSON, mode)
	assert.Equal(t, `watch out for {braces} and "quotes"`, review.Summary)
}

func TestParseStructuredReviewGarbageDegrades(t *testing.T) {
	review, mode := parseStructuredReview("not json at all }{")
	assert.Equal(t, parseModeDegraded, mode)
	assert.Equal(t, 0, review.Score)
	assert.Equal(t, "not json at all }{", review.ParseError)
}

func TestCleanModelJSONStripsFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanModelJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanModelJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanModelJSON(`{"a":1}`))
}
