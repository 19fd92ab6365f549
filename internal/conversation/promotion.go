package conversation

import "strings"

// Promotion decides which user messages leave short-term session history
// and enter long-term per-tenant vector memory.

// promoteKeywords mark messages that likely contain durable business facts.
var promoteKeywords = []string{
	"product", "service", "customer", "price", "feature", "problem",
	"solution", "goal", "target", "audience", "competitor", "brand",
}

// highValueKeywords raise the importance score of a promoted message.
var highValueKeywords = []string{
	"strategy", "goal", "customer", "problem", "solution",
}

// promoteLengthThreshold promotes long messages even without keyword hits.
const promoteLengthThreshold = 50

const (
	importanceBase = 5
	importanceCap  = 10
)

// ShouldPromote reports whether a user message contains durable business
// information worth storing in the tenant's vector memory. True when the
// message mentions any business keyword or exceeds the length threshold.
func ShouldPromote(message string) bool {
	if len(message) > promoteLengthThreshold {
		return true
	}
	words := strings.Fields(strings.ToLower(message))
	for _, keyword := range promoteKeywords {
		for _, word := range words {
			if strings.Contains(word, keyword) {
				return true
			}
		}
	}
	return false
}

// ImportanceScore rates a message from 1 to 10 for use as promotion
// metadata: base 5, +2 per matched high-value keyword, +2 when longer
// than 200 characters and +2 more when longer than 500, capped at 10.
func ImportanceScore(message string) int {
	score := importanceBase

	words := strings.Fields(strings.ToLower(message))
	for _, keyword := range highValueKeywords {
		for _, word := range words {
			if strings.Contains(word, keyword) {
				score += 2
				break
			}
		}
	}

	if len(message) > 200 {
		score += 2
	}
	if len(message) > 500 {
		score += 2
	}

	if score > importanceCap {
		score = importanceCap
	}
	return score
}
