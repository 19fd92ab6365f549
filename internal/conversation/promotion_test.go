package conversation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldPromote(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"short greeting", "hi there", false},
		{"business keyword", "our customer base is growing", true},
		{"keyword case insensitive", "The PRICE matters here", true},
		{"long without keywords", strings.Repeat("x", 51), true},
		{"exactly at threshold", strings.Repeat("x", 50), false},
		{"keyword inside word still matches", "repricing model", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldPromote(tt.content))
		})
	}
}

func TestImportanceScore(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"baseline", "hello", 5},
		{"one keyword", "our goal is clear", 7},
		{"two keywords", "the customer has a problem", 9},
		{"three keywords capped", "our goal is to fix the customer problem", 10},
		{"medium length", strings.Repeat("a", 250), 7},
		{"long no keywords", strings.Repeat("a", 550), 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImportanceScore(tt.content))
		})
	}
}

func TestImportanceScore_Cap(t *testing.T) {
	// 600 chars with two high-value keywords: 5 + 4 + 2 + 2 = 13, capped.
	content := "our strategy must address the shipping problem " + strings.Repeat("z", 560)
	assert.Equal(t, importanceCap, ImportanceScore(content))
}

func TestImportanceScore_KeywordCountedOnce(t *testing.T) {
	assert.Equal(t, 7, ImportanceScore("goal goal goal"))
}
