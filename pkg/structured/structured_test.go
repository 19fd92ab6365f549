package structured

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type email struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func TestParse_PlainJSON(t *testing.T) {
	res := Parse[email](`{"subject":"Launch day","body":"We are live."}`)
	assert.True(t, res.Structured)
	assert.Equal(t, "Launch day", res.Value.Subject)
	assert.Equal(t, "We are live.", res.Value.Body)
}

func TestParse_FencedJSON(t *testing.T) {
	content := "```json\n{\"subject\":\"Hello\",\"body\":\"World\"}\n```"
	res := Parse[email](content)
	assert.True(t, res.Structured)
	assert.Equal(t, "Hello", res.Value.Subject)
}

func TestParse_JSONBuriedInProse(t *testing.T) {
	content := "Sure! Here is your email:\n{\"subject\":\"Hi\",\"body\":\"There\"}\nLet me know if you need changes."
	res := Parse[email](content)
	assert.True(t, res.Structured)
	assert.Equal(t, "Hi", res.Value.Subject)
}

func TestParse_FallsBackToRawText(t *testing.T) {
	content := "Subject: Launch day\n\nWe are live, come celebrate with us."
	res := Parse[email](content)
	assert.False(t, res.Structured)
	assert.Equal(t, content, res.Raw)
	assert.Empty(t, res.Value.Subject)
}

func TestParse_MalformedJSON(t *testing.T) {
	content := `{"subject": "unterminated`
	res := Parse[email](content)
	assert.False(t, res.Structured)
	assert.Equal(t, content, res.Raw)
}

func TestParse_MapTarget(t *testing.T) {
	res := Parse[map[string]any](`{"header":{"title":"Acme"}}`)
	assert.True(t, res.Structured)
	assert.Contains(t, res.Value, "header")
}
