package assist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "json fence",
			response: "Here you go:\n```json\n{\"a\": 1}\n```\nThanks",
			want:     `{"a": 1}`,
		},
		{
			name:     "bare fence",
			response: "```\n{\"a\": [1, 2]}\n```",
			want:     `{"a": [1, 2]}`,
		},
		{
			name:     "object in prose",
			response: `The result is {"q": "SELECT '}' FROM t", "n": {"x": 1}} and more text`,
			want:     `{"q": "SELECT '}' FROM t", "n": {"x": 1}}`,
		},
		{
			name:     "escaped quote in string",
			response: `{"q": "say \"hi\" {"}`,
			want:     `{"q": "say \"hi\" {"}`,
		},
		{
			name:     "sql fence then json",
			response: "```sql\nSELECT 1\n```\n{\"ok\": true}",
			want:     `{"ok": true}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.response)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSON_None(t *testing.T) {
	for _, response := range []string{"", "no json here", "{ broken", `{"a": }`} {
		_, err := ExtractJSON(response)
		assert.Error(t, err, response)
	}
}

func TestParseJSONResponse(t *testing.T) {
	type payload struct {
		Name  string   `json:"name"`
		Items []string `json:"items"`
	}
	got, err := ParseJSONResponse[payload]("```json\n{\"name\": \"x\", \"items\": [\"a\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "x", Items: []string{"a"}}, got)

	_, err = ParseJSONResponse[payload](`{"name": 5}`)
	assert.ErrorContains(t, err, "unmarshal JSON")
}
