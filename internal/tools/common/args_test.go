package common

import (
	"math"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredString(t *testing.T) {
	args := map[string]interface{}{
		"role":  "  Platform Engineer ",
		"blank": "   ",
		"count": 3,
	}

	got, err := RequiredString(args, "role")
	require.NoError(t, err)
	assert.Equal(t, "Platform Engineer", got)

	for _, name := range []string{"blank", "count", "missing"} {
		_, err := RequiredString(args, name)
		require.Error(t, err, name)
		assert.Equal(t, name+" is required", err.Error())
	}
}

func TestOptionalString(t *testing.T) {
	args := map[string]interface{}{"templateId": " abc ", "empty": ""}

	assert.Equal(t, "abc", OptionalString(args, "templateId", "def"))
	assert.Equal(t, "def", OptionalString(args, "empty", "def"))
	assert.Equal(t, "def", OptionalString(args, "missing", "def"))
}

func TestRawString(t *testing.T) {
	args := map[string]interface{}{"body": "  First.\n\nSecond.  "}

	got, ok := RawString(args, "body")
	assert.True(t, ok)
	assert.Equal(t, "  First.\n\nSecond.  ", got)

	_, ok = RawString(args, "missing")
	assert.False(t, ok)
}

func TestJSONResult(t *testing.T) {
	result := JSONResult(map[string]string{"id": "doc-1"})
	require.False(t, result.IsError)
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"doc-1"}`, text.Text)

	result = JSONResult(math.NaN())
	assert.True(t, result.IsError)
}
