package common

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// RequiredString returns the trimmed string argument name or an error when
// it is missing or blank.
func RequiredString(args map[string]interface{}, name string) (string, error) {
	value, ok := args[name].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return strings.TrimSpace(value), nil
}

// OptionalString returns the trimmed string argument name, or def when absent.
func OptionalString(args map[string]interface{}, name, def string) string {
	if value, ok := args[name].(string); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return def
}

// RawString returns the string argument name without trimming. Use it for
// values that must be passed on verbatim, such as the letter body.
func RawString(args map[string]interface{}, name string) (string, bool) {
	value, ok := args[name].(string)
	return value, ok
}

// JSONResult renders v as an indented JSON text result.
func JSONResult(v interface{}) *mcp.CallToolResult {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize result: %v", err))
	}
	return mcp.NewToolResultText(string(jsonBytes))
}
