package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Item statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Result is the outcome for one item of a batch.
type Result struct {
	Item   string          `json:"item"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Summary aggregates the results of a batch.
type Summary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped,omitempty"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray parses an argument given either as one string or as an
// array of strings. Values are trimmed and duplicates are dropped, keeping
// the first occurrence.
func ParseStringOrArray(param interface{}, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var raw []string
	switch v := param.(type) {
	case string:
		raw = []string{v}
	case []string:
		raw = v
	case []interface{}:
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			raw = append(raw, str)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	seen := make(map[string]bool, len(raw))
	result := make([]string, 0, len(raw))
	for i, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
		}
		if seen[item] {
			continue
		}
		seen[item] = true
		result = append(result, item)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", paramName)
	}
	return result, nil
}

// Process runs fn for each item in order. Once ctx is done the remaining
// items are reported as skipped. fn's result is embedded as JSON.
func Process(ctx context.Context, items []string, fn func(ctx context.Context, item string) (interface{}, error)) []Result {
	results := make([]Result, 0, len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Item: item, Status: StatusSkipped, Error: err.Error()})
			continue
		}

		res, err := fn(ctx, item)
		if err != nil {
			results = append(results, Result{Item: item, Status: StatusError, Error: err.Error()})
			continue
		}

		raw, err := json.Marshal(res)
		if err != nil {
			results = append(results, Result{Item: item, Status: StatusError, Error: fmt.Sprintf("failed to serialize result: %v", err)})
			continue
		}
		results = append(results, Result{Item: item, Status: StatusSuccess, Result: raw})
	}

	return results
}

// Summarize counts results by status.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results), Results: results}
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			s.Successful++
		case StatusSkipped:
			s.Skipped++
		default:
			s.Failed++
		}
	}
	return s
}

// FormatResults renders the summary of results as indented JSON.
func FormatResults(results []Result) string {
	jsonBytes, _ := json.MarshalIndent(Summarize(results), "", "  ")
	return string(jsonBytes)
}
