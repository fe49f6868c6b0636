package classify

import (
	"encoding/json"
	"strings"
)

// The wire shape is decoded defensively: unknown actions and missing
// payloads never raise, they degrade to a general reply downstream.
type wireIntent struct {
	Action    string         `json:"action"`
	Data      *wireData      `json:"data"`
	Filters   *wireFilters   `json:"filters"`
	Aggregate *wireAggregate `json:"aggregate"`
	Match     *wireMatch     `json:"match"`
	Updates   *wireUpdates   `json:"updates"`
	Reply     string         `json:"reply"`
}

type wireData struct {
	Type        string      `json:"type"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	ExpenseDate string      `json:"expense_date"`
}

type wireFilters struct {
	Type      string `json:"type"`
	Category  string `json:"category"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type wireAggregate struct {
	SumByType    bool `json:"sum_by_type"`
	TotalBalance bool `json:"total_balance"`
}

type wireMatch struct {
	ID        *int64       `json:"id"`
	Type      string       `json:"type"`
	Category  string       `json:"category"`
	Amount    *json.Number `json:"amount"`
	Date      string       `json:"date"`
	StartDate string       `json:"start_date"`
	EndDate   string       `json:"end_date"`
}

type wireUpdates struct {
	Type        *string      `json:"type"`
	Amount      *json.Number `json:"amount"`
	Category    *string      `json:"category"`
	Description *string      `json:"description"`
	ExpenseDate *string      `json:"expense_date"`
}

// parseWireIntent applies the salvage ladder to the raw oracle output:
// direct parse, then with code fences stripped, then the first-brace to
// last-brace substring. Models wrap JSON in markdown often enough that all
// three are needed.
func parseWireIntent(raw string) (*wireIntent, error) {
	candidates := []string{
		raw,
		stripCodeFences(raw),
		braceSubstring(raw),
	}

	var lastErr error
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(candidate))
		dec.UseNumber()
		var wi wireIntent
		if err := dec.Decode(&wi); err != nil {
			lastErr = err
			continue
		}
		return &wi, nil
	}

	if lastErr == nil {
		lastErr = errEmptyResponse
	}
	return nil, lastErr
}

// stripCodeFences removes markdown fence markers and stray backticks.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if after, ok := strings.CutPrefix(s, "```json"); ok {
		s = after
	} else if after, ok := strings.CutPrefix(s, "```"); ok {
		s = after
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.Trim(strings.TrimSpace(s), "`")
}

// braceSubstring slices from the first '{' to the last '}'.
func braceSubstring(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}
