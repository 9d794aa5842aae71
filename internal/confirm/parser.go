package confirm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"WeekendTrader/internal/model"
)

// Verdict is the external layer's answer for a setup.
type Verdict string

const (
	VerdictConfirm Verdict = "CONFIRM"
	VerdictCancel  Verdict = "CANCEL"
)

// Decision is one verdict from the external decision layer. Empty Strategy or
// Action means the verdict covers every strategy or side of the symbol.
type Decision struct {
	Symbol     string           `json:"symbol"`
	Strategy   model.StrategyID `json:"strategy,omitempty"`
	Action     model.Side       `json:"action,omitempty"`
	Verdict    Verdict          `json:"decision"`
	Confidence float64          `json:"confidence"`
	Reason     string           `json:"reason,omitempty"`
}

var thinkTagRegex = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThinkTags removes reasoning tags from a model response.
func StripThinkTags(text string) string {
	return strings.TrimSpace(thinkTagRegex.ReplaceAllString(text, ""))
}

// ParseDecisions parses a response into decisions.
// Handles: JSON array, single JSON object, markdown code fences, surrounding prose.
func ParseDecisions(text string) ([]Decision, error) {
	cleaned := StripThinkTags(text)

	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" || cleaned == "[]" {
		return nil, nil
	}

	var decisions []Decision
	if err := json.Unmarshal([]byte(cleaned), &decisions); err == nil {
		return normalize(decisions), nil
	}

	var single Decision
	if err := json.Unmarshal([]byte(cleaned), &single); err == nil {
		return normalize([]Decision{single}), nil
	}

	jsonStart := strings.Index(cleaned, "[")
	jsonEnd := strings.LastIndex(cleaned, "]")
	if jsonStart >= 0 && jsonEnd > jsonStart {
		if err := json.Unmarshal([]byte(cleaned[jsonStart:jsonEnd+1]), &decisions); err == nil {
			return normalize(decisions), nil
		}
	}

	jsonStart = strings.Index(cleaned, "{")
	jsonEnd = strings.LastIndex(cleaned, "}")
	if jsonStart >= 0 && jsonEnd > jsonStart {
		if err := json.Unmarshal([]byte(cleaned[jsonStart:jsonEnd+1]), &single); err == nil {
			return normalize([]Decision{single}), nil
		}
	}

	return nil, fmt.Errorf("parse decision: %.200s", cleaned)
}

// normalize upper-cases enums and drops entries that name no symbol or carry
// an unknown verdict.
func normalize(in []Decision) []Decision {
	out := in[:0]
	for _, d := range in {
		d.Symbol = strings.ToUpper(strings.TrimSpace(d.Symbol))
		d.Verdict = Verdict(strings.ToUpper(strings.TrimSpace(string(d.Verdict))))
		d.Action = model.Side(strings.ToUpper(strings.TrimSpace(string(d.Action))))
		if d.Symbol == "" {
			continue
		}
		if d.Verdict != VerdictConfirm && d.Verdict != VerdictCancel {
			continue
		}
		if d.Action != "" && d.Action != model.Buy && d.Action != model.Sell {
			continue
		}
		out = append(out, d)
	}
	return out
}
