package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"carteira/internal/core"
	"carteira/internal/log"
)

// Extract turns free text, or a WAV recording when audio is set, into
// transaction records. The records still need normalizing.
func (a *Advisor) Extract(ctx context.Context, text string, audio []byte) ([]core.Record, error) {
	var parts []*genai.Part
	switch {
	case len(audio) > 0:
		parts = append(parts,
			&genai.Part{InlineData: &genai.Blob{MIMEType: "audio/wav", Data: audio}},
			&genai.Part{Text: extractAudioPrompt})
	case strings.TrimSpace(text) != "":
		parts = append(parts, &genai.Part{Text: extractTextPrompt(text)})
	default:
		return nil, ErrEmptyPrompt
	}
	parts = append(parts, &genai.Part{Text: extractRules()})

	resp, err := a.generate(ctx, log.OpExtract, a.model,
		[]*genai.Content{{Role: "user", Parts: parts}},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"})
	if err != nil {
		return nil, err
	}

	records, err := decodeRecords(resp.Text())
	if err != nil {
		a.logger.WarnContext(ctx, "Unreadable extraction answer",
			log.FieldOperation, log.OpExtract, log.FieldError, err.Error())
		return nil, fmt.Errorf("%w: %s: %v", ErrAdvisorUnavailable, log.OpExtract, err)
	}
	a.logger.InfoContext(ctx, "Transactions extracted",
		log.FieldOperation, log.OpExtract, log.FieldCount, len(records))
	return records, nil
}

// cleanModelJSON strips Markdown fences and any prose around the array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

func decodeRecords(raw string) ([]core.Record, error) {
	clean := cleanModelJSON(raw)
	if clean == "" {
		return []core.Record{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(clean)))
	dec.UseNumber()
	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decode model JSON: %w", err)
	}
	out := make([]core.Record, 0, len(items))
	for _, item := range items {
		out = append(out, recordFromMap(item))
	}
	return out, nil
}

// recordFromMap reads the fields models tend to produce, accepting a few
// aliases and loosely typed values.
func recordFromMap(m map[string]any) core.Record {
	return core.Record{
		Description: firstString(m, "description", "desc", "name"),
		Amount:      firstValue(m, "amount", "amt", "value"),
		Type:        strings.ToUpper(firstString(m, "type")),
		ExpenseType: strings.ToUpper(firstString(m, "expenseType", "expense_type")),
		Category:    firstString(m, "category", "cat"),
		Date:        dateMillis(firstValue(m, "date")),
	}
}

func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	switch v := firstValue(m, keys...).(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", time.RFC3339}

func dateMillis(v any) int64 {
	switch d := v.(type) {
	case json.Number:
		if n, err := d.Int64(); err == nil && n > 0 {
			return n
		}
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, strings.TrimSpace(d), time.Local); err == nil {
				return t.UnixMilli()
			}
		}
	}
	return 0
}
