package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record is the loose wire form of a transaction as it arrives from files,
// HTTP bodies or model output. Amount may be a JSON number or a numeric
// string; Date is epoch milliseconds.
type Record struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      any    `json:"amount"`
	Type        string `json:"type"`
	ExpenseType string `json:"expenseType,omitempty"`
	Category    string `json:"category"`
	Date        int64  `json:"date"`
}

// Record returns the wire form of t.
func (t Transaction) Record() Record {
	return Record{
		ID:          t.ID,
		Description: t.Description,
		Amount:      t.Amount.Units(),
		Type:        string(t.Type),
		ExpenseType: string(t.ExpenseType),
		Category:    string(t.Category),
		Date:        t.Date.UnixMilli(),
	}
}

// Normalizer turns Records into valid Transactions. It never rejects input:
// bad amounts become zero, unknown categories become CategoryOther and
// unknown types become Expense.
type Normalizer struct {
	Now   func() time.Time
	NewID func() string
}

func NewNormalizer() Normalizer {
	return Normalizer{Now: time.Now, NewID: uuid.NewString}
}

func (n Normalizer) Normalize(r Record) Transaction {
	now, newID := n.Now, n.NewID
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}

	tx := Transaction{
		ID:          strings.TrimSpace(r.ID),
		Description: normalizeDescription(r.Description),
		Amount:      AmountOf(r.Amount),
		Type:        ParseTransactionType(r.Type),
		Category:    ParseCategory(r.Category),
	}
	if tx.ID == "" {
		tx.ID = newID()
	}
	if tx.Type == Expense {
		tx.ExpenseType = ParseExpenseType(r.ExpenseType)
	}
	if r.Date != 0 {
		tx.Date = time.UnixMilli(r.Date)
	} else {
		tx.Date = now()
	}
	return tx
}

// NormalizeAll normalizes records in order.
func (n Normalizer) NormalizeAll(rs []Record) []Transaction {
	out := make([]Transaction, 0, len(rs))
	for _, r := range rs {
		out = append(out, n.Normalize(r))
	}
	return out
}

func normalizeDescription(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return DefaultDescription
	}
	if utf8.RuneCountInString(s) > MaxDescriptionLength {
		s = strings.TrimSpace(string([]rune(s)[:MaxDescriptionLength]))
	}
	return s
}

// AmountOf coerces a loosely typed amount to Money. Negative values keep
// their magnitude, anything above MaxAmount is clamped to it and anything
// unparseable is zero.
func AmountOf(v any) Money {
	switch a := v.(type) {
	case nil:
		return Money{}
	case Money:
		return fromDecimal(decimal.New(a.Cents, -2))
	case float64:
		return MoneyFromFloat(a)
	case float32:
		return MoneyFromFloat(float64(a))
	case int:
		return MoneyFromFloat(float64(a))
	case int64:
		return fromDecimal(decimal.NewFromInt(a))
	case json.Number:
		return AmountOf(string(a))
	case string:
		s := strings.TrimSpace(a)
		s = strings.TrimPrefix(s, "-")
		d, err := parseDecimal(s)
		if err != nil {
			return Money{}
		}
		return fromDecimal(d)
	default:
		return AmountOf(fmt.Sprint(a))
	}
}
