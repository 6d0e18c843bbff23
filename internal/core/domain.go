package core

import (
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	Fixed    ExpenseType = "FIXED"
	Sporadic ExpenseType = "SPORADIC"
)

const (
	CategoryFood        Category = "Alimentação"
	CategoryTransport   Category = "Transporte"
	CategoryHousing     Category = "Moradia"
	CategoryHealth      Category = "Saúde"
	CategoryLeisure     Category = "Lazer"
	CategoryEducation   Category = "Educação"
	CategorySalary      Category = "Salário"
	CategoryInvestments Category = "Investimentos"
	CategoryOther       Category = "Outros"
)

// MaxDescriptionLength is the longest description kept, in runes.
const MaxDescriptionLength = 200

// DefaultDescription replaces blank descriptions.
const DefaultDescription = "Despesa sem nome"

type (
	TransactionType string

	// ExpenseType is empty for income.
	ExpenseType string

	Category string

	// Transaction is immutable once created. It is removed by id and never
	// updated in place.
	Transaction struct {
		ID          string
		Description string
		Amount      Money
		Type        TransactionType
		ExpenseType ExpenseType
		Category    Category
		Date        time.Time
	}
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryHousing,
	CategoryHealth,
	CategoryLeisure,
	CategoryEducation,
	CategorySalary,
	CategoryInvestments,
	CategoryOther,
}

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyID            = errors.New("empty transaction id")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidExpenseType = errors.New("invalid expense type")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrZeroDate           = errors.New("date cannot be zero")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// ParseTransactionType maps "INCOME" in any case to Income and everything
// else to Expense.
func ParseTransactionType(s string) TransactionType {
	if strings.EqualFold(strings.TrimSpace(s), string(Income)) {
		return Income
	}
	return Expense
}

func (e ExpenseType) Valid() bool {
	return e == Fixed || e == Sporadic
}

// ParseExpenseType maps "FIXED" in any case to Fixed and everything else to
// Sporadic.
func ParseExpenseType(s string) ExpenseType {
	if strings.EqualFold(strings.TrimSpace(s), string(Fixed)) {
		return Fixed
	}
	return Sporadic
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory resolves a category name. Matching is exact first, then
// case and accent insensitive ("saude", "EDUCACAO"). Unknown names map to
// CategoryOther.
func ParseCategory(s string) Category {
	c := Category(strings.TrimSpace(s))
	if c.Valid() {
		return c
	}
	key := foldName(string(c))
	if key == "" {
		return CategoryOther
	}
	for _, known := range Categories {
		if foldName(string(known)) == key {
			return known
		}
	}
	return CategoryOther
}

func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// SuggestExpenseType returns the expense type usually paired with a
// category: housing, education and investments recur monthly.
func SuggestExpenseType(c Category) ExpenseType {
	switch c {
	case CategoryHousing, CategoryEducation, CategoryInvestments:
		return Fixed
	default:
		return Sporadic
	}
}

func (t Transaction) IsIncome() bool  { return t.Type == Income }
func (t Transaction) IsExpense() bool { return t.Type == Expense }

func (t Transaction) IsFixed() bool {
	return t.Type == Expense && t.ExpenseType == Fixed
}

func (t Transaction) IsSporadic() bool {
	return t.Type == Expense && t.ExpenseType == Sporadic
}

// Validate checks the closed-domain invariants. Stores call it before
// persisting; Normalize always produces transactions that pass.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	switch t.Type {
	case Expense:
		if !t.ExpenseType.Valid() {
			return ErrInvalidExpenseType
		}
	case Income:
		if t.ExpenseType != "" {
			return ErrInvalidExpenseType
		}
	}
	if !t.Category.Valid() {
		return ErrInvalidCategory
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}
