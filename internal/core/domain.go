package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultCategory fills records queried without a category.
	DefaultCategory = "Other"
	// UntitledPlaceholder fills records queried without a title.
	UntitledPlaceholder = "(untitled)"
)

type (
	// Expense is a complete expense record as written to the remote store.
	// Amount is expressed in whole currency units.
	Expense struct {
		Title    string    `validate:"notblank,max=2000"`
		Date     time.Time `validate:"required"`
		Category string    `validate:"notblank,max=100"`
		Amount   int64     `validate:"gt=0"`
	}

	// RawRecord is a record as decoded from a store query. Any field may be
	// absent; Normalize applies the defaults.
	RawRecord struct {
		Title    *string
		Date     *time.Time
		Category *string
		Amount   *int64
	}
)

var (
	ErrEmptyTitle    = errors.New("empty title")
	ErrEmptyCategory = errors.New("empty category")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrMissingDate   = errors.New("missing date")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate checks the record against the store's write contract and maps
// the first violation to a sentinel error.
func (e Expense) Validate() error {
	err := validate.Struct(e)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate expense: %w", err)
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Title":
		if fe.Tag() == "notblank" {
			return ErrEmptyTitle
		}
		return errors.New("title too long (max 2000 characters)")
	case "Category":
		if fe.Tag() == "notblank" {
			return ErrEmptyCategory
		}
		return errors.New("category too long (max 100 characters)")
	case "Date":
		return ErrMissingDate
	case "Amount":
		return ErrInvalidAmount
	}
	return fmt.Errorf("validate expense: %w", err)
}

// Normalize turns a partially populated record into an Expense. A missing
// or blank category becomes DefaultCategory, a missing title becomes
// UntitledPlaceholder, a missing amount is zero and a missing date is the
// zero time.
func (r RawRecord) Normalize() Expense {
	e := Expense{
		Title:    UntitledPlaceholder,
		Category: DefaultCategory,
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) != "" {
		e.Title = strings.TrimSpace(*r.Title)
	}
	if r.Category != nil && strings.TrimSpace(*r.Category) != "" {
		e.Category = strings.TrimSpace(*r.Category)
	}
	if r.Amount != nil {
		e.Amount = *r.Amount
	}
	if r.Date != nil {
		e.Date = r.Date.UTC()
	}
	return e
}

// RawFromExpense is the inverse of Normalize for stores that keep complete
// records.
func RawFromExpense(e Expense) RawRecord {
	title, category, amount, date := e.Title, e.Category, e.Amount, e.Date
	return RawRecord{Title: &title, Date: &date, Category: &category, Amount: &amount}
}
