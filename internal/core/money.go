// Package core provides the expense domain: records, amount parsing and
// formatting, date ranges and summary aggregation.
package core

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ParseAmount extracts a whole-unit amount from free text.
//
// Every character that is not an ASCII digit is dropped before parsing, so
// "Rp 20.000" and "20,000" both yield 20000. The result must be positive.
//
// Examples:
//	ParseAmount("20000")     -> 20000, nil
//	ParseAmount("Rp 20.000") -> 20000, nil
//	ParseAmount("abc")       -> 0, ErrInvalidAmount
//	ParseAmount("000")       -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return 0, ErrInvalidAmount
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidAmount
	}
	return n, nil
}

// AmountFormatter renders whole-unit amounts with locale digit grouping and
// a currency symbol, e.g. "Rp 20.000".
type AmountFormatter struct {
	printer *message.Printer
	symbol  string
}

// NewAmountFormatter builds a formatter for a BCP 47 locale such as "id" or
// "en-US". An unparseable locale falls back to Indonesian.
func NewAmountFormatter(locale, symbol string) AmountFormatter {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.Indonesian
	}
	return AmountFormatter{
		printer: message.NewPrinter(tag),
		symbol:  strings.TrimSpace(symbol),
	}
}

// Number formats n with grouping only.
func (f AmountFormatter) Number(n int64) string {
	if f.printer == nil {
		return strconv.FormatInt(n, 10)
	}
	return f.printer.Sprintf("%d", n)
}

// Format formats n with grouping and the currency symbol.
func (f AmountFormatter) Format(n int64) string {
	if f.symbol == "" {
		return f.Number(n)
	}
	return f.symbol + " " + f.Number(n)
}
