// Package money renders monetary amounts through a single currency/locale rule.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// ErrUnsupportedLocale indicates a locale with no formatting rule.
var ErrUnsupportedLocale = errors.New("money: unsupported locale")

// Default is the fixed pairing every screen and report uses.
var Default = MustNew("EUR", "es-ES")

// Format renders amount with the Default formatter.
func Format(amount decimal.Decimal) string {
	return Default.Format(amount)
}

type rule struct {
	decimal     string
	group       string
	minGrouping int // integer digits required before grouping kicks in
	suffix      bool
	gap         string // between number and a suffixed symbol
}

var rules = map[string]rule{
	"es": {decimal: ",", group: ".", minGrouping: 5, suffix: true, gap: " "},
	"de": {decimal: ",", group: ".", minGrouping: 4, suffix: true, gap: " "},
	"fr": {decimal: ",", group: " ", minGrouping: 4, suffix: true, gap: " "},
	"en": {decimal: ".", group: ",", minGrouping: 4},
}

var symbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"JPY": "¥",
}

// Formatter renders amounts for one currency and locale.
type Formatter struct {
	unit   currency.Unit
	tag    language.Tag
	scale  int
	symbol string
	rule   rule
}

// New builds a formatter from an ISO 4217 code and a BCP 47 locale.
// The number of decimals follows the currency's standard rounding.
func New(code, locale string) (*Formatter, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("money: currency %q: %w", code, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("money: locale %q: %w", locale, err)
	}
	base, _ := tag.Base()
	r, ok := rules[base.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLocale, tag)
	}

	scale, _ := currency.Standard.Rounding(unit)
	sym, ok := symbols[unit.String()]
	if !ok {
		sym = unit.String()
	}

	return &Formatter{unit: unit, tag: tag, scale: scale, symbol: sym, rule: r}, nil
}

// MustNew is New for package-level configuration. It panics on error.
func MustNew(code, locale string) *Formatter {
	f, err := New(code, locale)
	if err != nil {
		panic(err)
	}
	return f
}

// Currency returns the ISO code.
func (f *Formatter) Currency() string {
	return f.unit.String()
}

// Locale returns the locale tag.
func (f *Formatter) Locale() string {
	return f.tag.String()
}

// Scale returns the number of decimals rendered.
func (f *Formatter) Scale() int {
	return f.scale
}

// Format renders amount rounded to the currency's scale.
func (f *Formatter) Format(amount decimal.Decimal) string {
	rounded := amount.Round(int32(f.scale))
	neg := rounded.IsNegative()

	intPart, frac, _ := strings.Cut(rounded.Abs().StringFixed(int32(f.scale)), ".")
	num := f.group(intPart)
	if frac != "" {
		num += f.rule.decimal + frac
	}
	if neg {
		num = "-" + num
	}

	if f.rule.suffix {
		return num + f.rule.gap + f.symbol
	}
	if neg {
		return "-" + f.symbol + num[1:]
	}
	return f.symbol + num
}

func (f *Formatter) group(digits string) string {
	if len(digits) < f.rule.minGrouping || len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(f.rule.group)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
