package coinview

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// maxFractionDigits matches what a browser's default number locale
// formatting keeps.
const maxFractionDigits = 3

// exactDigits is enough fraction digits to expose a float64 that sits just
// below or above a one-decimal tie.
const exactDigits = 40

// Formatter turns payload numbers into display strings for one locale and
// quote currency.
type Formatter struct {
	printer  *message.Printer
	currency string
	symbol   string
	lang     string
}

// FormatOptions configures a Formatter. Zero values fall back to en / eur / €.
type FormatOptions struct {
	Locale         string
	Currency       string
	CurrencySymbol string
	// Language selects the description translation; defaults to "en".
	Language string
}

// NewFormatter creates a Formatter. An unparseable locale falls back to
// English.
func NewFormatter(opts FormatOptions) *Formatter {
	tag, err := language.Parse(opts.Locale)
	if err != nil || opts.Locale == "" {
		tag = language.English
	}
	currency := strings.ToLower(opts.Currency)
	if currency == "" {
		currency = "eur"
	}
	symbol := opts.CurrencySymbol
	if symbol == "" && currency == "eur" {
		symbol = "€"
	}
	lang := opts.Language
	if lang == "" {
		lang = "en"
	}
	return &Formatter{
		printer:  message.NewPrinter(tag),
		currency: currency,
		symbol:   symbol,
		lang:     lang,
	}
}

// Currency returns the lowercase quote currency code.
func (f *Formatter) Currency() string {
	return f.currency
}

// CurrencyLabel returns the upper-cased quote currency code, e.g. "EUR".
func (f *Formatter) CurrencyLabel() string {
	return strings.ToUpper(f.currency)
}

// Language returns the description language.
func (f *Formatter) Language() string {
	return f.lang
}

// Number formats v with locale grouping: 50000 -> "50,000". Ties round away
// from zero (1.0625 -> "1.063"); x/text alone would round them to even.
func (f *Formatter) Number(v float64) string {
	rounded := decimal.NewFromFloat(v).Round(maxFractionDigits).InexactFloat64()
	return f.printer.Sprintf("%v", number.Decimal(rounded, number.MaxFractionDigits(maxFractionDigits)))
}

// Price formats the headline price: "50,000 €".
func (f *Formatter) Price(v float64) string {
	return f.Number(v) + " " + f.symbol
}

// Money formats a stats value without a space: "49,000€".
func (f *Formatter) Money(v float64) string {
	return f.Number(v) + f.symbol
}

// Percent formats a percentage to exactly one decimal place: "-1.3%".
// Rounding works on the exact binary value, so 1.45 (stored as
// 1.4499...) gives "1.4%", and a negative value keeps its sign when it
// rounds to zero: -0.04 -> "-0.0%".
func (f *Formatter) Percent(v float64) string {
	exact := decimal.RequireFromString(strconv.FormatFloat(v, 'f', exactDigits, 64))
	out := exact.StringFixed(1)
	if v < 0 && !strings.HasPrefix(out, "-") {
		out = "-" + out
	}
	return out + "%"
}
