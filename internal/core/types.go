package core

import (
	"fmt"
	"regexp"
	"strings"
)

// Period identifies one of the price change windows reported upstream.
type Period string

const (
	Period1h  Period = "1h"
	Period24h Period = "24h"
	Period7d  Period = "7d"
	Period14d Period = "14d"
	Period30d Period = "30d"
	Period1y  Period = "1y"
)

// Periods lists the change windows in display order.
var Periods = []Period{Period1h, Period24h, Period7d, Period14d, Period30d, Period1y}

// CurrencyValues maps a lowercase currency code (eur, usd, ...) to a value.
// Upstream may send null for a currency, which decodes to a nil entry.
type CurrencyValues map[string]*float64

// Get returns the value for currency if present.
func (c CurrencyValues) Get(currency string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	v, ok := c[strings.ToLower(currency)]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Image holds the logo URLs of a coin.
type Image struct {
	Thumb string `json:"thumb,omitempty"`
	Small string `json:"small,omitempty"`
	Large string `json:"large,omitempty"`
}

// MarketData is the market_data block of a coin payload.
type MarketData struct {
	CurrentPrice      CurrencyValues `json:"current_price,omitempty"`
	Low24h            CurrencyValues `json:"low_24h,omitempty"`
	High24h           CurrencyValues `json:"high_24h,omitempty"`
	MarketCap         CurrencyValues `json:"market_cap,omitempty"`
	CirculatingSupply *float64       `json:"circulating_supply,omitempty"`

	PriceChange1h  CurrencyValues `json:"price_change_percentage_1h_in_currency,omitempty"`
	PriceChange24h CurrencyValues `json:"price_change_percentage_24h_in_currency,omitempty"`
	PriceChange7d  CurrencyValues `json:"price_change_percentage_7d_in_currency,omitempty"`
	PriceChange14d CurrencyValues `json:"price_change_percentage_14d_in_currency,omitempty"`
	PriceChange30d CurrencyValues `json:"price_change_percentage_30d_in_currency,omitempty"`
	PriceChange1y  CurrencyValues `json:"price_change_percentage_1y_in_currency,omitempty"`
}

// Coin is the subset of the CoinGecko /coins/{id} payload this service renders.
// Every field is optional; use the accessors rather than the fields.
type Coin struct {
	ID            string            `json:"id,omitempty"`
	Symbol        string            `json:"symbol,omitempty"`
	Name          string            `json:"name,omitempty"`
	Image         *Image            `json:"image,omitempty"`
	MarketCapRank *int              `json:"market_cap_rank,omitempty"`
	MarketData    *MarketData       `json:"market_data,omitempty"`
	Description   map[string]string `json:"description,omitempty"`
}

// Rank returns the market-cap rank. Zero is treated as absent; upstream
// ranks start at 1.
func (c *Coin) Rank() (int, bool) {
	if c == nil || c.MarketCapRank == nil || *c.MarketCapRank == 0 {
		return 0, false
	}
	return *c.MarketCapRank, true
}

// SmallImage returns the small logo URL.
func (c *Coin) SmallImage() (string, bool) {
	if c == nil || c.Image == nil {
		return "", false
	}
	return c.Image.Small, true
}

// Ticker returns the upper-cased symbol.
func (c *Coin) Ticker() (string, bool) {
	if c == nil || c.Symbol == "" {
		return "", false
	}
	return strings.ToUpper(c.Symbol), true
}

// About returns the description in the given language, or "" when missing.
func (c *Coin) About(lang string) string {
	if c == nil || c.Description == nil {
		return ""
	}
	return c.Description[lang]
}

func (c *Coin) market() *MarketData {
	if c == nil {
		return nil
	}
	return c.MarketData
}

// Price returns the current price in currency.
func (c *Coin) Price(currency string) (float64, bool) {
	if m := c.market(); m != nil {
		return m.CurrentPrice.Get(currency)
	}
	return 0, false
}

// Low24h returns the 24 hour low in currency.
func (c *Coin) Low24h(currency string) (float64, bool) {
	if m := c.market(); m != nil {
		return m.Low24h.Get(currency)
	}
	return 0, false
}

// High24h returns the 24 hour high in currency.
func (c *Coin) High24h(currency string) (float64, bool) {
	if m := c.market(); m != nil {
		return m.High24h.Get(currency)
	}
	return 0, false
}

// MarketCap returns the market capitalisation in currency.
func (c *Coin) MarketCap(currency string) (float64, bool) {
	if m := c.market(); m != nil {
		return m.MarketCap.Get(currency)
	}
	return 0, false
}

// CirculatingSupply returns the number of coins in circulation.
func (c *Coin) CirculatingSupply() (float64, bool) {
	m := c.market()
	if m == nil || m.CirculatingSupply == nil {
		return 0, false
	}
	return *m.CirculatingSupply, true
}

// PriceChange returns the percentage price change over p in currency.
func (c *Coin) PriceChange(p Period, currency string) (float64, bool) {
	m := c.market()
	if m == nil {
		return 0, false
	}
	var values CurrencyValues
	switch p {
	case Period1h:
		values = m.PriceChange1h
	case Period24h:
		values = m.PriceChange24h
	case Period7d:
		values = m.PriceChange7d
	case Period14d:
		values = m.PriceChange14d
	case Period30d:
		values = m.PriceChange30d
	case Period1y:
		values = m.PriceChange1y
	}
	return values.Get(currency)
}

var coinIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,99}$`)

// ValidateCoinID checks that id is a CoinGecko style slug such as
// "bitcoin" or "avalanche-2".
func ValidateCoinID(id string) error {
	if !coinIDPattern.MatchString(id) {
		return WrapError(ErrInvalidCoinID, fmt.Errorf("%q", id))
	}
	return nil
}
