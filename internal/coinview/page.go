package coinview

import (
	"html/template"
	"strconv"

	"github.com/newthinker/coinview/internal/core"
)

// Kind is what a page shows.
type Kind string

const (
	KindError   Kind = "error"
	KindLoading Kind = "loading"
	KindDetail  Kind = "detail"
	// KindEmpty is a payload without a market-cap rank: nothing renders,
	// not even an error or a loader.
	KindEmpty Kind = "empty"
)

// Page is the render model of a coin view.
type Page struct {
	Kind   Kind    `json:"kind"`
	CoinID string  `json:"coin_id"`
	Detail *Detail `json:"detail,omitempty"`
}

// Change is one cell of the price change table. Value is empty when the
// payload has no figure for the period.
type Change struct {
	Label string `json:"label"`
	Value string `json:"value,omitempty"`
}

// Detail is the formatted content of a ranked coin. Empty strings mean the
// source field was absent and the element is left out.
type Detail struct {
	RankLabel string `json:"rank_label"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	Pair      string `json:"pair,omitempty"`
	Price     string `json:"price,omitempty"`

	Changes []Change `json:"changes"`

	Low24h            string `json:"low_24h,omitempty"`
	High24h           string `json:"high_24h,omitempty"`
	MarketCap         string `json:"market_cap,omitempty"`
	CirculatingSupply string `json:"circulating_supply,omitempty"`

	About template.HTML `json:"about"`
}

// periodLabels are the table headings for each change window.
var periodLabels = map[core.Period]string{
	core.Period1h:  "1h",
	core.Period24h: "24h",
	core.Period7d:  "7d",
	core.Period14d: "14d",
	core.Period30d: "30d",
	core.Period1y:  "1yr",
}

// Builder builds pages from view state.
type Builder struct {
	format   *Formatter
	sanitize *Sanitizer
}

// NewBuilder creates a Builder. A nil formatter uses the defaults.
func NewBuilder(f *Formatter) *Builder {
	if f == nil {
		f = NewFormatter(FormatOptions{})
	}
	return &Builder{format: f, sanitize: NewSanitizer()}
}

// Formatter returns the builder's formatter.
func (b *Builder) Formatter() *Formatter {
	return b.format
}

// Build maps a state to a page. It has no side effects.
func (b *Builder) Build(s State) Page {
	page := Page{CoinID: s.CoinID}

	switch {
	case s.Err:
		page.Kind = KindError
	case s.Loading:
		page.Kind = KindLoading
	default:
		rank, ok := s.Coin.Rank()
		if !ok {
			page.Kind = KindEmpty
			return page
		}
		page.Kind = KindDetail
		page.Detail = b.detail(s.Coin, rank)
	}
	return page
}

func (b *Builder) detail(c *core.Coin, rank int) *Detail {
	f := b.format
	cur := f.Currency()

	d := &Detail{
		RankLabel: "Rank # " + strconv.Itoa(rank),
		Name:      c.Name,
	}

	if img, ok := c.SmallImage(); ok {
		d.Image = img
	}
	if ticker, ok := c.Ticker(); ok {
		d.Pair = ticker + "/" + f.CurrencyLabel()
	}
	if v, ok := c.Price(cur); ok {
		d.Price = f.Price(v)
	}

	d.Changes = make([]Change, 0, len(core.Periods))
	for _, p := range core.Periods {
		cell := Change{Label: periodLabels[p]}
		if v, ok := c.PriceChange(p, cur); ok {
			cell.Value = f.Percent(v)
		}
		d.Changes = append(d.Changes, cell)
	}

	if v, ok := c.Low24h(cur); ok {
		d.Low24h = f.Money(v)
	}
	if v, ok := c.High24h(cur); ok {
		d.High24h = f.Money(v)
	}
	if v, ok := c.MarketCap(cur); ok {
		d.MarketCap = f.Money(v)
	}
	if v, ok := c.CirculatingSupply(); ok {
		d.CirculatingSupply = f.Number(v)
	}

	d.About = b.sanitize.Sanitize(c.About(f.Language()))
	return d
}
