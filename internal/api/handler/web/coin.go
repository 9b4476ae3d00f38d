// internal/api/handler/web/coin.go
package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/newthinker/coinview/internal/coinview"
	"github.com/newthinker/coinview/internal/core"
	"go.uber.org/zap"
)

// CoinPageData holds data for the coin page template
type CoinPageData struct {
	Title  string
	Page   coinview.Page
	Detail *coinview.Detail
	// Refresh is the auto refresh delay in seconds; zero disables it.
	Refresh int
}

// Coin renders the detail page of the coin named by the coinId path value.
func (h *Handler) Coin(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("coinId")

	if err := core.ValidateCoinID(id); err != nil {
		h.logger.Debug("rejecting coin id", zap.String("coin", id), zap.Error(err))
		page := coinview.Page{Kind: coinview.KindError, CoinID: id}
		h.recordPage(page)
		h.render(w, http.StatusBadRequest, "coin.html", h.coinPageData(page))
		return
	}

	v := coinview.NewView(h.fetcher, h.logger)
	if h.metrics != nil {
		v.SetStaleRecorder(h.metrics)
	}
	v.Mount(r.Context(), id)
	defer v.Unmount()

	state := v.Wait(r.Context(), h.opts.RenderWait)
	page := h.builder.Build(state)
	h.recordPage(page)

	h.render(w, statusFor(page, state.Cause), "coin.html", h.coinPageData(page))
}

// WriteCoinPage renders a built page as a full HTML document.
func (h *Handler) WriteCoinPage(w io.Writer, page coinview.Page) error {
	data := h.coinPageData(page)
	data.Refresh = 0
	return h.execute(w, "coin.html", data)
}

func (h *Handler) coinPageData(page coinview.Page) CoinPageData {
	data := CoinPageData{
		Title:  page.CoinID,
		Page:   page,
		Detail: page.Detail,
	}
	if page.Detail != nil && page.Detail.Name != "" {
		data.Title = page.Detail.Name
	}
	if page.Kind == coinview.KindLoading {
		data.Refresh = h.opts.RefreshSeconds
	}
	return data
}

func (h *Handler) recordPage(page coinview.Page) {
	if h.metrics != nil {
		h.metrics.RecordPage(string(page.Kind))
	}
}

// statusFor picks the HTTP status of a rendered coin page.
func statusFor(page coinview.Page, cause error) int {
	if page.Kind != coinview.KindError {
		return http.StatusOK
	}
	switch {
	case errors.Is(cause, core.ErrCoinNotFound):
		return http.StatusNotFound
	case errors.Is(cause, core.ErrInvalidCoinID):
		return http.StatusBadRequest
	case errors.Is(cause, core.ErrFetchTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
