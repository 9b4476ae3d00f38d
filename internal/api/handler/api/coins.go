// internal/api/handler/api/coins.go
package api

import (
	"net/http"
	"time"

	"github.com/newthinker/coinview/internal/api/response"
	"github.com/newthinker/coinview/internal/coinview"
	"github.com/newthinker/coinview/internal/core"
	"go.uber.org/zap"
)

// CoinsHandler serves the coin page model as JSON.
type CoinsHandler struct {
	fetcher    coinview.Fetcher
	builder    *coinview.Builder
	renderWait time.Duration
	stale      coinview.StaleRecorder
	logger     *zap.Logger
}

// NewCoinsHandler creates a new coins handler
func NewCoinsHandler(fetcher coinview.Fetcher, builder *coinview.Builder, renderWait time.Duration, logger *zap.Logger) *CoinsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if builder == nil {
		builder = coinview.NewBuilder(nil)
	}
	if renderWait <= 0 {
		renderWait = 5 * time.Second
	}
	return &CoinsHandler{
		fetcher:    fetcher,
		builder:    builder,
		renderWait: renderWait,
		logger:     logger,
	}
}

// SetStaleRecorder sets the recorder for discarded fetch completions.
func (h *CoinsHandler) SetStaleRecorder(r coinview.StaleRecorder) {
	h.stale = r
}

// Get handles GET /api/v1/coins/{coinId}
//
// A payload still loading after the render wait answers 202 with kind
// "loading"; the client is expected to poll.
func (h *CoinsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("coinId")
	if err := core.ValidateCoinID(id); err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	v := coinview.NewView(h.fetcher, h.logger)
	if h.stale != nil {
		v.SetStaleRecorder(h.stale)
	}
	v.Mount(r.Context(), id)
	defer v.Unmount()

	state := v.Wait(r.Context(), h.renderWait)
	page := h.builder.Build(state)

	switch page.Kind {
	case coinview.KindError:
		response.Error(w, 0, state.Cause)
	case coinview.KindLoading:
		response.JSON(w, r, http.StatusAccepted, page)
	default:
		response.JSON(w, r, http.StatusOK, page)
	}
}
