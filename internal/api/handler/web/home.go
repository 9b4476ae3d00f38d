// internal/api/handler/web/home.go
package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/newthinker/coinview/internal/core"
)

// HomeData holds data for the home template
type HomeData struct {
	Title    string
	Featured []string
	Query    string
	Invalid  bool
	Refresh  int
}

// Home renders the landing page: a coin lookup form and the featured coins.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "home.html", HomeData{
		Title:    "Coins",
		Featured: h.opts.Featured,
	})
}

// Search redirects a lookup form submission to the coin page.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("id"))
	id := strings.ToLower(query)

	if err := core.ValidateCoinID(id); err != nil {
		h.render(w, http.StatusBadRequest, "home.html", HomeData{
			Title:    "Coins",
			Featured: h.opts.Featured,
			Query:    query,
			Invalid:  true,
		})
		return
	}

	http.Redirect(w, r, "/coins/"+url.PathEscape(id), http.StatusSeeOther)
}
