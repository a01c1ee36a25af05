package handlers

import (
	"net/http"

	"github.com/10mm-gms/blueprint/internal/ui/pages"
)

// Home renders the landing page.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pages.Home(h.site))
}

// NotFound renders the 404 page for unmatched web routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, pages.NotFound(h.site))
}
