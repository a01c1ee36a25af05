package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/10mm-gms/blueprint/internal/assets"
)

const assetCacheControl = "public, max-age=3600"

// Asset streams /assets/{name} from the asset store.
func (h *Handlers) Asset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")

	obj, err := h.assets.Open(r.Context(), name)
	if errors.Is(err, assets.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("failed to open asset", zap.String("name", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	defer obj.Body.Close()

	header := w.Header()
	header.Set("Content-Type", obj.ContentType)
	header.Set("Cache-Control", assetCacheControl)
	header.Set("X-Content-Type-Options", "nosniff")
	if obj.Size > 0 {
		header.Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	if !obj.ModTime.IsZero() {
		header.Set("Last-Modified", obj.ModTime.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.Debug("asset copy interrupted", zap.String("name", name), zap.Error(err))
	}
}
