package server

import (
	"net/http"

	"github.com/bbernstein/shiptracker/internal/api"
	"github.com/bbernstein/shiptracker/internal/tracker"
)

type handlers struct {
	svc *tracker.Service
}

func (h *handlers) info(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, h.svc.Info())
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, h.svc.Status())
}

func (h *handlers) debug(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, h.svc.Debug(r.Context()))
}

// display always answers with an image, even when the upstream is failing.
func (h *handlers) display(w http.ResponseWriter, r *http.Request) {
	img := h.svc.Display(r.Context())
	w.Header().Set("X-Image-Kind", img.Kind)
	api.WriteImage(w, img.RenderResult, h.svc.RefreshInterval())
}
