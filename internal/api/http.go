package api

import (
	"net/http"
	"time"

	"github.com/bbernstein/shiptracker/internal/display"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// WriteJSON encodes body as the JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Error().Err(err).Msg("Error encoding response body")
		status = http.StatusInternalServerError
		data, _ = json.Marshal(NewErrorResponse(MsgInternalError))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Debug().Err(err).Msg("Writing JSON response")
	}
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, NewErrorResponse(message))
}

// WriteImage serves a rendered display image. CORS is left to the router middleware.
func WriteImage(w http.ResponseWriter, result display.RenderResult, refreshInterval time.Duration) {
	for k, v := range imageHeaders(result, refreshInterval) {
		if k == "Access-Control-Allow-Origin" {
			continue
		}
		w.Header().Set(k, v)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.ImageBytes); err != nil {
		log.Debug().Err(err).Msg("Writing image response")
	}
}
