package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/bbernstein/shiptracker/internal/api"
	"github.com/bbernstein/shiptracker/internal/config"
	"github.com/bbernstein/shiptracker/internal/tracker"
	"github.com/rs/zerolog/log"
)

type handler struct {
	svc *tracker.Service
}

func (h *handler) handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	path := "/" + strings.Trim(request.Path, "/")
	log.Info().Str("path", path).Str("method", request.HTTPMethod).Msg("Handling request")

	if request.HTTPMethod != "" && request.HTTPMethod != http.MethodGet {
		return api.Error(api.MsgMethodNotAllowed, http.StatusMethodNotAllowed)
	}

	switch path {
	case "/":
		return api.Success(h.svc.Info())
	case "/status":
		return api.Success(h.svc.Status())
	case "/debug":
		return api.Success(h.svc.Debug(ctx))
	case "/healthz":
		return api.Success(map[string]string{"status": "ok"})
	case "/webhook", "/display.bmp":
		img := h.svc.Display(ctx)
		resp, err := api.Image(img.RenderResult, h.svc.RefreshInterval())
		resp.Headers["X-Image-Kind"] = img.Kind
		return resp, err
	default:
		return api.Error(api.MsgNotFound, http.StatusNotFound)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	cfg.InitializeLogging()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	svc, err := tracker.NewFromConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise service")
	}

	h := &handler{svc: svc}
	lambda.Start(h.handleRequest)
}
