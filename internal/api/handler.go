package api

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/shiptracker/internal/display"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const (
	MsgNotFound         = "Resource not found"
	MsgInternalError    = "Internal server error"
	MsgMethodNotAllowed = "Method not allowed"

	// HeaderRefreshInterval tells the display device how long to wait before polling again.
	HeaderRefreshInterval = "X-Refresh-Interval"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}

// Response helpers
func Success(body interface{}) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Error().Err(err).Msg("Error encoding response body")
		return Error(MsgInternalError, http.StatusInternalServerError)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(jsonBody),
	}, nil
}

func Error(message string, statusCode int) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(NewErrorResponse(message))

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(body),
	}, nil
}

// Image returns a rendered display image. API Gateway requires binary bodies to be base64 encoded.
func Image(result display.RenderResult, refreshInterval time.Duration) (events.APIGatewayProxyResponse, error) {
	return events.APIGatewayProxyResponse{
		StatusCode:      http.StatusOK,
		Headers:         imageHeaders(result, refreshInterval),
		Body:            base64.StdEncoding.EncodeToString(result.ImageBytes),
		IsBase64Encoded: true,
	}, nil
}

func imageHeaders(result display.RenderResult, refreshInterval time.Duration) map[string]string {
	return map[string]string{
		"Content-Type":                display.ContentType,
		"Content-Length":              strconv.Itoa(len(result.ImageBytes)),
		"Cache-Control":               "no-cache, no-store, must-revalidate",
		"Access-Control-Allow-Origin": "*",
		HeaderRefreshInterval:         strconv.Itoa(int(refreshInterval / time.Second)),
	}
}
