// SPDX-License-Identifier: Apache-2.0

// Package api exposes the inspect operation over HTTP. A payload arrives
// either as the remainder of the URL path on GET or as the raw body on
// POST, and the server manager's reports come back hex-encoded in JSON.
package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/VictoriaMetrics/metrics"
	logging "github.com/loopholelabs/logging/types"

	"github.com/statefold/inspect/pkg/inspect"
	"github.com/statefold/inspect/pkg/manager"
)

// Inspector is the slice of the inspect client the HTTP facade needs.
type Inspector interface {
	Inspect(ctx context.Context, payload []byte) (*manager.InspectStateResponse, error)
}

// Report carries one hex-encoded report payload.
type Report struct {
	Payload string `json:"payload"`
}

// Response is the JSON rendering of an inspect result.
type Response struct {
	Status              string   `json:"status"`
	ExceptionPayload    string   `json:"exception_payload,omitempty"`
	Reports             []Report `json:"reports"`
	ProcessedInputCount uint64   `json:"processed_input_count"`
}

type handler struct {
	inspector Inspector
	logger    logging.Logger
}

// New builds the HTTP handler serving /inspect, /healthz and /metrics.
func New(inspector Inspector, logger logging.Logger) http.Handler {
	h := &handler{
		inspector: inspector,
		logger:    logger.SubLogger("api"),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/inspect", h.inspect)
	mux.HandleFunc("/inspect/", h.inspect)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	return mux
}

func (h *handler) inspect(w http.ResponseWriter, r *http.Request) {
	var payload []byte
	switch r.Method {
	case http.MethodGet:
		raw := strings.TrimPrefix(r.URL.EscapedPath(), "/inspect")
		raw = strings.TrimPrefix(raw, "/")
		decoded, err := url.PathUnescape(raw)
		if err != nil {
			http.Error(w, "malformed payload", http.StatusBadRequest)
			return
		}
		payload = []byte(decoded)
	case http.MethodPost:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "unable to read request body", http.StatusBadRequest)
			return
		}
		payload = body
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response, err := h.inspector.Inspect(r.Context(), payload)
	if err != nil {
		h.logger.Error().Err(err).Msg("inspect request failed")
		switch {
		case errors.Is(err, inspect.OverloadedErr), errors.Is(err, inspect.ClosedErr):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		default:
			http.Error(w, err.Error(), http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(render(response)); err != nil {
		h.logger.Error().Err(err).Msg("unable to write inspect response")
	}
}

func render(response *manager.InspectStateResponse) Response {
	reports := make([]Report, 0, len(response.Reports))
	for _, report := range response.Reports {
		reports = append(reports, Report{Payload: hexEncode(report.Payload)})
	}
	out := Response{
		Status:              response.Status.String(),
		Reports:             reports,
		ProcessedInputCount: response.ProcessedInputCount,
	}
	if len(response.ExceptionData) > 0 {
		out.ExceptionPayload = hexEncode(response.ExceptionData)
	}
	return out
}

func hexEncode(data []byte) string {
	return "0x" + hex.EncodeToString(data)
}
