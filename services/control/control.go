// Package control is the daemon's operator surface, a small json api
// for managing monitored urls, triggering scans and inspecting
// results.
package control

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"litterwatch/lib/scanlog"
	"litterwatch/lib/serviceutil"
	"litterwatch/services/monitor"
	"litterwatch/services/sources"
)

const defaultHistoryLimit = 10

type Options struct {
	Monitor *monitor.Service
	Sources sources.List
	// History serves the /api/history endpoint when set.
	History *scanlog.Store
	// StatusFile is read by /api/status when set.
	StatusFile string
	// AccessToken guards every route. Empty disables authorization.
	AccessToken string
}

// NewHandler returns the api routes wrapped in bearer token auth.
func NewHandler(options Options) http.Handler {
	h := handler{options: options}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/urls", h.listUrls)
	mux.HandleFunc("POST /api/urls", h.addUrl)
	mux.HandleFunc("DELETE /api/urls", h.removeUrl)
	mux.HandleFunc("POST /api/scan", h.triggerScan)
	mux.HandleFunc("GET /api/status", h.status)
	mux.HandleFunc("GET /api/history", h.history)

	return serviceutil.VerifyAccessToken(options.AccessToken, mux)
}

type handler struct {
	options Options
}

type errorResponse struct {
	Error string `json:"error"`
}

type urlsResponse struct {
	Urls []string `json:"urls"`
}

type scanResponse struct {
	Status string `json:"status"`
}

type statusResponse struct {
	State   monitor.State    `json:"state"`
	LastRun *monitor.LastRun `json:"last_run"`
}

type historyResponse struct {
	Records []scanlog.Record `json:"records"`
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

func (h handler) currentUrls(w http.ResponseWriter, status int) {
	urls, err := h.options.Sources.Load()
	if err != nil {
		writeJson(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if urls == nil {
		urls = []string{}
	}
	writeJson(w, status, urlsResponse{Urls: urls})
}

func (h handler) listUrls(w http.ResponseWriter, _ *http.Request) {
	h.currentUrls(w, http.StatusOK)
}

func (h handler) addUrl(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Url string `json:"url"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil || body.Url == "" {
		writeJson(w, http.StatusBadRequest, errorResponse{Error: "expected a json body with a url field"})
		return
	}

	err = h.options.Sources.Add(body.Url)
	if err != nil {
		writeJson(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	h.currentUrls(w, http.StatusOK)
}

func (h handler) removeUrl(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Url string `json:"url"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil || body.Url == "" {
		writeJson(w, http.StatusBadRequest, errorResponse{Error: "expected a json body with a url field"})
		return
	}

	err = h.options.Sources.Remove(body.Url)
	if err != nil {
		writeJson(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	h.currentUrls(w, http.StatusOK)
}

func (h handler) triggerScan(w http.ResponseWriter, _ *http.Request) {
	err := h.options.Monitor.TriggerScan()
	if errors.Is(err, monitor.ErrScanInProgress) {
		writeJson(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		writeJson(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJson(w, http.StatusAccepted, scanResponse{Status: "scan scheduled"})
}

func (h handler) status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{State: h.options.Monitor.State()}

	if h.options.StatusFile != "" {
		status, err := monitor.ReadStatus(h.options.StatusFile)
		switch {
		case err == nil:
			resp.LastRun = &status.LastRun
		case os.IsNotExist(err):
			// no cycle has completed yet
		default:
			slog.WarnContext(r.Context(), "failed to read status file", "err", err)
		}
	}

	writeJson(w, http.StatusOK, resp)
}

func (h handler) history(w http.ResponseWriter, r *http.Request) {
	if h.options.History == nil {
		writeJson(w, http.StatusNotFound, errorResponse{Error: "scan history is not configured"})
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJson(w, http.StatusBadRequest, errorResponse{Error: "n must be a positive integer"})
			return
		}
		limit = parsed
	}

	records, err := h.options.History.Recent(r.Context(), limit)
	if err != nil {
		writeJson(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if records == nil {
		records = []scanlog.Record{}
	}
	writeJson(w, http.StatusOK, historyResponse{Records: records})
}
