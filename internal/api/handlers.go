package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dyike/PortfolioGo/consts"
	"github.com/dyike/PortfolioGo/models"
)

var validate = validator.New()

type whatIfRequest struct {
	Holdings []models.Holding `json:"holdings"`
	Ticker   string           `json:"ticker" validate:"required"`
	Quantity float64          `json:"quantity" validate:"gt=0"`
	Price    float64          `json:"price" validate:"gte=0"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) formats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"extensions": h.backend.SupportedExtensions()})
}

// uploadedFile reads the multipart "file" field. A missing file is not an
// HTTP error: the pipeline reports it as the run's fatal error.
func (h *handler) uploadedFile(w http.ResponseWriter, r *http.Request) (*models.UploadedFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	f, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &models.UploadedFile{Name: header.Filename, Content: content}, nil
}

func (h *handler) analyzeStream(w http.ResponseWriter, r *http.Request) {
	file, err := h.uploadedFile(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	initSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	failed := false
	for ev := range h.backend.Stream(r.Context(), file) {
		name := "stage"
		if ev.Stage == consts.Engine {
			name = "error"
		}
		if ev.Delta != nil && ev.Delta.Fatal != "" {
			failed = true
		}
		if err := writeSSEEvent(w, flusher, name, ev); err != nil {
			// client went away; drain so the run can finish
			continue
		}
	}

	status := "completed"
	if failed {
		status = "failed"
	}
	_ = writeSSEEvent(w, flusher, "done", map[string]string{"status": status})
}

func (h *handler) analyzeReport(w http.ResponseWriter, r *http.Request) {
	file, err := h.uploadedFile(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, err := h.backend.Analyze(r.Context(), file)
	if err != nil {
		msg := err.Error()
		if state != nil && state.Fatal != "" {
			msg = state.Fatal
		}
		writeError(w, http.StatusInternalServerError, msg)
		return
	}
	if state.Failed() {
		writeError(w, http.StatusUnprocessableEntity, state.Fatal)
		return
	}
	writeJSON(w, http.StatusOK, state.Report)
}

func (h *handler) screen(w http.ResponseWriter, r *http.Request) {
	var req models.ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	results, err := h.backend.Screen(r.Context(), req)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": results})
}

func (h *handler) universe(w http.ResponseWriter, r *http.Request) {
	tickers, err := h.backend.Universe(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tickers": tickers})
}

func (h *handler) detail(w http.ResponseWriter, r *http.Request) {
	res, err := h.backend.Detail(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) whatIf(w http.ResponseWriter, r *http.Request) {
	var req whatIfRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.backend.WhatIf(r.Context(), req.Holdings, req.Ticker, req.Quantity, req.Price)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func initSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("event: " + event + "\n")); err != nil {
		return err
	}
	if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
