package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-ulink/internal/history"
	"github.com/nerrad567/gray-logic-ulink/internal/ulink"
)

// encodeResponse is the body of POST /encode.
type encodeResponse struct {
	PayloadLength int      `json:"payload_length"`
	Checksum      byte     `json:"checksum"`
	Header        string   `json:"header"`
	Data          []string `json:"data"`
	Port          int      `json:"port"`
}

// decodePayload reads a ulink.PayloadInput body and converts it to bytes.
// It writes the error response itself and reports whether to continue.
func decodePayload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	var in ulink.PayloadInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return nil, false
	}

	payload, err := ulink.ParsePayload(in)
	if err != nil {
		writeBadRequest(w, err.Error())
		return nil, false
	}
	return payload, true
}

// handleStatus returns the current or most recent transmission.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

// handleStartTransmission starts transmitting the posted payload.
func (s *Server) handleStartTransmission(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	err := s.ctrl.Start(payload)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, s.ctrl.Status())
	case errors.Is(err, ulink.ErrPayloadTooLong):
		writeError(w, http.StatusUnprocessableEntity, ErrCodePayloadTooLong, err.Error())
	case errors.Is(err, ulink.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, ErrCodeConflict, "a transmission is already running")
	case errors.Is(err, ulink.ErrControllerClosed):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "shutting down")
	default:
		s.logger.Error("starting transmission failed", "error", err)
		writeInternalError(w, "failed to start transmission")
	}
}

// handleStopTransmission requests a stop. The transmission finishes its
// current cycle, so the response is 202 rather than 200.
func (s *Server) handleStopTransmission(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.Stop()
	writeJSON(w, http.StatusAccepted, s.ctrl.Status())
}

// handleEncode returns the address sequence for a payload without sending it.
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	seq, err := ulink.Encode(payload)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, ErrCodePayloadTooLong, err.Error())
		return
	}

	data := make([]string, len(seq.Data))
	for i, a := range seq.Data {
		data[i] = a.String()
	}

	writeJSON(w, http.StatusOK, encodeResponse{
		PayloadLength: seq.PayloadLength,
		Checksum:      seq.Checksum,
		Header:        seq.Header.String(),
		Data:          data,
		Port:          ulink.DefaultPort,
	})
}

// handleListTransmissions returns recent history rows.
func (s *Server) handleListTransmissions(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeHistoryDisabled, "transmission history is disabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing transmissions failed", "error", err)
		writeInternalError(w, "failed to list transmissions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transmissions": records,
		"count":         len(records),
	})
}

// handleGetTransmission returns one history row.
func (s *Server) handleGetTransmission(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeHistoryDisabled, "transmission history is disabled")
		return
	}

	id := chi.URLParam(r, "id")
	rec, err := s.history.Get(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		writeNotFound(w, "transmission not found")
		return
	}
	if err != nil {
		s.logger.Error("getting transmission failed", "transmission_id", id, "error", err)
		writeInternalError(w, "failed to get transmission")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}
