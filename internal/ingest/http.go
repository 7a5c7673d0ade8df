package ingest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"notifyd/internal/domain"
	"notifyd/internal/pipeline"
	"notifyd/internal/prefs"
)

// EventSink receives decoded events from ingest interfaces.
// Params: decoded event payload.
// Returns: processing error.
type EventSink interface {
	Push(ctx context.Context, event domain.Event) error
}

// Dismisser removes active alerts in response to user actions.
type Dismisser interface {
	Dismiss(ctx context.Context, category domain.Category) error
	DismissAll(ctx context.Context) error
}

// HTTPHandler exposes the intake and control API: event ingestion,
// alert dismissal, device-state reports, and session flags.
// Params: sink, dismisser, device source, prefs store, and body limit.
// Returns: HTTP handler covering the whole surface.
type HTTPHandler struct {
	sink        EventSink
	dismisser   Dismisser
	device      *pipeline.DeviceStateSource
	prefs       prefs.Store
	maxBodySize int64
	mux         *http.ServeMux
}

// NewHTTPHandler creates the intake/control handler.
// Params: collaborators and max request body size in bytes.
// Returns: configured handler.
func NewHTTPHandler(sink EventSink, dismisser Dismisser, device *pipeline.DeviceStateSource, store prefs.Store, maxBodySize int64) *HTTPHandler {
	h := &HTTPHandler{
		sink:        sink,
		dismisser:   dismisser,
		device:      device,
		prefs:       store,
		maxBodySize: maxBodySize,
		mux:         http.NewServeMux(),
	}
	h.mux.HandleFunc("POST /v1/events", h.handleEvents)
	h.mux.HandleFunc("POST /v1/dismiss/{category}", h.handleDismiss)
	h.mux.HandleFunc("POST /v1/dismiss", h.handleDismissAll)
	h.mux.HandleFunc("PUT /v1/device/call", h.handleCallState)
	h.mux.HandleFunc("PUT /v1/device/foreground", h.handleForeground)
	h.mux.HandleFunc("PUT /v1/device/ringer", h.handleRinger)
	h.mux.HandleFunc("PUT /v1/session/linked-app", h.sessionFlagHandler(prefs.KeyUserInLinkedApp))
	h.mux.HandleFunc("PUT /v1/session/quick-reply", h.sessionFlagHandler(prefs.KeyUserInQuickReply))
	return h
}

// ServeHTTP dispatches one API request.
// Params: HTTP request/response writer pair.
// Returns: writes status code per route result.
func (h *HTTPHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	h.mux.ServeHTTP(writer, request)
}

// handleEvents decodes a single event or a batch and pushes each event
// independently.
func (h *HTTPHandler) handleEvents(writer http.ResponseWriter, request *http.Request) {
	body, ok := h.readBody(writer, request)
	if !ok {
		return
	}

	scratch := acquireDecodeScratch()
	defer releaseDecodeScratch(scratch)
	events, err := decodeEventPayload(body, scratch)
	if err != nil {
		writer.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := pushEvents(request.Context(), h.sink, events); err != nil {
		writer.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	writer.WriteHeader(http.StatusAccepted)
}

// handleDismiss removes one alert of the path category.
func (h *HTTPHandler) handleDismiss(writer http.ResponseWriter, request *http.Request) {
	category := domain.Category(request.PathValue("category"))
	if !domain.ValidCategory(category) {
		writer.WriteHeader(http.StatusNotFound)
		return
	}
	if err := h.dismisser.Dismiss(request.Context(), category); err != nil {
		writer.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}

// handleDismissAll clears every active alert.
func (h *HTTPHandler) handleDismissAll(writer http.ResponseWriter, request *http.Request) {
	if err := h.dismisser.DismissAll(request.Context()); err != nil {
		writer.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}

// handleCallState records call start/end from the telephony adapter.
func (h *HTTPHandler) handleCallState(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		Active bool `json:"active"`
	}
	if !h.decodeBody(writer, request, &payload) {
		return
	}
	h.device.SetCallActive(payload.Active)
	writer.WriteHeader(http.StatusNoContent)
}

// handleForeground records the foreground task identity.
func (h *HTTPHandler) handleForeground(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		Package string `json:"package"`
		Class   string `json:"class"`
	}
	if !h.decodeBody(writer, request, &payload) {
		return
	}
	h.device.SetForegroundTask(payload.Package, payload.Class)
	writer.WriteHeader(http.StatusNoContent)
}

// handleRinger records the ringer vibrate-mode flag.
func (h *HTTPHandler) handleRinger(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		Vibrate bool `json:"vibrate"`
	}
	if !h.decodeBody(writer, request, &payload) {
		return
	}
	h.device.SetVibrateRingerMode(payload.Vibrate)
	writer.WriteHeader(http.StatusNoContent)
}

// sessionFlagHandler builds the handler updating one session flag.
// Params: session flag preference key.
// Returns: bound handler func.
func (h *HTTPHandler) sessionFlagHandler(key string) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var payload struct {
			Active bool `json:"active"`
		}
		if !h.decodeBody(writer, request, &payload) {
			return
		}
		h.prefs.SetSessionFlag(key, payload.Active)
		writer.WriteHeader(http.StatusNoContent)
	}
}

// readBody reads the size-limited request body.
// Params: response writer and request.
// Returns: body bytes and ok=false after writing the error status.
func (h *HTTPHandler) readBody(writer http.ResponseWriter, request *http.Request) ([]byte, bool) {
	request.Body = http.MaxBytesReader(writer, request.Body, h.maxBodySize)
	defer request.Body.Close()
	body, err := io.ReadAll(request.Body)
	if err != nil {
		writer.WriteHeader(http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// decodeBody decodes one size-limited JSON body into target.
// Params: response writer, request, and decode target.
// Returns: ok=false after writing the error status.
func (h *HTTPHandler) decodeBody(writer http.ResponseWriter, request *http.Request, target any) bool {
	body, ok := h.readBody(writer, request)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, target); err != nil {
		writer.WriteHeader(http.StatusBadRequest)
		return false
	}
	return true
}
