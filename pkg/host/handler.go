package host

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/vinterp/internal/errors"
	"github.com/vango-dev/vinterp/pkg/interp"
	"github.com/vango-dev/vinterp/pkg/protocol"
	"github.com/vango-dev/vinterp/pkg/surface"
)

// contextEdits is how many records around a violation an error response
// includes.
const contextEdits = 2

// Routes returns the host's HTTP handler.
func (h *Host) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/snapshot", h.handleSnapshot)
	r.Get("/stats", h.handleStats)
	r.Post("/edits", h.handleEdits)
	r.Post("/hydrate", h.handleHydrate)
	r.Route("/nodes/{id}", func(r chi.Router) {
		r.Post("/events/{name}", h.handleEvent)
		r.Get("/rect", h.handleRect)
		r.Put("/rect", h.handleSetRect)
	})
	r.Get("/ws", h.ServeWS)
	if h.cfg.Gatherer != nil {
		r.Handle(h.cfg.MetricsPath, promhttp.HandlerFor(h.cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code and a coded JSON body.
func (h *Host) writeError(w http.ResponseWriter, r *http.Request, err error, code string) {
	status := http.StatusUnprocessableEntity
	switch {
	case stderrors.Is(err, ErrClosed):
		status = http.StatusServiceUnavailable
	case stderrors.Is(err, ErrPopulated):
		status = http.StatusConflict
		code = errors.CodeHydrationBusy
	case stderrors.Is(err, interp.ErrUnknownNode) && !interp.IsViolation(err):
		status = http.StatusNotFound
	case r.Context().Err() != nil && stderrors.Is(err, r.Context().Err()):
		status = http.StatusServiceUnavailable
	}
	e := errors.FromError(err, code)
	h.logger.Debug("request failed", "path", r.URL.Path, "code", e.Code, "error", err,
		"request_id", middleware.GetReqID(r.Context()))
	writeJSON(w, status, e)
}

func (h *Host) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s, err := h.Snapshot(r.Context())
	if err != nil {
		h.writeError(w, r, err, errors.CodeServeFailed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, s)
}

func (h *Host) handleStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err, errors.CodeServeFailed)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// decodeBatch reads a JSON batch for application/json bodies and a binary
// batch otherwise.
func decodeBatch(r *http.Request, limit int64) (*protocol.EditBatch, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, protocol.ErrFrameTooLarge
	}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		return protocol.ParseEditsJSON(body)
	}
	return protocol.DecodeEdits(body)
}

type applyResponse struct {
	Seq     uint64 `json:"seq"`
	Applied int    `json:"applied"`
}

func (h *Host) handleEdits(w http.ResponseWriter, r *http.Request) {
	b, err := decodeBatch(r, h.cfg.MaxMessageSize)
	if err != nil {
		h.writeError(w, r, err, errors.CodeMalformedBatch)
		return
	}
	if err := h.Apply(r.Context(), b); err != nil {
		var v *interp.ViolationError
		if stderrors.As(err, &v) {
			e := errors.FromViolation(v).WithEdits(b.Edits, contextEdits)
			h.logger.Debug("batch rejected", "seq", v.Seq, "index", v.Index, "code", e.Code)
			writeJSON(w, http.StatusUnprocessableEntity, e)
			return
		}
		h.writeError(w, r, err, errors.CodeViolation)
		return
	}
	writeJSON(w, http.StatusOK, applyResponse{Seq: b.Seq, Applied: len(b.Edits)})
}

type hydrateResponse struct {
	Bound      int             `json:"bound"`
	Listeners  int             `json:"listeners"`
	Mismatches []*errors.Error `json:"mismatches,omitempty"`
}

func (h *Host) handleHydrate(w http.ResponseWriter, r *http.Request) {
	var req protocol.HydrateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, h.cfg.MaxMessageSize)).Decode(&req); err != nil {
		h.writeError(w, r, err, errors.CodeMalformedBatch)
		return
	}
	report, err := h.Hydrate(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err, errors.CodeHydration)
		return
	}
	resp := hydrateResponse{Bound: report.Bound, Listeners: report.Listeners}
	for _, m := range report.Mismatches {
		resp.Mismatches = append(resp.Mismatches, errors.FromMismatch(m))
	}
	status := http.StatusOK
	if !report.OK() {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, resp)
}

func nodeID(r *http.Request) (protocol.NodeID, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	return protocol.NodeID(id), err
}

// eventRequest is the JSON body of a simulated event.
type eventRequest struct {
	Bubbles  *bool   `json:"bubbles"`
	ClientX  float64 `json:"client_x"`
	ClientY  float64 `json:"client_y"`
	Button   int16   `json:"button"`
	Key      string  `json:"key"`
	Code     string  `json:"code"`
	Ctrl     bool    `json:"ctrl"`
	Shift    bool    `json:"shift"`
	Alt      bool    `json:"alt"`
	Meta     bool    `json:"meta"`
	Data     string  `json:"data"`
	DeltaX   float64 `json:"delta_x"`
	DeltaY   float64 `json:"delta_y"`
	Value    *string `json:"value"`
	Checked  *bool   `json:"checked"`
	Repeat   bool    `json:"repeat"`
	Location uint8   `json:"location"`
}

func (e *eventRequest) event(name string) *surface.Event {
	bubbles := true
	if e.Bubbles != nil {
		bubbles = *e.Bubbles
	}
	return &surface.Event{
		Name:     name,
		Bubbles:  bubbles,
		ClientX:  e.ClientX,
		ClientY:  e.ClientY,
		Button:   e.Button,
		Key:      e.Key,
		Code:     e.Code,
		CtrlKey:  e.Ctrl,
		ShiftKey: e.Shift,
		AltKey:   e.Alt,
		MetaKey:  e.Meta,
		Data:     e.Data,
		DeltaX:   e.DeltaX,
		DeltaY:   e.DeltaY,
		Repeat:   e.Repeat,
		Location: e.Location,
	}
}

func (h *Host) handleEvent(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		h.writeError(w, r, err, errors.CodeUsage)
		return
	}
	var req eventRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && err != io.EOF {
			h.writeError(w, r, err, errors.CodeUsage)
			return
		}
	}
	ok, err := h.Fire(r.Context(), id, SimulatedEvent{
		Event:   req.event(chi.URLParam(r, "name")),
		Value:   req.Value,
		Checked: req.Checked,
	})
	if err != nil {
		h.writeError(w, r, err, errors.CodeUsage)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"default_prevented": !ok})
}

func (h *Host) handleRect(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		h.writeError(w, r, err, errors.CodeUsage)
		return
	}
	rect, err := h.Rect(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, errors.CodeUsage)
		return
	}
	writeJSON(w, http.StatusOK, rect)
}

func (h *Host) handleSetRect(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		h.writeError(w, r, err, errors.CodeUsage)
		return
	}
	var rect surface.Rect
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&rect); err != nil {
		h.writeError(w, r, err, errors.CodeUsage)
		return
	}
	if err := h.SetRect(r.Context(), id, rect); err != nil {
		h.writeError(w, r, err, errors.CodeUsage)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
