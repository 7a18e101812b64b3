// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/eventure/internal/model"
	"github.com/Shivanand-hulikatti/eventure/internal/service"
)

// EventHandler holds all HTTP handlers for the reservation API.
type EventHandler struct {
	svc *service.EventService
	log *slog.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService, log *slog.Logger) *EventHandler {
	if log == nil {
		log = slog.Default()
	}
	return &EventHandler{svc: svc, log: log}
}

// ─── Request and response bodies ──────────────────────────────────────────────

type credentialsRequest struct {
	UserID string `json:"userId"`
	Token  string `json:"sessionToken"`
}

func (c credentialsRequest) creds() model.Credentials {
	return model.Credentials{UserID: c.UserID, Token: c.Token}
}

type signUpRequest struct {
	Username string `json:"username"`
	Picture  string `json:"picture"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createEventRequest struct {
	credentialsRequest
	// Event is either a JSON object or a string holding one.
	Event json.RawMessage `json:"event"`
}

type eventRequest struct {
	credentialsRequest
	EventID string `json:"eventId"`
}

type reserveRequest struct {
	credentialsRequest
	ArrivalID string `json:"arrivalId"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type createdEventResponse struct {
	EventID string `json:"eventId"`
	Message string `json:"message"`
}

type reservationResponse struct {
	ReservationID string `json:"reservationId"`
	Message       string `json:"message"`
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst zero so
// the service reports the missing fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeServiceError maps a service error to a status code. Internal causes
// are logged and never sent to the client.
func (h *EventHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch service.KindOf(err) {
	case service.KindInvalid:
		writeError(w, http.StatusBadRequest, service.MessageOf(err))
	case service.KindDenied:
		writeError(w, http.StatusUnauthorized, service.MessageOf(err))
	default:
		h.log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err,
		)
		writeError(w, http.StatusInternalServerError, service.MsgInternal)
	}
}

// parseEventSpec accepts the event either inline or as a JSON string.
func parseEventSpec(raw json.RawMessage) (model.EventSpec, bool, error) {
	var spec model.EventSpec
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return spec, false, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return spec, false, err
		}
		if s == "" {
			return spec, false, nil
		}
		raw = []byte(s)
	}
	if err := json.Unmarshal(raw, &spec); err != nil {
		return spec, false, err
	}
	return spec, true, nil
}

// ─── Auth handlers ────────────────────────────────────────────────────────────

// SignUp handles POST /auth/create
func (h *EventHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	u, err := h.svc.SignUp(r.Context(), req.Username, req.Picture, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "Successfully created user '" + u.Username + "'!"})
}

// Login handles POST /auth/login
// Returns the user id, a fresh session token, username and picture.
func (h *EventHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	sess, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// Validate handles POST /auth/validate
func (h *EventHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	sess, err := h.svc.ValidateSession(r.Context(), req.creds())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// Logout handles POST /auth/logout
// Succeeds whether or not the token matched.
func (h *EventHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.svc.Logout(r.Context(), req.creds()); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Successfully logged out!"})
}

// ─── Event handlers ───────────────────────────────────────────────────────────

// ListEvents handles POST /events
// Returns every upcoming event with occupancy and the caller's registration.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	events, err := h.svc.ListUpcomingEvents(r.Context(), req.creds())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles POST /events/{eventId}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	event, err := h.svc.GetEvent(r.Context(), req.creds(), chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// ListArrivals handles GET /events/{eventId}/arrivals
func (h *EventHandler) ListArrivals(w http.ResponseWriter, r *http.Request) {
	arrivals, err := h.svc.GetArrivalsForEvent(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, arrivals)
}

// Search handles GET /search?query=
func (h *EventHandler) Search(w http.ResponseWriter, r *http.Request) {
	hits, err := h.svc.SearchEvents(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

// Filter handles POST /filter/{filter}
func (h *EventHandler) Filter(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	events, err := h.svc.ListFilteredEvents(r.Context(), req.creds(), chi.URLParam(r, "filter"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// ─── User handlers ────────────────────────────────────────────────────────────

// CreateEvent handles POST /user/create
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	spec, ok, err := parseEventSpec(req.Event)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event: "+err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, service.MsgMissing)
		return
	}
	id, err := h.svc.CreateEvent(r.Context(), req.creds(), spec)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdEventResponse{EventID: id, Message: "Successfully created event!"})
}

// DeleteEvent handles POST /user/delete
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.svc.DeleteEvent(r.Context(), req.creds(), req.EventID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Successfully deleted event!"})
}

// Reserve handles POST /user/reserve
// Performs a concurrency-safe reservation of one arrival option.
func (h *EventHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	id, err := h.svc.Reserve(r.Context(), req.creds(), req.ArrivalID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservationResponse{
		ReservationID: id,
		Message:       "Your reservation ID is #" + id,
	})
}

// Withdraw handles POST /user/withdraw
func (h *EventHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.svc.Withdraw(r.Context(), req.creds(), req.EventID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Successfully withdrawn from event!"})
}

// CreatedEvents handles POST /{userId}/events
func (h *EventHandler) CreatedEvents(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.UserID = chi.URLParam(r, "userId")
	events, err := h.svc.ListUserCreatedEvents(r.Context(), req.creds())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// History handles POST /{userId}/history
func (h *EventHandler) History(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.UserID = chi.URLParam(r, "userId")
	events, err := h.svc.ListUserReservations(r.Context(), req.creds())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
