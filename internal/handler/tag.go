package handler

import (
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/parkshield/backend/internal/domain"
)

// registerRequest is the body for POST /tags.
// TagID is optional: when present the caller is claiming a pre-issued
// printed code instead of asking for a generated one.
type registerRequest struct {
	VehicleNumber string `json:"vehicleNumber"`
	OwnerPhone    string `json:"ownerPhone"`
	TagID         string `json:"tagId,omitempty"`
}

type registerResponse struct {
	TagID string `json:"tagId"`
}

// lookupResponse is the body for GET /tags/{tagID}. Found=false is a
// distinguishable "claim this tag" signal for unregistered codes, not an
// error. The contact fields are present only when Found is true and are the
// complete public view — never alerts, created time, or the active flag.
type lookupResponse struct {
	Found         bool   `json:"found"`
	TagID         string `json:"tagId,omitempty"`
	VehicleNumber string `json:"vehicleNumber,omitempty"`
	OwnerPhone    string `json:"ownerPhone,omitempty"`
}

type alertRequest struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

type alertResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type historyResponse struct {
	Data       []domain.Alert `json:"data"`
	Pagination pagination     `json:"pagination"`
}

type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// RegisterTag handles POST /tags.
func (s *Server) RegisterTag(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tag, err := s.tags.Register(r.Context(), req.VehicleNumber, req.OwnerPhone, req.TagID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			writeJSON(w, http.StatusBadRequest, validationBody(err))
		case errors.Is(err, domain.ErrConflict):
			writeJSON(w, http.StatusConflict, conflictBody())
		default:
			s.internalError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{TagID: tag.TagID})
}

// LookupTag handles GET /tags/{tagID} — the scan path.
// An unregistered code returns 404 with found=false so the frontend can
// offer to claim the printed tag.
func (s *Server) LookupTag(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "tagID")

	contact, err := s.tags.Lookup(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeJSON(w, http.StatusNotFound, lookupResponse{Found: false, TagID: code})
		case errors.Is(err, domain.ErrForbidden):
			writeJSON(w, http.StatusForbidden, forbiddenBody())
		default:
			s.internalError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, lookupResponse{
		Found:         true,
		VehicleNumber: contact.VehicleNumber,
		OwnerPhone:    contact.OwnerPhone,
	})
}

// SendAlert handles POST /tags/{tagID}/alerts.
func (s *Server) SendAlert(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Kind == "" {
		writeJSON(w, http.StatusBadRequest, requestBody("alert kind is required"))
		return
	}

	_, err := s.tags.Alert(r.Context(), domain.AlertRequest{
		Code:          chi.URLParam(r, "tagID"),
		Kind:          req.Kind,
		Message:       req.Message,
		OriginAddress: originAddress(r),
	})
	if err != nil {
		var rle *domain.RateLimitError
		switch {
		case errors.Is(err, domain.ErrValidation):
			writeJSON(w, http.StatusBadRequest, validationBody(err))
		case errors.Is(err, domain.ErrNotFound):
			writeJSON(w, http.StatusNotFound, notFoundBody("tag not found"))
		case errors.Is(err, domain.ErrForbidden):
			writeJSON(w, http.StatusForbidden, forbiddenBody())
		case errors.As(err, &rle):
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(rle.RetryAfter.Seconds()))))
			writeJSON(w, http.StatusTooManyRequests, rateLimitBody())
		default:
			s.internalError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, alertResponse{Success: true, Message: "owner notified"})
}

// ListAlerts handles GET /tags/{tagID}/alerts.
// The optional ?page= and ?limit= query parameters page through the ledger,
// newest first.
func (s *Server) ListAlerts(w http.ResponseWriter, r *http.Request) {
	params := domain.NewPaginationParams(queryInt(r, "page"), queryInt(r, "limit"))

	alerts, total, err := s.tags.History(r.Context(), chi.URLParam(r, "tagID"), params)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("tag not found"))
			return
		}
		s.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{
		Data:       alerts,
		Pagination: pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// DisableTag handles POST /tags/{tagID}/disable.
// Disabling is permanent and idempotent: repeating it returns 204 again.
func (s *Server) DisableTag(w http.ResponseWriter, r *http.Request) {
	err := s.tags.Deactivate(r.Context(), chi.URLParam(r, "tagID"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("tag not found"))
			return
		}
		s.internalError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// internalError logs the failure and returns the generic 500 body.
// The logged error may mention tag codes but never owner phone numbers —
// repo and service errors are constructed without them.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, internalBody())
}

// originAddress extracts the scanner's network origin, best effort.
// Behind the chi RealIP middleware RemoteAddr is already the bare client IP;
// direct connections carry an ip:port pair that gets split here.
func originAddress(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
