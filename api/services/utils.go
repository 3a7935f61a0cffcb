package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lemo-app/lemo-dashboard/api/middleware"
	"github.com/lemo-app/lemo-dashboard/internal/events"
	"github.com/lemo-app/lemo-dashboard/internal/validate"
	"github.com/lemo-app/lemo-dashboard/models"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

var errNoSession = errors.New("unauthorized: not signed in")

func WriteResponse(w http.ResponseWriter, statusCode int, response interface{}, location ...string) {

	w.Header().Set("Content-Type", "application/json")

	// We don't want to cache API responses so the client receives most curent data
	w.Header().Set("Cache-Control", "max-age=0")

	// Conditionally set the Location header if provided
	if len(location) > 0 && location[0] != "" {
		w.Header().Set("Location", location[0])
	}

	w.WriteHeader(statusCode)

	if response != nil {
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
	}
}

// HandleSuccessResponse wraps data in a successful models.Response.
func HandleSuccessResponse(w http.ResponseWriter, statusCode int, data interface{}, location ...string) {
	WriteResponse(w, statusCode, models.Response{Success: 1, Data: data}, location...)
}

// HandleErrResponse writes err as a failed models.Response. Validation errors
// carry their per-field messages.
func HandleErrResponse(w http.ResponseWriter, statusCode int, err error) {
	response := models.Response{
		Success:      0,
		ErrorDetails: err.Error(),
	}

	var verr *validate.Error
	if errors.As(err, &verr) {
		response.ErrorCode = "invalid_form"
		response.Fields = verr.Fields
	}

	WriteResponse(w, statusCode, response)
}

// HandleAPIError maps an error from the Lemo API onto the response. Client
// errors keep the upstream status and message; everything else is a 502.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	logger := zerolog.Ctx(r.Context())

	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		logger.Debug().Err(err).Msg("client went away")
		return
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Status >= 400 && httpErr.Status < 500 {
		logger.Warn().Err(err).Int("status", httpErr.Status).Msg(msg)
		HandleErrResponse(w, httpErr.Status, httpErr)
		return
	}

	logger.Error().Err(err).Msg(msg)
	if errors.As(err, &httpErr) {
		HandleErrResponse(w, http.StatusBadGateway, httpErr)
		return
	}
	HandleErrResponse(w, http.StatusBadGateway, fmt.Errorf("%s: the Lemo API could not be reached", msg))
}

// decodeForm decodes a JSON body into v and validates it.
func decodeForm(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request payload: %w", err)
	}
	return validate.Struct(v)
}

// decodeJSON is decodeForm without validation.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("invalid request payload: %w", err)
	}
	return nil
}

// writeDecodeError answers a failed decodeForm.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Invalid request payload")
	HandleErrResponse(w, http.StatusBadRequest, err)
}

// session returns the request's session or writes a 401.
func session(w http.ResponseWriter, r *http.Request) (*middleware.Session, bool) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		zerolog.Ctx(r.Context()).Warn().Msg("Unauthorized request: missing session")
		HandleErrResponse(w, http.StatusUnauthorized, errNoSession)
		return nil, false
	}
	return sess, true
}

// audit publishes an audit event. Failures are logged, never returned.
func audit(svc *Service, r *http.Request, sess *middleware.Session, action, resourceID, detail string) {
	if svc.Publisher == nil {
		return
	}

	event := events.AuditEvent{
		Action:     action,
		ActorID:    sess.User.ID,
		ActorType:  string(sess.User.Type),
		ResourceID: resourceID,
		Detail:     detail,
		RequestID:  middleware.RequestID(r.Context()),
		Timestamp:  svc.now().Unix(),
	}

	if err := svc.Publisher.Notify(r.Context(), event); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("action", action).
			Msg("Failed to publish audit event")
	}
}
