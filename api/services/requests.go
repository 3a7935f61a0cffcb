package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lemo-app/lemo-dashboard/api/middleware"
	"github.com/lemo-app/lemo-dashboard/internal/authz"
	"github.com/lemo-app/lemo-dashboard/internal/events"
	"github.com/lemo-app/lemo-dashboard/internal/validate"
	"github.com/lemo-app/lemo-dashboard/models"
	"github.com/rs/zerolog"
)

var errUnknownStatus = errors.New("status must be one of pending, approved or rejected")

// BoardResponse is the grouped view of the block requests page.
type BoardResponse struct {
	*models.Board
	Total int `json:"total"`
}

// ListBlockRequestsService lists block requests. With a status filter the API
// page is returned as is; without one the requests are grouped by status.
func ListBlockRequestsService(svc *Service, w http.ResponseWriter, r *http.Request) {

	sess, ok := session(w, r)
	if !ok {
		return
	}

	q := models.ParseListQuery(r.URL.Query())
	if q.Status != "" && !q.Status.Valid() {
		HandleErrResponse(w, http.StatusBadRequest, errUnknownStatus)
		return
	}

	scope, ok := schoolScope(w, sess)
	if !ok {
		return
	}
	if scope != "" {
		q.School = scope
	}

	ctx, release, ok := searchContext(svc, w, r, sess.Token, "block-requests")
	if !ok {
		return
	}
	defer release()

	page, err := svc.API.ListBlockRequests(ctx, sess.Token, q)
	if stale(svc, w, r, ctx, "block-requests") {
		return
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list block requests")
		return
	}

	if q.Status != "" {
		HandleSuccessResponse(w, http.StatusOK, page)
		return
	}
	HandleSuccessResponse(w, http.StatusOK, BoardResponse{Board: models.NewBoard(page.Data), Total: page.Total})
}

// CreateBlockRequestService files a block request. School managers always
// file for their own school; platform staff must name the school.
func CreateBlockRequestService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	sess, ok := session(w, r)
	if !ok {
		return
	}

	var req models.NewBlockRequest
	if err := decodeForm(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	scope, ok := schoolScope(w, sess)
	if !ok {
		return
	}
	if scope != "" {
		req.School = scope
	}
	if req.School == "" {
		HandleErrResponse(w, http.StatusBadRequest, &validate.Error{
			Fields: map[string]string{"school": "school is required"},
		})
		return
	}

	created, err := svc.API.CreateBlockRequest(r.Context(), sess.Token, req)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create block request")
		return
	}

	logger.Info().Str("request_id", created.ID).Str("site_url", created.SiteURL).Msg("Block request created")
	audit(svc, r, sess, events.ActionRequestCreated, created.ID, created.SiteURL)

	HandleSuccessResponse(w, http.StatusCreated, created, fmt.Sprintf("/api/block-requests/%s", created.ID))
}

// ApproveBlockRequestService approves a pending block request.
func ApproveBlockRequestService(svc *Service, w http.ResponseWriter, r *http.Request) {

	sess, ok := session(w, r)
	if !ok {
		return
	}

	decide(svc, w, r, sess, models.Decision{Status: models.StatusApproved}, events.ActionRequestApproved)
}

// RejectBlockRequestService rejects a pending block request. The reason is
// checked before anything is sent to the API.
func RejectBlockRequestService(svc *Service, w http.ResponseWriter, r *http.Request) {

	sess, ok := session(w, r)
	if !ok {
		return
	}

	var rejection models.Rejection
	if err := decodeForm(w, r, &rejection); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	decision := models.Decision{Status: models.StatusRejected, RejectionReason: rejection.Reason}
	decide(svc, w, r, sess, decision, events.ActionRequestRejected)
}

func decide(svc *Service, w http.ResponseWriter, r *http.Request, sess *middleware.Session, decision models.Decision, action string) {

	requestID := mux.Vars(r)["request-id"]
	logger := zerolog.Ctx(r.Context()).With().Str("block_request", requestID).
		Str("decision", string(decision.Status)).Logger()

	current, err := svc.API.GetBlockRequest(r.Context(), sess.Token, requestID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve block request")
		return
	}

	if scope := authz.ScopeSchool(sess.User); scope != "" && (current.School == nil || current.School.ID != scope) {
		HandleErrResponse(w, http.StatusForbidden, errOtherSchool)
		return
	}

	state, err := current.State()
	if err != nil {
		logger.Error().Err(err).Msg("Block request has an unknown status")
		HandleErrResponse(w, http.StatusBadGateway, err)
		return
	}
	if _, pending := state.(models.Pending); !pending {
		HandleErrResponse(w, http.StatusConflict, fmt.Errorf("block request is already %s", state.Status()))
		return
	}

	updated, err := svc.API.DecideBlockRequest(r.Context(), sess.Token, requestID, decision)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update block request")
		return
	}

	logger.Info().Msg("Block request decided")
	audit(svc, r, sess, action, requestID, decision.RejectionReason)

	HandleSuccessResponse(w, http.StatusOK, updated)
}
