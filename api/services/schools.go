package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/lemo-app/lemo-dashboard/api/middleware"
	"github.com/lemo-app/lemo-dashboard/internal/events"
	"github.com/lemo-app/lemo-dashboard/models"
	"github.com/rs/zerolog"
)

// maxUploadBytes bounds multipart uploads.
const maxUploadBytes = 10 << 20

var errNotAnImage = errors.New("the uploaded file is not an image")

// ListSchoolsService lists schools. Requests with a search term are debounced.
func ListSchoolsService(svc *Service, w http.ResponseWriter, r *http.Request) {

	sess, ok := session(w, r)
	if !ok {
		return
	}

	q := models.ParseListQuery(r.URL.Query())

	ctx, release, ok := searchContext(svc, w, r, sess.Token, "schools")
	if !ok {
		return
	}
	defer release()

	page, err := svc.API.ListSchools(ctx, sess.Token, q)
	if stale(svc, w, r, ctx, "schools") {
		return
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list schools")
		return
	}

	HandleSuccessResponse(w, http.StatusOK, page)
}

// CreateSchoolService creates a school from the add school form.
func CreateSchoolService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	sess, ok := session(w, r)
	if !ok {
		return
	}

	var school models.NewSchool
	if err := decodeForm(w, r, &school); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	created, err := svc.API.CreateSchool(r.Context(), sess.Token, school)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create school")
		return
	}

	logger.Info().Str("school_id", created.ID).Msg("School created")
	audit(svc, r, sess, events.ActionSchoolCreated, created.ID, created.Name)

	HandleSuccessResponse(w, http.StatusCreated, created, fmt.Sprintf("%s/%s", r.URL.Path, created.ID))
}

// UpdateSchoolService updates a school. School managers may only update
// their own school.
func UpdateSchoolService(svc *Service, w http.ResponseWriter, r *http.Request) {

	schoolID := mux.Vars(r)["school-id"]
	logger := zerolog.Ctx(r.Context()).With().Str("school_id", schoolID).Logger()

	sess, ok := session(w, r)
	if !ok {
		return
	}
	if !ownsSchool(w, sess, schoolID) {
		return
	}

	var update models.SchoolUpdate
	if err := decodeForm(w, r, &update); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	school, err := svc.API.UpdateSchool(r.Context(), sess.Token, schoolID, update)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update school")
		return
	}

	logger.Info().Msg("School updated")
	audit(svc, r, sess, events.ActionSchoolUpdated, schoolID, "")

	HandleSuccessResponse(w, http.StatusOK, school)
}

// DeleteSchoolService deletes a school.
func DeleteSchoolService(svc *Service, w http.ResponseWriter, r *http.Request) {

	schoolID := mux.Vars(r)["school-id"]

	sess, ok := session(w, r)
	if !ok {
		return
	}

	if err := svc.API.DeleteSchool(r.Context(), sess.Token, schoolID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete school")
		return
	}

	zerolog.Ctx(r.Context()).Info().Str("school_id", schoolID).Msg("School deleted")
	audit(svc, r, sess, events.ActionSchoolDeleted, schoolID, "")

	WriteResponse(w, http.StatusNoContent, nil)
}

// ConnectSchoolService attaches a user to a school.
func ConnectSchoolService(svc *Service, w http.ResponseWriter, r *http.Request) {

	sess, ok := session(w, r)
	if !ok {
		return
	}

	var req models.ConnectSchoolRequest
	if err := decodeForm(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	if err := svc.API.ConnectSchool(r.Context(), sess.Token, req); err != nil {
		HandleAPIError(w, r, err, "Failed to connect user to school")
		return
	}

	zerolog.Ctx(r.Context()).Info().Str("school_id", req.School).Str("target_id", req.User).
		Msg("User connected to school")
	audit(svc, r, sess, events.ActionSchoolConnected, req.School, req.User)

	HandleSuccessResponse(w, http.StatusOK, req)
}

// SchoolQRService generates the QR code students scan to join a school.
func SchoolQRService(svc *Service, w http.ResponseWriter, r *http.Request) {

	schoolID := mux.Vars(r)["school-id"]

	sess, ok := session(w, r)
	if !ok {
		return
	}
	if !ownsSchool(w, sess, schoolID) {
		return
	}

	qr, err := svc.API.GenerateQR(r.Context(), sess.Token, schoolID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate QR code")
		return
	}

	HandleSuccessResponse(w, http.StatusOK, qr)
}

// UploadLogoService uploads an image and makes it the school's logo.
func UploadLogoService(svc *Service, w http.ResponseWriter, r *http.Request) {

	schoolID := mux.Vars(r)["school-id"]
	logger := zerolog.Ctx(r.Context()).With().Str("school_id", schoolID).Logger()

	sess, ok := session(w, r)
	if !ok {
		return
	}
	if !ownsSchool(w, sess, schoolID) {
		return
	}

	uploaded, ok := uploadFormFile(svc, w, r, sess, true)
	if !ok {
		return
	}

	school, err := svc.API.UpdateSchool(r.Context(), sess.Token, schoolID, models.SchoolUpdate{LogoURL: &uploaded.URL})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to save school logo")
		return
	}

	logger.Info().Str("logo_url", uploaded.URL).Msg("School logo updated")
	audit(svc, r, sess, events.ActionSchoolUpdated, schoolID, "logo")

	HandleSuccessResponse(w, http.StatusOK, school)
}

// UploadFileService passes a multipart upload through to the API and returns
// the hosted URL.
func UploadFileService(svc *Service, w http.ResponseWriter, r *http.Request) {

	sess, ok := session(w, r)
	if !ok {
		return
	}

	uploaded, ok := uploadFormFile(svc, w, r, sess, false)
	if !ok {
		return
	}

	HandleSuccessResponse(w, http.StatusCreated, uploaded)
}

func uploadFormFile(svc *Service, w http.ResponseWriter, r *http.Request, sess *middleware.Session, imageOnly bool) (*models.UploadedFile, bool) {
	logger := zerolog.Ctx(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		logger.Warn().Err(err).Msg("Invalid upload")
		HandleErrResponse(w, http.StatusBadRequest, fmt.Errorf("invalid upload: %w", err))
		return nil, false
	}
	defer file.Close()

	var content io.Reader = file
	if imageOnly {
		sniff := make([]byte, 512)
		n, err := io.ReadFull(file, sniff)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			HandleErrResponse(w, http.StatusBadRequest, fmt.Errorf("invalid upload: %w", err))
			return nil, false
		}
		sniff = sniff[:n]
		if !isImage(sniff) {
			HandleErrResponse(w, http.StatusBadRequest, errNotAnImage)
			return nil, false
		}
		content = io.MultiReader(bytes.NewReader(sniff), file)
	}

	uploaded, err := svc.API.UploadFile(r.Context(), sess.Token, header.Filename, content)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to upload file")
		return nil, false
	}
	return uploaded, true
}

// ownsSchool writes a 403 unless the session may manage schoolID.
func ownsSchool(w http.ResponseWriter, sess *middleware.Session, schoolID string) bool {
	scope, ok := schoolScope(w, sess)
	if !ok {
		return false
	}
	if scope != "" && scope != schoolID {
		HandleErrResponse(w, http.StatusForbidden, errOtherSchool)
		return false
	}
	return true
}

func isImage(head []byte) bool {
	return strings.HasPrefix(http.DetectContentType(head), "image/")
}
