package handlers

import (
	"net/http"

	"github.com/lemo-app/lemo-dashboard/api/services"
)

func GetBlockRequests(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.ListBlockRequestsService(svc, w, r)
	}
}

func CreateBlockRequest(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.CreateBlockRequestService(svc, w, r)
	}
}

func ApproveBlockRequest(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.ApproveBlockRequestService(svc, w, r)
	}
}

// RejectBlockRequest rejects a pending request; the body must carry a
// non-blank rejectionReason.
func RejectBlockRequest(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.RejectBlockRequestService(svc, w, r)
	}
}
