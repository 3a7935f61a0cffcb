package handlers

import (
	"net/http"

	"github.com/lemo-app/lemo-dashboard/api/services"
)

// GetSchools lists schools; requests with ?search= are debounced per session.
func GetSchools(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.ListSchoolsService(svc, w, r)
	}
}

func CreateSchool(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.CreateSchoolService(svc, w, r)
	}
}

func UpdateSchool(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.UpdateSchoolService(svc, w, r)
	}
}

func DeleteSchool(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.DeleteSchoolService(svc, w, r)
	}
}

func ConnectSchool(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.ConnectSchoolService(svc, w, r)
	}
}

func GetSchoolQR(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.SchoolQRService(svc, w, r)
	}
}

func UploadSchoolLogo(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.UploadLogoService(svc, w, r)
	}
}

func UploadFile(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.UploadFileService(svc, w, r)
	}
}
