package validate

import "github.com/lemo-app/lemo-dashboard/models"

// Forms maps the form names the dashboard can check ahead of submission to
// constructors of the payload they decode into.
var Forms = map[string]func() interface{}{
	"login":         func() interface{} { return &models.LoginRequest{} },
	"signup":        func() interface{} { return &models.SignupRequest{} },
	"verify-email":  func() interface{} { return &models.VerifyEmailRequest{} },
	"school":        func() interface{} { return &models.NewSchool{} },
	"staff":         func() interface{} { return &models.NewStaff{} },
	"block-request": func() interface{} { return &models.NewBlockRequest{} },
	"reject":        func() interface{} { return &models.Rejection{} },
}
