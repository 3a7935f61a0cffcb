package services

import (
	"context"
	"net/http"
	"sync"

	"github.com/lemo-app/lemo-dashboard/internal/authz"
	"github.com/lemo-app/lemo-dashboard/models"
	"golang.org/x/sync/errgroup"
)

// Overview holds the dashboard counters. Counters the user may not see are
// omitted.
type Overview struct {
	Schools         *int `json:"schools,omitempty"`
	Admins          *int `json:"admins,omitempty"`
	Staff           *int `json:"staff,omitempty"`
	Students        *int `json:"students,omitempty"`
	PendingRequests *int `json:"pendingRequests,omitempty"`
}

// DashboardService fetches the dashboard counters concurrently.
func DashboardService(svc *Service, w http.ResponseWriter, r *http.Request) {

	sess, ok := session(w, r)
	if !ok {
		return
	}

	scope, ok := schoolScope(w, sess)
	if !ok {
		return
	}

	var (
		mu       sync.Mutex
		overview Overview
	)
	set := func(field **int, n int) {
		mu.Lock()
		defer mu.Unlock()
		*field = &n
	}

	// Only a single item is fetched per list; the page total is the count
	one := models.ListQuery{Page: 1, Limit: 1, School: scope}
	token := sess.Token

	g, ctx := errgroup.WithContext(r.Context())

	if authz.CanAccess(sess.User, authz.LinkAllowed("schools")...) {
		g.Go(func() error {
			page, err := svc.API.ListSchools(ctx, token, models.ListQuery{Page: 1, Limit: 1})
			if err != nil {
				return err
			}
			set(&overview.Schools, page.Total)
			return nil
		})
	}

	if authz.CanAccess(sess.User, authz.LinkAllowed("admins")...) {
		g.Go(func() error {
			return countUsers(ctx, svc, token, one, models.Admin, func(n int) { set(&overview.Admins, n) })
		})
	}

	if authz.CanAccess(sess.User, authz.LinkAllowed("staff")...) {
		g.Go(func() error {
			return countUsers(ctx, svc, token, one, models.SchoolManager, func(n int) { set(&overview.Staff, n) })
		})
	}

	if authz.CanAccess(sess.User, authz.LinkAllowed("students")...) {
		g.Go(func() error {
			return countUsers(ctx, svc, token, one, models.Student, func(n int) { set(&overview.Students, n) })
		})
	}

	if authz.CanAccess(sess.User, authz.LinkAllowed("block-requests")...) {
		g.Go(func() error {
			q := one
			q.Status = models.StatusPending
			page, err := svc.API.ListBlockRequests(ctx, token, q)
			if err != nil {
				return err
			}
			set(&overview.PendingRequests, page.Total)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		HandleAPIError(w, r, err, "Failed to load dashboard")
		return
	}

	HandleSuccessResponse(w, http.StatusOK, overview)
}

func countUsers(ctx context.Context, svc *Service, token string, q models.ListQuery, t models.UserType, set func(int)) error {
	q.Type = t
	page, err := svc.API.ListUsers(ctx, token, q)
	if err != nil {
		return err
	}
	set(page.Total)
	return nil
}
