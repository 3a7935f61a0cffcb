package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/lemo-app/lemo-dashboard/internal/search"
	"github.com/rs/zerolog"
)

var errSuperseded = errors.New("superseded by a newer search")

// searchContext debounces list requests that carry a search term. It returns
// the context the upstream call must use and a release func. ok is false when
// the request lost to a newer one and the response has already been dealt
// with.
func searchContext(svc *Service, w http.ResponseWriter, r *http.Request, token, resource string) (ctx context.Context, release func(), ok bool) {
	if svc.Search == nil || !r.URL.Query().Has("search") {
		return r.Context(), func() {}, true
	}

	ctx, release, err := svc.Search.Wait(r.Context(), search.Key(token, resource))
	switch {
	case errors.Is(err, search.ErrSuperseded):
		writeSuperseded(svc, w, r, resource)
		return nil, nil, false
	case err != nil:
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Search abandoned by the client")
		return nil, nil, false
	}
	return ctx, release, true
}

// stale reports whether a newer search replaced this one while it ran, and
// answers the request if so.
func stale(svc *Service, w http.ResponseWriter, r *http.Request, ctx context.Context, resource string) bool {
	if !search.Superseded(ctx) {
		return false
	}
	writeSuperseded(svc, w, r, resource)
	return true
}

func writeSuperseded(svc *Service, w http.ResponseWriter, r *http.Request, resource string) {
	zerolog.Ctx(r.Context()).Debug().Str("resource", resource).Msg("Search superseded")
	if svc.Metrics != nil {
		svc.Metrics.SearchSuperseded.WithLabelValues(resource).Inc()
	}
	HandleErrResponse(w, http.StatusConflict, errSuperseded)
}
