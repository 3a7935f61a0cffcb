package services

import (
	"time"

	"github.com/lemo-app/lemo-dashboard/internal/appconfig"
	"github.com/lemo-app/lemo-dashboard/internal/cache"
	"github.com/lemo-app/lemo-dashboard/internal/events"
	"github.com/lemo-app/lemo-dashboard/internal/metrics"
	"github.com/lemo-app/lemo-dashboard/internal/prefs"
	"github.com/lemo-app/lemo-dashboard/internal/search"
)

// PreferenceStore keeps a user's custom preference lists.
type PreferenceStore interface {
	Get(userID string, list prefs.List) ([]string, error)
	Add(userID string, list prefs.List, value string) ([]string, error)
	Remove(userID string, list prefs.List, value string) ([]string, error)
}

// Service contains all shared dependencies for handlers.
type Service struct {
	Config    *appconfig.Config
	API       LemoAPI
	Prefs     PreferenceStore
	Profiles  cache.ProfileCache
	Publisher events.Notifier
	Search    *search.Debouncer
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

func (svc *Service) now() time.Time {
	if svc.Now != nil {
		return svc.Now()
	}
	return time.Now()
}
