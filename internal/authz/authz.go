// Package authz decides what the signed-in user may see and do in the
// dashboard. Every navigation link and staff action goes through CanAccess.
package authz

import "github.com/lemo-app/lemo-dashboard/models"

// CanAccess reports whether the user's type is one of allowed. A user that
// has not been loaded yet never has access.
func CanAccess(u *models.User, allowed ...models.UserType) bool {
	if u == nil || !u.Type.Valid() {
		return false
	}
	for _, t := range allowed {
		if u.Type == t {
			return true
		}
	}
	return false
}

// NavLink is an entry of the dashboard sidebar.
type NavLink struct {
	Key     string            `json:"key"`
	Label   string            `json:"label"`
	Path    string            `json:"path"`
	Allowed []models.UserType `json:"-"`
}

// Type groups used by the sidebar and by route guards.
var (
	AllTypes      = []models.UserType{models.SuperAdmin, models.Admin, models.SchoolManager, models.Student}
	StaffTypes    = []models.UserType{models.SuperAdmin, models.Admin, models.SchoolManager}
	PlatformTypes = []models.UserType{models.SuperAdmin, models.Admin}
)

// Sidebar is the full navigation table. Links are shown only to the listed types.
var Sidebar = []NavLink{
	{Key: "dashboard", Label: "Dashboard", Path: "/dashboard", Allowed: StaffTypes},
	{Key: "schools", Label: "Schools", Path: "/dashboard/schools", Allowed: PlatformTypes},
	{Key: "staff", Label: "Staff", Path: "/dashboard/staff", Allowed: StaffTypes},
	{Key: "students", Label: "Students", Path: "/dashboard/students", Allowed: StaffTypes},
	{Key: "admins", Label: "Admins", Path: "/dashboard/admins", Allowed: []models.UserType{models.SuperAdmin}},
	{Key: "block-requests", Label: "Block requests", Path: "/dashboard/block-requests", Allowed: StaffTypes},
	{Key: "settings", Label: "Settings", Path: "/dashboard/settings", Allowed: AllTypes},
}

// VisibleLinks returns the sidebar links the user may see, in table order.
func VisibleLinks(u *models.User) []NavLink {
	links := []NavLink{}
	for _, link := range Sidebar {
		if CanAccess(u, link.Allowed...) {
			links = append(links, link)
		}
	}
	return links
}

// LinkAllowed returns the allowed types for a sidebar key.
func LinkAllowed(key string) []models.UserType {
	for _, link := range Sidebar {
		if link.Key == key {
			return link.Allowed
		}
	}
	return nil
}

// AssignableStaffTypes returns the staff types the actor may give to a
// staff account in the add and edit staff forms.
func AssignableStaffTypes(actor *models.User) []models.UserType {
	switch {
	case CanAccess(actor, models.SuperAdmin):
		return []models.UserType{models.Admin, models.SchoolManager}
	case CanAccess(actor, models.Admin):
		return []models.UserType{models.SchoolManager}
	}
	return []models.UserType{}
}

// CanAssignType reports whether the actor may give target type t.
func CanAssignType(actor *models.User, t models.UserType) bool {
	for _, assignable := range AssignableStaffTypes(actor) {
		if assignable == t {
			return true
		}
	}
	return false
}

// CanManageUser reports whether the actor may edit or delete target. Nobody
// manages their own account through the staff pages. School managers only
// manage the students of their school.
func CanManageUser(actor, target *models.User) bool {
	if target == nil || actor == nil || actor.ID == target.ID {
		return false
	}

	switch {
	case CanAccess(actor, models.SuperAdmin):
		return target.Type != models.SuperAdmin
	case CanAccess(actor, models.Admin):
		return target.Type == models.SchoolManager || target.Type == models.Student
	case CanAccess(actor, models.SchoolManager):
		if actor.SchoolID() == "" || actor.SchoolID() != target.SchoolID() {
			return false
		}
		return target.Type == models.Student
	}
	return false
}

// ScopeSchool returns the school the actor's listings must be limited to, or
// "" when the actor may see every school.
func ScopeSchool(actor *models.User) string {
	if CanAccess(actor, models.SuperAdmin, models.Admin) {
		return ""
	}
	return actor.SchoolID()
}

// CanListType reports whether the actor may list users of type t. An empty
// t lists every type, which only super admins may do.
func CanListType(actor *models.User, t models.UserType) bool {
	switch {
	case CanAccess(actor, models.SuperAdmin):
		return t == "" || t.Valid()
	case CanAccess(actor, models.Admin, models.SchoolManager):
		return t == models.SchoolManager || t == models.Student
	}
	return false
}
