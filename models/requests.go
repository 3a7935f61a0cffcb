package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// RequestStatus is the lifecycle state of a block request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s RequestStatus) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// BlockRequest is a school's request to have a website blocked on its network.
type BlockRequest struct {
	ID              string        `json:"_id"`
	User            *UserRef      `json:"user,omitempty"`
	School          *SchoolRef    `json:"school,omitempty"`
	SiteURL         string        `json:"site_url"`
	Reason          string        `json:"reason"`
	Status          RequestStatus `json:"status"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// RequestState is the decoded form of a block request status. It is one of
// Pending, Approved or Rejected.
type RequestState interface {
	Status() RequestStatus
	isRequestState()
}

// Pending has not been decided yet.
type Pending struct{}

// Approved carries the server time the request was approved at.
type Approved struct {
	At time.Time
}

// Rejected carries the reviewer's reason and the server time of the decision.
type Rejected struct {
	Reason string
	At     time.Time
}

func (Pending) Status() RequestStatus { return StatusPending }
func (Approved) Status() RequestStatus { return StatusApproved }
func (Rejected) Status() RequestStatus { return StatusRejected }

func (Pending) isRequestState() {}
func (Approved) isRequestState() {}
func (Rejected) isRequestState() {}

// State returns the tagged state of the request. Unknown statuses are
// reported as an error rather than guessed from optional fields.
func (r BlockRequest) State() (RequestState, error) {
	switch r.Status {
	case StatusPending:
		return Pending{}, nil
	case StatusApproved:
		return Approved{At: r.UpdatedAt}, nil
	case StatusRejected:
		return Rejected{Reason: r.RejectionReason, At: r.UpdatedAt}, nil
	default:
		return nil, fmt.Errorf("unknown block request status %q", r.Status)
	}
}

// UserRef is a reference to a user; the API sends the id or the populated document.
type UserRef struct {
	ID       string `json:"_id"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
}

func (u *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &u.ID)
	}

	type populated UserRef
	var p populated
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to decode user reference: %w", err)
	}
	*u = UserRef(p)
	return nil
}

func (u UserRef) MarshalJSON() ([]byte, error) {
	if u.FullName == "" && u.Email == "" {
		return json.Marshal(u.ID)
	}
	type populated UserRef
	return json.Marshal(populated(u))
}

// NewBlockRequest asks for a site to be blocked.
type NewBlockRequest struct {
	SiteURL string `json:"site_url" validate:"required,url"`
	Reason  string `json:"reason" validate:"required,notblank"`
	School  string `json:"school,omitempty"`
}

// Decision is sent with PATCH /block-requests/:id.
type Decision struct {
	Status          RequestStatus `json:"status"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
}

// Rejection is the payload of the reject dialog.
type Rejection struct {
	Reason string `json:"rejectionReason" validate:"required,notblank"`
}

// Board groups block requests by status, newest first.
type Board struct {
	Pending  []BlockRequest `json:"pending"`
	Approved []BlockRequest `json:"approved"`
	Rejected []BlockRequest `json:"rejected"`
}

// NewBoard sorts requests into their status lists, keeping input order.
func NewBoard(requests []BlockRequest) *Board {
	b := &Board{
		Pending:  []BlockRequest{},
		Approved: []BlockRequest{},
		Rejected: []BlockRequest{},
	}
	for _, req := range requests {
		if list := b.list(req.Status); list != nil {
			*list = append(*list, req)
		}
	}
	return b
}

// Apply moves a request that the API has just updated into the list for its
// new status, removing it from wherever it was before.
func (b *Board) Apply(updated BlockRequest) {
	for _, status := range []RequestStatus{StatusPending, StatusApproved, StatusRejected} {
		list := b.list(status)
		for i := range *list {
			if (*list)[i].ID == updated.ID {
				*list = append((*list)[:i], (*list)[i+1:]...)
				break
			}
		}
	}

	if list := b.list(updated.Status); list != nil {
		*list = append([]BlockRequest{updated}, *list...)
	}
}

// Find returns the request with the given id, if present.
func (b *Board) Find(id string) (BlockRequest, bool) {
	for _, list := range [][]BlockRequest{b.Pending, b.Approved, b.Rejected} {
		for _, req := range list {
			if req.ID == id {
				return req, true
			}
		}
	}
	return BlockRequest{}, false
}

func (b *Board) list(status RequestStatus) *[]BlockRequest {
	switch status {
	case StatusPending:
		return &b.Pending
	case StatusApproved:
		return &b.Approved
	case StatusRejected:
		return &b.Rejected
	}
	return nil
}
