package models

import "strings"

type Status string

const (
	StatusRequested Status = "requested"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusEnroute   Status = "enroute"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var AllStatuses = []Status{
	StatusRequested, StatusAccepted, StatusRejected,
	StatusEnroute, StatusCompleted, StatusCancelled,
}

type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleProvider
}

type Classification string

const (
	ClassActive    Classification = "ACTIVE"
	ClassCompleted Classification = "COMPLETED"
	ClassClosed    Classification = "CLOSED"
)

func (s Status) Valid() bool {
	_, ok := s.Classification()
	return ok
}

func (s Status) Classification() (Classification, bool) {
	switch s {
	case StatusRequested, StatusAccepted, StatusEnroute:
		return ClassActive, true
	case StatusCompleted:
		return ClassCompleted, true
	case StatusCancelled, StatusRejected:
		return ClassClosed, true
	}
	return "", false
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Friendly is the one-line text shown to users when a status changes.
func (s Status) Friendly() string {
	switch s {
	case StatusRequested:
		return "Waiting for provider ⏳"
	case StatusAccepted:
		return "Provider accepted ✅"
	case StatusEnroute:
		return "Provider on the way 🚗"
	case StatusCompleted:
		return "Service completed 🎉"
	case StatusRejected:
		return "Rejected ❌"
	case StatusCancelled:
		return "Cancelled ❌"
	}
	return string(s)
}

func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", &ValidationError{Field: "status", Reason: "unknown status " + v}
	}
	return s, nil
}

// transitions lists every legal edge and the role allowed to take it.
var transitions = map[Status]map[Status]Role{
	StatusRequested: {
		StatusAccepted:  RoleProvider,
		StatusRejected:  RoleProvider,
		StatusCancelled: RoleCustomer,
	},
	StatusAccepted: {
		StatusEnroute:   RoleProvider,
		StatusCancelled: RoleCustomer,
	},
	StatusEnroute: {
		StatusCompleted: RoleProvider,
	},
}

// NextStatuses returns the targets role may move a booking in from to.
func NextStatuses(from Status, role Role) []Status {
	var out []Status
	for _, to := range AllStatuses {
		if r, ok := transitions[from][to]; ok && r == role {
			out = append(out, to)
		}
	}
	return out
}

// ValidateTransition checks one edge of the lifecycle graph. Moving to the
// current status is always allowed and means "nothing to do".
func ValidateTransition(from Status, role Role, to Status) error {
	if !to.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown status " + string(to)}
	}
	if from == to {
		return nil
	}
	allowed, ok := transitions[from][to]
	if !ok {
		return &IllegalTransitionError{From: from, To: to, Role: role, Reason: "no such edge"}
	}
	if allowed != role {
		return &IllegalTransitionError{From: from, To: to, Role: role, Reason: "only " + string(allowed) + " may do this"}
	}
	return nil
}
