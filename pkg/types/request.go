package types

// RequestKind is the flavor of marketplace request a client can open.
type RequestKind string

const (
	RequestKindPlanner       RequestKind = "planner"
	RequestKindHelper        RequestKind = "helper"
	RequestKindCommunication RequestKind = "communication"
)

func (k RequestKind) Valid() bool {
	switch k {
	case RequestKindPlanner, RequestKindHelper, RequestKindCommunication:
		return true
	}
	return false
}

// RequestStatus: pending -> approved | rejected. Both outcomes are terminal.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	if s != RequestStatusPending {
		return false
	}
	return next == RequestStatusApproved || next == RequestStatusRejected
}
