package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeProfileCreated        = "profile.created"
	EventTypeProfileUpdated        = "profile.updated"
	EventTypeCreditRequestApproved = "credit_request.approved"
)

type ProfileChangedEvent struct {
	BaseEvent
	ProfileID string `json:"profile_id"`
}

func NewProfileChangedEvent(eventType, profileID string) *ProfileChangedEvent {
	return &ProfileChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now().UTC(),
			Data: map[string]interface{}{
				"profile_id": profileID,
			},
		},
		ProfileID: profileID,
	}
}

type CreditRequestApprovedEvent struct {
	BaseEvent
	RequestID    string `json:"request_id"`
	AssignmentID string `json:"assignment_id"`
	EmployeeID   string `json:"employee_id"`
	Credits      int64  `json:"credits"`
	ReviewedBy   string `json:"reviewed_by"`
}

func NewCreditRequestApprovedEvent(requestID, assignmentID, employeeID string, credits int64, reviewedBy string) *CreditRequestApprovedEvent {
	return &CreditRequestApprovedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeCreditRequestApproved,
			Timestamp: time.Now().UTC(),
			Data: map[string]interface{}{
				"request_id":    requestID,
				"assignment_id": assignmentID,
				"employee_id":   employeeID,
				"credits":       credits,
				"reviewed_by":   reviewedBy,
			},
		},
		RequestID:    requestID,
		AssignmentID: assignmentID,
		EmployeeID:   employeeID,
		Credits:      credits,
		ReviewedBy:   reviewedBy,
	}
}
