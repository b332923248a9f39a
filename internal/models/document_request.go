package models

import "github.com/google/uuid"

type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "Pending"
	RequestStatusProcessing RequestStatus = "Processing"
	RequestStatusCompleted  RequestStatus = "Completed"
	RequestStatusRejected   RequestStatus = "Rejected"
)

type RequestDecision string

const (
	RequestDecisionNone     RequestDecision = ""
	RequestDecisionAccepted RequestDecision = "accepted"
	RequestDecisionRejected RequestDecision = "rejected"
)

// DefaultRejectionReason is recorded when a request is rejected without one.
const DefaultRejectionReason = "No reason provided"

// DocumentRequest tracks one request through its lifecycle. UserID never
// changes after creation; the owner may be deleted later, in which case the
// request is kept as-is.
type DocumentRequest struct {
	BaseModel
	UserID          uuid.UUID       `json:"userId" gorm:"type:uuid;not null;index"`
	DocumentType    string          `json:"documentType" gorm:"type:varchar(100);not null;index"`
	Message         string          `json:"message" gorm:"type:text;not null"`
	Status          RequestStatus   `json:"status" gorm:"type:varchar(30);not null;default:'Pending';index"`
	Decision        RequestDecision `json:"decision" gorm:"type:varchar(20);not null;default:''"`
	RejectionReason string          `json:"rejectionReason" gorm:"type:text;not null;default:''"`
	FileURL         string          `json:"fileUrl" gorm:"type:text;not null;default:''"`
}
