package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/acadocs/backend/internal/models"
	"github.com/acadocs/backend/internal/storage"
	"github.com/acadocs/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestService is the document-request lifecycle: submission, the staff
// decision, fulfillment by upload, and the role-branched queries. Role checks
// run against the caller's directory record on every operation; nothing is
// cached between calls.
type RequestService struct {
	db       *gorm.DB
	storage  storage.Uploader
	notifier *Notifier
}

func NewRequestService(db *gorm.DB, uploader storage.Uploader, notifier *Notifier) *RequestService {
	return &RequestService{db: db, storage: uploader, notifier: notifier}
}

// Submit opens a request for the caller. Any authenticated role may submit.
// Staff are notified so someone picks it up.
func (s *RequestService) Submit(ctx context.Context, caller *models.User, documentType, message string) (*models.DocumentRequest, error) {
	documentType = strings.TrimSpace(documentType)
	message = strings.TrimSpace(message)
	if documentType == "" || message == "" {
		return nil, ErrInvalidInput
	}

	request := models.DocumentRequest{
		UserID:       caller.ID,
		DocumentType: documentType,
		Message:      message,
		Status:       models.RequestStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&request).Error; err != nil {
		return nil, err
	}

	logger.InfoWithUser(caller.ID.String(), "request_submitted", map[string]interface{}{
		"request_id":    request.ID.String(),
		"document_type": documentType,
	})

	s.notifier.NotifyStaff(
		"New document request",
		"A new document request has been submitted. Please process it.",
	)

	return &request, nil
}

// Fulfill uploads the produced document and completes the request. Personnel
// only; admins decide, they do not fulfill.
func (s *RequestService) Fulfill(ctx context.Context, caller *models.User, requestID uuid.UUID, file io.Reader, size int64, filename, contentType string) (string, error) {
	if caller.Role != models.UserRolePersonnel {
		return "", ErrForbidden
	}

	var request models.DocumentRequest
	if err := s.db.WithContext(ctx).First(&request, "id = ?", requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", ErrRequestNotFound
		}
		return "", err
	}

	objectName := fmt.Sprintf("requests/%s/%s/%s", request.ID.String(), uuid.New().String(), filename)
	if err := s.storage.Upload(ctx, objectName, file, size, contentType); err != nil {
		return "", err
	}
	fileURL := s.storage.PublicURL(objectName)

	// Plain column update, no compare-and-swap: a concurrent decision on the
	// same request races with last-write-wins.
	err := s.db.WithContext(ctx).
		Model(&models.DocumentRequest{}).
		Where("id = ?", request.ID).
		Updates(map[string]interface{}{
			"status":   models.RequestStatusCompleted,
			"file_url": fileURL,
		}).Error
	if err != nil {
		return "", err
	}

	logger.InfoWithUser(caller.ID.String(), "request_fulfilled", map[string]interface{}{
		"request_id": request.ID.String(),
		"file_url":   fileURL,
	})

	s.notifyOwner(ctx, &request)

	return fileURL, nil
}

// notifyOwner tells the requester their document is ready. Owners may have
// been deleted since submission; that just skips the notification.
func (s *RequestService) notifyOwner(ctx context.Context, request *models.DocumentRequest) {
	var owner models.User
	if err := s.db.WithContext(ctx).First(&owner, "id = ?", request.UserID).Error; err != nil {
		logger.Warn("request_owner_missing", map[string]interface{}{
			"request_id": request.ID.String(),
			"user_id":    request.UserID.String(),
		})
		return
	}
	if owner.NotificationToken == nil || *owner.NotificationToken == "" {
		return
	}

	s.notifier.NotifyUser(
		*owner.NotificationToken,
		"Document ready",
		"Your document request has been processed and the file is now available.",
	)
}

// Decide records the staff verdict. "rejected" parks the request with a
// reason, "accepted" moves it to Processing and clears any previous reason.
// Any other decision value changes nothing and still succeeds.
func (s *RequestService) Decide(ctx context.Context, caller *models.User, requestID uuid.UUID, decision models.RequestDecision, rejectionReason string) error {
	if !caller.IsStaff() {
		return ErrForbidden
	}

	var request models.DocumentRequest
	if err := s.db.WithContext(ctx).First(&request, "id = ?", requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrRequestNotFound
		}
		return err
	}

	var updates map[string]interface{}
	switch decision {
	case models.RequestDecisionRejected:
		reason := strings.TrimSpace(rejectionReason)
		if reason == "" {
			reason = models.DefaultRejectionReason
		}
		updates = map[string]interface{}{
			"status":           models.RequestStatusRejected,
			"decision":         models.RequestDecisionRejected,
			"rejection_reason": reason,
		}
	case models.RequestDecisionAccepted:
		updates = map[string]interface{}{
			"status":           models.RequestStatusProcessing,
			"decision":         models.RequestDecisionAccepted,
			"rejection_reason": "",
		}
	default:
		// Unknown decision values are a permissive no-op.
		return nil
	}

	if err := s.db.WithContext(ctx).
		Model(&models.DocumentRequest{}).
		Where("id = ?", request.ID).
		Updates(updates).Error; err != nil {
		return err
	}

	logger.InfoWithUser(caller.ID.String(), "request_decided", map[string]interface{}{
		"request_id": request.ID.String(),
		"decision":   string(decision),
	})
	return nil
}

// ListOwn returns the caller's requests. Staff are turned away; they query
// the global set through ListAll instead.
func (s *RequestService) ListOwn(ctx context.Context, caller *models.User) ([]models.DocumentRequest, error) {
	if caller.IsStaff() {
		return nil, ErrForbidden
	}
	return s.findRequests(s.db.WithContext(ctx).Where("user_id = ?", caller.ID))
}

// ListAll returns every request, unfiltered. Staff only.
func (s *RequestService) ListAll(ctx context.Context, caller *models.User) ([]models.DocumentRequest, error) {
	if !caller.IsStaff() {
		return nil, ErrForbidden
	}
	return s.findRequests(s.db.WithContext(ctx))
}

// Search applies optional equality filters on documentType and status. Staff
// search globally, everyone else searches their own requests.
func (s *RequestService) Search(ctx context.Context, caller *models.User, documentType, status string) ([]models.DocumentRequest, error) {
	query := s.db.WithContext(ctx)
	if !caller.IsStaff() {
		query = query.Where("user_id = ?", caller.ID)
	}
	if documentType != "" {
		query = query.Where("document_type = ?", documentType)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return s.findRequests(query)
}

func (s *RequestService) findRequests(query *gorm.DB) ([]models.DocumentRequest, error) {
	var requests []models.DocumentRequest
	if err := query.Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}
