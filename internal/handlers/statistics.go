package handlers

import (
	"github.com/acadocs/backend/internal/models"
	"github.com/acadocs/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type StatisticsHandler struct {
	DB *gorm.DB
}

func NewStatisticsHandler(db *gorm.DB) *StatisticsHandler {
	return &StatisticsHandler{DB: db}
}

// Get returns request counts by status. Plain conditional counts, nothing
// clever.
func (h *StatisticsHandler) Get(c *fiber.Ctx) error {
	var total int64
	if err := h.DB.Model(&models.DocumentRequest{}).Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed computing statistics")
	}

	counts := map[string]int64{}
	for _, status := range []models.RequestStatus{
		models.RequestStatusPending,
		models.RequestStatusProcessing,
		models.RequestStatusCompleted,
		models.RequestStatusRejected,
	} {
		var count int64
		err := h.DB.Model(&models.DocumentRequest{}).
			Where("status = ?", status).
			Count(&count).Error
		if err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed computing statistics")
		}
		counts[string(status)] = count
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"totalRequests":      total,
		"pendingRequests":    counts[string(models.RequestStatusPending)],
		"processingRequests": counts[string(models.RequestStatusProcessing)],
		"completedRequests":  counts[string(models.RequestStatusCompleted)],
		"rejectedRequests":   counts[string(models.RequestStatusRejected)],
	})
}
