package handlers

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/acadocs/backend/internal/middleware"
	"github.com/acadocs/backend/internal/models"
	"github.com/acadocs/backend/internal/services"
	"github.com/acadocs/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type RequestsHandler struct {
	Service *services.RequestService
}

func NewRequestsHandler(service *services.RequestService) *RequestsHandler {
	return &RequestsHandler{Service: service}
}

type submitRequest struct {
	DocumentType string `json:"documentType"`
	Message      string `json:"message"`
}

func (h *RequestsHandler) Submit(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	request, err := h.Service.Submit(c.Context(), currentUser, req.DocumentType, req.Message)
	if err != nil {
		return serviceError(c, err, "request_submit_failed")
	}

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"requestId": request.ID,
		"status":    request.Status,
	})
}

// Upload fulfills a request: the produced document goes to object storage
// and the request is completed with the resulting URL.
func (h *RequestsHandler) Upload(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	requestID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request id")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}

	stream, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed opening uploaded file")
	}
	defer stream.Close()

	filename := filepath.Base(strings.TrimSpace(fileHeader.Filename))
	if filename == "" || filename == "." {
		return utils.Error(c, fiber.StatusBadRequest, "invalid filename")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	fileURL, err := h.Service.Fulfill(c.Context(), currentUser, requestID, stream, fileHeader.Size, filename, contentType)
	if err != nil {
		return serviceError(c, err, "request_fulfill_failed")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"fileUrl": fileURL})
}

type updateStatusRequest struct {
	Decision        string `json:"decision"`
	RejectionReason string `json:"rejectionReason"`
}

func (h *RequestsHandler) UpdateStatus(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	requestID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	decision := models.RequestDecision(strings.TrimSpace(req.Decision))
	if err := h.Service.Decide(c.Context(), currentUser, requestID, decision, req.RejectionReason); err != nil {
		return serviceError(c, err, "request_decide_failed")
	}

	return utils.Message(c, fiber.StatusOK, "request status updated")
}

func (h *RequestsHandler) Mine(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	requests, err := h.Service.ListOwn(c.Context(), currentUser)
	if err != nil {
		return serviceError(c, err, "request_list_own_failed")
	}

	return utils.Success(c, fiber.StatusOK, requests)
}

func (h *RequestsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	requests, err := h.Service.ListAll(c.Context(), currentUser)
	if err != nil {
		return serviceError(c, err, "request_list_all_failed")
	}

	return utils.Success(c, fiber.StatusOK, requests)
}

func (h *RequestsHandler) Search(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	documentType := strings.TrimSpace(c.Query("documentType"))
	status := strings.TrimSpace(c.Query("status"))

	requests, err := h.Service.Search(c.Context(), currentUser, documentType, status)
	if err != nil {
		return serviceError(c, err, "request_search_failed")
	}

	return utils.Success(c, fiber.StatusOK, requests)
}
