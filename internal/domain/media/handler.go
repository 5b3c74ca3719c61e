package media

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"daybook/internal/middleware"
	"daybook/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload accepts a multipart file and attaches it to the entry in the path.
func (h *Handler) Upload(c *gin.Context) {
	accountID := middleware.AccountID(c)
	if accountID == 0 {
		return
	}
	entryID := c.Param("id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "NO_FILE", "no file provided")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_FILE", "could not read file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_FILE", "could not read file")
		return
	}

	result, err := h.service.Upload(
		c.Request.Context(),
		accountID,
		entryID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		data,
	)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

func (h *Handler) ReadURL(c *gin.Context) {
	accountID := middleware.AccountID(c)
	if accountID == 0 {
		return
	}

	url, err := h.service.ReadURL(c.Request.Context(), c.Param("id"), accountID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"url": url})
}

func (h *Handler) Delete(c *gin.Context) {
	accountID := middleware.AccountID(c)
	if accountID == 0 {
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), accountID); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) ListForEntry(c *gin.Context) {
	accountID := middleware.AccountID(c)
	if accountID == 0 {
		return
	}

	atts, err := h.service.ListForEntry(c.Request.Context(), c.Param("id"), accountID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, atts)
}

func (h *Handler) Usage(c *gin.Context) {
	accountID := middleware.AccountID(c)
	if accountID == 0 {
		return
	}

	info, err := h.service.Usage(c.Request.Context(), accountID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, info)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var sizeErr *SizeLimitError
	if errors.As(err, &sizeErr) {
		response.ErrorWithDetails(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", sizeErr.Error(), gin.H{
			"kind":     sizeErr.Kind,
			"size_mb":  sizeErr.SizeMB,
			"limit_mb": sizeErr.LimitMB,
		})
		return
	}

	var quotaErr *QuotaError
	if errors.As(err, &quotaErr) {
		response.ErrorWithDetails(c, http.StatusForbidden, "QUOTA_EXCEEDED", quotaErr.Error(), gin.H{
			"tier":         quotaErr.Tier,
			"limit_mb":     quotaErr.LimitMB,
			"remaining_mb": quotaErr.RemainingMB,
		})
		return
	}

	switch {
	case errors.Is(err, ErrUnsupportedMediaType):
		response.Error(c, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", err.Error())
	case errors.Is(err, ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
	case errors.Is(err, ErrQuotaExceeded):
		response.Error(c, http.StatusForbidden, "QUOTA_EXCEEDED", err.Error())
	case errors.Is(err, ErrAccessDenied):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, ErrAttachmentNotFound), errors.Is(err, ErrAccountNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrTransformFailure):
		response.Error(c, http.StatusUnprocessableEntity, "TRANSFORM_FAILED", err.Error())
	case errors.Is(err, ErrStoreFailure):
		response.Error(c, http.StatusBadGateway, "STORE_FAILURE", "object store is unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "operation failed")
	}
}
