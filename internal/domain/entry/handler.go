package entry

import (
	"errors"
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

func (h *Handler) Create(c *gin.Context) {
	accountID := middleware.AccountID(c)
	if accountID == 0 {
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	e, err := h.service.Create(c.Request.Context(), accountID, req)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	response.Success(c, http.StatusCreated, e)
}

func (h *Handler) Get(c *gin.Context) {
	accountID := middleware.AccountID(c)
	if accountID == 0 {
		return
	}

	e, err := h.service.Get(c.Request.Context(), c.Param("id"), accountID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, e)
}

func (h *Handler) List(c *gin.Context) {
	accountID := middleware.AccountID(c)
	if accountID == 0 {
		return
	}

	entries, err := h.service.List(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to list entries")
		return
	}

	response.Success(c, http.StatusOK, entries)
}

func (h *Handler) Update(c *gin.Context) {
	accountID := middleware.AccountID(c)
	if accountID == 0 {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	e, err := h.service.Update(c.Request.Context(), c.Param("id"), accountID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, e)
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

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEntryNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrNotOwner):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "operation failed")
	}
}
