package auth

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

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			response.Error(c, http.StatusConflict, "EMAIL_TAKEN", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "registration failed")
		return
	}

	response.Success(c, http.StatusCreated, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "login failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":         result.User,
		"access_token": result.AccessToken,
	})
}

func (h *Handler) Me(c *gin.Context) {
	accountID := middleware.AccountID(c)
	if accountID == 0 {
		return
	}

	user, err := h.service.Me(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "account not found")
		return
	}

	response.Success(c, http.StatusOK, user)
}

func (h *Handler) ChangeTier(c *gin.Context) {
	accountID := middleware.AccountID(c)
	if accountID == 0 {
		return
	}

	var req ChangeTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	user, err := h.service.ChangeTier(c.Request.Context(), accountID, Tier(req.Tier))
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownTier):
			response.Error(c, http.StatusBadRequest, "UNKNOWN_TIER", err.Error())
		case errors.Is(err, ErrUserNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "account not found")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL", "tier change failed")
		}
		return
	}

	response.Success(c, http.StatusOK, user)
}
