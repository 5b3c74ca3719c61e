package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the public auth endpoints.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	a := r.Group("/auth")
	{
		a.POST("/register", h.Register)
		a.POST("/login", h.Login)
	}
}

// RegisterProtectedRoutes mounts account endpoints that require a token.
func RegisterProtectedRoutes(r *gin.RouterGroup, h *Handler) {
	account := r.Group("/account")
	{
		account.GET("/me", h.Me)
		account.PUT("/tier", h.ChangeTier)
	}
}
