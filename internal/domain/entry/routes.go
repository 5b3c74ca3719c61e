package entry

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the entry CRUD under the protected group.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	entries := r.Group("/entries")
	{
		entries.POST("", h.Create)
		entries.GET("", h.List)
		entries.GET("/:id", h.Get)
		entries.PUT("/:id", h.Update)
		entries.DELETE("/:id", h.Delete)
	}
}
