package media

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the attachment endpoints under the protected group.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/entries/:id/attachments", h.Upload)
	r.GET("/entries/:id/attachments", h.ListForEntry)
	r.GET("/attachments/:id/url", h.ReadURL)
	r.DELETE("/attachments/:id", h.Delete)
	r.GET("/media/usage", h.Usage)
}
