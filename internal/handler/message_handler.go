package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/flash"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/middleware"
)

// MessageHandler exposes the flash broker so pages can fetch their pending
// status message after a redirect.
type MessageHandler struct {
	Flash *flash.Broker
}

// RegisterRoutes wires the flash routes on the public group.
func (h *MessageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/messages", h.Get)
	rg.GET("/messages/peek", h.Peek)
}

// Get handles GET /api/messages. Reading consumes the message; a second call
// returns message: null even inside the TTL window.
func (h *MessageHandler) Get(c *gin.Context) {
	msg, ok := h.Flash.Get(middleware.ActorFlashKey(c))
	if !ok {
		jsonSuccess(c, gin.H{"message": nil})
		return
	}
	jsonSuccess(c, gin.H{"message": msg})
}

// Peek handles GET /api/messages/peek: a non-destructive existence check for
// UI hints. It may race with a concurrent Get.
func (h *MessageHandler) Peek(c *gin.Context) {
	jsonSuccess(c, gin.H{"has_message": h.Flash.Has(middleware.ActorFlashKey(c))})
}
