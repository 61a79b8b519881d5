package controller

import (
	"context"
	"net/http"

	"go-roomchat/internal/pkg/chat/application/session"
	"go-roomchat/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
)

// DeleteMessageController tombstones a message and notifies the room.
type DeleteMessageController struct {
	Pipeline *session.Pipeline
}

func NewDeleteMessageController(pipeline *session.Pipeline) *DeleteMessageController {
	return &DeleteMessageController{Pipeline: pipeline}
}

func (h *DeleteMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := idParam(c, "roomId")
		if !ok {
			return
		}
		messageID, ok := idParam(c, "messageId")
		if !ok {
			return
		}
		caller, ok := principal(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		err := h.Pipeline.DeleteMessage(ctx, usecase.DeleteMessageInput{RoomID: roomID, MessageID: messageID, UserID: caller.ID})
		if err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
