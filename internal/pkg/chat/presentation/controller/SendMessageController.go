package controller

import (
	"context"
	"net/http"

	queueport "go-roomchat/internal/infrastructure/queue/port"
	chat "go-roomchat/internal/pkg/chat/application/domain"
	"go-roomchat/internal/pkg/chat/application/task"
	"go-roomchat/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
)

// SendMessageController accepts a message over HTTP and hands it to the worker
// pipeline; delivery to the room happens asynchronously.
type SendMessageController struct {
	Q    queueport.Client
	Join *usecase.JoinRoomUseCase
}

func NewSendMessageController(client queueport.Client, join *usecase.JoinRoomUseCase) *SendMessageController {
	return &SendMessageController{Q: client, Join: join}
}

// sendMessageRequest is the DTO for the HTTP request body
type sendMessageRequest struct {
	Content   string  `json:"content"`
	MediaURL  *string `json:"media_url"`
	MediaType *string `json:"media_type"`
	ParentID  *int64  `json:"parent_id"`
}

// Handle returns a gin handler that enqueues a background task to send a message
func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := idParam(c, "roomId")
		if !ok {
			return
		}
		caller, ok := principal(c)
		if !ok {
			return
		}

		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if _, err := chat.NewMessage(chat.Message{Content: req.Content, MediaURL: req.MediaURL, MediaType: req.MediaType}); err != nil {
			writeError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if _, err := h.Join.Execute(ctx, usecase.JoinRoomInput{RoomID: roomID, UserID: caller.ID}); err != nil {
			writeError(c, err)
			return
		}

		id, err := task.EnqueueSendMessage(ctx, h.Q, task.SendMessageTaskPayload{
			RoomID:     roomID,
			SenderID:   caller.ID,
			SenderName: caller.DisplayName,
			Content:    req.Content,
			MediaURL:   req.MediaURL,
			MediaType:  req.MediaType,
			ParentID:   req.ParentID,
		})
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to enqueue message"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":    "queued",
			"task_id":   id,
			"room_id":   roomID,
			"sender_id": caller.ID,
		})
	}
}
