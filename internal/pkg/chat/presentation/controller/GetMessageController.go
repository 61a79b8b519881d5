package controller

import (
	"context"
	"net/http"
	"strconv"

	"go-roomchat/internal/pkg/chat/application/session"
	"go-roomchat/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
)

// GetMessageController pages a room's history for one of its members.
type GetMessageController struct {
	UC *usecase.GetMessageUseCase
}

func NewGetMessageController(uc *usecase.GetMessageUseCase) *GetMessageController {
	return &GetMessageController{UC: uc}
}

func (h *GetMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := idParam(c, "roomId")
		if !ok {
			return
		}
		caller, ok := principal(c)
		if !ok {
			return
		}

		// Defaults
		limit := 20
		offset := 0

		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		if v := c.Query("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		msgs, err := h.UC.Execute(ctx, usecase.GetMessageInput{RoomID: roomID, UserID: caller.ID, Limit: limit, Offset: offset})
		if err != nil {
			writeError(c, err)
			return
		}

		out := make([]session.MessagePayload, 0, len(msgs))
		for _, m := range msgs {
			out = append(out, session.NewMessagePayload(m))
		}

		c.JSON(http.StatusOK, gin.H{
			"messages": out,
			"limit":    limit,
			"offset":   offset,
			"count":    len(out),
		})
	}
}
