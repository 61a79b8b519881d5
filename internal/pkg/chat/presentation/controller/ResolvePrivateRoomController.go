package controller

import (
	"context"
	"net/http"

	"go-roomchat/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
)

// ResolvePrivateRoomController returns the caller's private room with a friend.
type ResolvePrivateRoomController struct {
	UC *usecase.ResolvePrivateRoomUseCase
}

func NewResolvePrivateRoomController(uc *usecase.ResolvePrivateRoomUseCase) *ResolvePrivateRoomController {
	return &ResolvePrivateRoomController{UC: uc}
}

func (h *ResolvePrivateRoomController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		friendID, ok := idParam(c, "friendId")
		if !ok {
			return
		}
		caller, ok := principal(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		roomID, err := h.UC.Execute(ctx, usecase.ResolvePrivateRoomInput{UserID: caller.ID, FriendID: friendID})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"room_id": roomID})
	}
}
