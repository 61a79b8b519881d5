package controller

import (
	"context"
	"net/http"

	"go-roomchat/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
)

// ListMembersController returns the member ids of a room the caller belongs to.
type ListMembersController struct {
	UC *usecase.ListMembersUseCase
}

func NewListMembersController(uc *usecase.ListMembersUseCase) *ListMembersController {
	return &ListMembersController{UC: uc}
}

func (h *ListMembersController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := idParam(c, "roomId")
		if !ok {
			return
		}
		caller, ok := principal(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		ids, err := h.UC.Execute(ctx, usecase.ListMembersInput{RoomID: roomID, ViewerID: caller.ID})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"room_id": roomID, "members": ids})
	}
}
