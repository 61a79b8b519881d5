package controller

import (
	"context"
	"net/http"

	"go-roomchat/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
)

// AddMemberController lets a group owner enroll another user.
type AddMemberController struct {
	UC *usecase.AddMemberUseCase
}

func NewAddMemberController(uc *usecase.AddMemberUseCase) *AddMemberController {
	return &AddMemberController{UC: uc}
}

type addMemberRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

func (h *AddMemberController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := idParam(c, "roomId")
		if !ok {
			return
		}
		caller, ok := principal(c)
		if !ok {
			return
		}
		var req addMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		added, err := h.UC.Execute(ctx, usecase.AddMemberInput{RoomID: roomID, ActorID: caller.ID, UserID: req.UserID})
		if err != nil {
			writeError(c, err)
			return
		}

		status := http.StatusOK
		if added {
			status = http.StatusCreated
		}
		c.JSON(status, gin.H{"room_id": roomID, "user_id": req.UserID, "added": added})
	}
}
