package controller

import (
	"context"
	"net/http"

	"go-roomchat/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
)

// CreateRoomController handles group room creation
type CreateRoomController struct {
	UC *usecase.CreateRoomUseCase
}

func NewCreateRoomController(uc *usecase.CreateRoomUseCase) *CreateRoomController {
	return &CreateRoomController{UC: uc}
}

type createRoomRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *CreateRoomController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := principal(c)
		if !ok {
			return
		}
		var req createRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		room, err := h.UC.Execute(ctx, usecase.CreateRoomInput{OwnerID: caller.ID, Name: req.Name})
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":         room.ID,
			"name":       room.Name,
			"kind":       room.Kind,
			"owner_id":   room.OwnerID,
			"created_at": room.CreatedAt,
		})
	}
}
