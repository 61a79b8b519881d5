package controller

import (
	"context"
	"net/http"

	"go-roomchat/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
)

// SubscribePushController registers a device token for offline notifications.
type SubscribePushController struct {
	UC *usecase.SubscribePushUseCase
}

func NewSubscribePushController(uc *usecase.SubscribePushUseCase) *SubscribePushController {
	return &SubscribePushController{UC: uc}
}

type subscribePushRequest struct {
	FCMToken string `json:"fcm_token"`
}

func (h *SubscribePushController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := principal(c)
		if !ok {
			return
		}
		var req subscribePushRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		created, err := h.UC.Execute(ctx, usecase.SubscribePushInput{UserID: caller.ID, Token: req.FCMToken})
		if err != nil {
			writeError(c, err)
			return
		}
		if !created {
			c.JSON(http.StatusOK, gin.H{"message": "Subscription already exists"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Subscription added"})
	}
}
