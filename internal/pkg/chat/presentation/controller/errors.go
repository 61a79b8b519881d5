package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"go-roomchat/internal/pkg/auth"
	chat "go-roomchat/internal/pkg/chat/application/domain"
	"go-roomchat/internal/pkg/chat/application/usecase"
	userrepo "go-roomchat/internal/repository/port"

	"github.com/gin-gonic/gin"
)

const requestTimeout = 3 * time.Second

// statusFor maps use case errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrPersistence), errors.Is(err, usecase.ErrEncryption):
		return http.StatusInternalServerError
	case errors.Is(err, chat.ErrNotMember), errors.Is(err, chat.ErrNotOwner),
		errors.Is(err, chat.ErrNotSender), errors.Is(err, chat.ErrPrivateRoom):
		return http.StatusForbidden
	case errors.Is(err, chat.ErrRoomNotFound), errors.Is(err, chat.ErrMessageNotFound),
		errors.Is(err, userrepo.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrRoomNameTaken):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}

// idParam reads a positive integer path parameter, writing a 400 when it is not one.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

// principal returns the authenticated caller, writing a 401 when absent.
func principal(c *gin.Context) (chat.Principal, bool) {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return p, ok
}
