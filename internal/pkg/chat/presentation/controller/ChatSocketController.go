package controller

import (
	"errors"
	"net/http"
	"strconv"

	"go-roomchat/internal/infrastructure/realtime"
	"go-roomchat/internal/pkg/auth"
	"go-roomchat/internal/pkg/chat/application/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ChatSocketController handles the websocket endpoint for realtime chat traffic.
// Authorization happens after the upgrade so failures reach the client as close frames.
type ChatSocketController struct {
	runner   *session.Runner
	upgrader websocket.Upgrader
	opts     realtime.ConnectionOptions
	logger   *zap.Logger
}

func NewChatSocketController(runner *session.Runner, opts realtime.ConnectionOptions, logger *zap.Logger) *ChatSocketController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatSocketController{
		runner: runner,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers connect cross-origin; the bearer token is the access check.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		opts:   opts,
		logger: logger,
	}
}

// Handle upgrades HTTP connections to websocket and runs a session until the connection ends.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, err := strconv.ParseInt(c.Param("roomId"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "roomId must be an integer"})
			return
		}
		credential := auth.Credential(c)

		ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just log and return.
			ctl.logger.Debug("websocket upgrade failed", zap.Error(err))
			return
		}

		conn := realtime.NewConnection(ws, ctl.opts)
		conn.Start()

		err = ctl.runner.Run(c.Request.Context(), conn, roomID, credential)
		var ce *session.CloseError
		if errors.As(err, &ce) {
			ctl.logger.Debug("websocket session ended",
				zap.String("connection_id", conn.ID()),
				zap.Int("code", ce.Code),
				zap.String("reason", ce.Reason),
			)
		}
	}
}
