package http

import (
	qport "go-roomchat/internal/infrastructure/queue/port"
	"go-roomchat/internal/infrastructure/realtime"
	"go-roomchat/internal/pkg/auth"
	"go-roomchat/internal/pkg/chat/application/session"
	"go-roomchat/internal/pkg/chat/application/usecase"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	"go-roomchat/internal/pkg/chat/presentation/controller"
	userrepo "go-roomchat/internal/repository/port"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps carries what the chat endpoints are built from.
type Deps struct {
	Rooms    repository.RoomRepository
	Messages repository.MessageRepository
	Push     repository.PushRepository
	Users    userrepo.UserRepository
	Codec    usecase.ContentCodec
	Queue    qport.Client
	Auth     auth.Verifier
	Pipeline *session.Pipeline
	Runner   *session.Runner
	Socket   realtime.ConnectionOptions
	Logger   *zap.Logger
}

// RegisterRoutes registers chat-related HTTP endpoints under the given router group
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, d Deps) {
	socketCtl := controller.NewChatSocketController(d.Runner, d.Socket, d.Logger)
	getMsgCtl := controller.NewGetMessageController(usecase.NewGetMessageUseCase(d.Rooms, d.Messages, d.Codec))
	sendMsgCtl := controller.NewSendMessageController(d.Queue, usecase.NewJoinRoomUseCase(d.Rooms))
	deleteMsgCtl := controller.NewDeleteMessageController(d.Pipeline)
	createRoomCtl := controller.NewCreateRoomController(usecase.NewCreateRoomUseCase(d.Rooms))
	addMemberCtl := controller.NewAddMemberController(usecase.NewAddMemberUseCase(d.Rooms, d.Users))
	listMembersCtl := controller.NewListMembersController(usecase.NewListMembersUseCase(d.Rooms))
	privateCtl := controller.NewResolvePrivateRoomController(usecase.NewResolvePrivateRoomUseCase(d.Rooms, d.Users))
	subscribeCtl := controller.NewSubscribePushController(usecase.NewSubscribePushUseCase(d.Push))

	// GET /api/v1/ws/rooms/:roomId -> websocket session; authorizes itself
	g.GET("/ws/rooms/:roomId", socketCtl.Handle())

	authed := g.Group("", auth.RequireBearer(d.Auth))

	// POST /api/v1/rooms -> create a group room
	authed.POST("/rooms", createRoomCtl.Handle())

	// POST /api/v1/rooms/private/:friendId -> get or create a private room
	authed.POST("/rooms/private/:friendId", privateCtl.Handle())

	// POST /api/v1/rooms/:roomId/members -> owner adds a member
	authed.POST("/rooms/:roomId/members", addMemberCtl.Handle())

	// GET /api/v1/rooms/:roomId/members -> member ids
	authed.GET("/rooms/:roomId/members", listMembersCtl.Handle())

	// GET /api/v1/rooms/:roomId/messages -> paged history
	authed.GET("/rooms/:roomId/messages", getMsgCtl.Handle())

	// POST /api/v1/rooms/:roomId/messages -> queue a message
	authed.POST("/rooms/:roomId/messages", sendMsgCtl.Handle())

	// DELETE /api/v1/rooms/:roomId/messages/:messageId -> tombstone a message
	authed.DELETE("/rooms/:roomId/messages/:messageId", deleteMsgCtl.Handle())

	// POST /api/v1/notifications/subscribe -> register a push token
	authed.POST("/notifications/subscribe", subscribeCtl.Handle())
}
