package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"zchat/auth"
	"zchat/contract"
	"zchat/realtime"
	"zchat/services"
)

// API bundles the services behind the REST and websocket surface.
type API struct {
	log      *slog.Logger
	auth     services.IAuthService
	users    services.IUserService
	friends  services.IFriendService
	chats    services.IChatService
	messages services.IMessageService
	tokens   *auth.TokenManager

	registry  contract.IRegistry
	router    contract.IRouter
	directory realtime.FriendDirectory
	queueSize int

	upgrader websocket.Upgrader
}

func NewAPI(log *slog.Logger, authSvc services.IAuthService, users services.IUserService,
	friends services.IFriendService, chats services.IChatService, messages services.IMessageService,
	tokens *auth.TokenManager, registry contract.IRegistry, router contract.IRouter,
	queueSize int) *API {
	return &API{
		log:       log,
		auth:      authSvc,
		users:     users,
		friends:   friends,
		chats:     chats,
		messages:  messages,
		tokens:    tokens,
		registry:  registry,
		router:    router,
		directory: friends,
		queueSize: queueSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Router mounts every endpoint. uploadDir is served read-only under
// uploadBaseURL so stored avatar URLs resolve.
func (a *API) Router(uploadDir, uploadBaseURL string) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/auth/register", a.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", a.handleLogin).Methods(http.MethodPost)

	authed := r.PathPrefix("/api").Subrouter()
	authed.Use(authMiddleware(a.tokens))

	authed.HandleFunc("/auth/verify", a.handleVerify).Methods(http.MethodPost)
	authed.HandleFunc("/auth/logout", a.handleLogout).Methods(http.MethodPost)

	authed.HandleFunc("/users/me", a.handleProfile).Methods(http.MethodGet)
	authed.HandleFunc("/users/me", a.handleUpdateProfile).Methods(http.MethodPut)
	authed.HandleFunc("/users/me/avatar", a.handleUploadAvatar).Methods(http.MethodPost)
	authed.HandleFunc("/users/me/cover", a.handleUploadCover).Methods(http.MethodPost)
	authed.HandleFunc("/users/me/friends", a.handleFriends).Methods(http.MethodGet)
	authed.HandleFunc("/users/search", a.handleSearchUsers).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}/friend-request", a.handleFriendRequest).Methods(http.MethodPost)
	authed.HandleFunc("/users/{id}/friend-response", a.handleFriendResponse).Methods(http.MethodPost)
	authed.HandleFunc("/users/{id}/block", a.handleBlock).Methods(http.MethodPost)

	authed.HandleFunc("/chats/private", a.handleCreatePrivateChat).Methods(http.MethodPost)
	authed.HandleFunc("/chats/group", a.handleCreateGroupChat).Methods(http.MethodPost)
	authed.HandleFunc("/chats", a.handleListChats).Methods(http.MethodGet)
	authed.HandleFunc("/chats/search", a.handleSearchChats).Methods(http.MethodGet)
	authed.HandleFunc("/chats/{id}", a.handleGetChat).Methods(http.MethodGet)
	authed.HandleFunc("/chats/{id}", a.handleDeactivateChat).Methods(http.MethodDelete)
	authed.HandleFunc("/chats/{id}/name", a.handleUpdateChatName).Methods(http.MethodPut)
	authed.HandleFunc("/chats/{id}/avatar", a.handleUpdateChatAvatar).Methods(http.MethodPut)
	authed.HandleFunc("/chats/{id}/settings", a.handleUpdateChatSettings).Methods(http.MethodPut)
	authed.HandleFunc("/chats/{id}/members", a.handleAddMember).Methods(http.MethodPost)
	authed.HandleFunc("/chats/{id}/members/{user}", a.handleRemoveMember).Methods(http.MethodDelete)
	authed.HandleFunc("/chats/{id}/admins", a.handleAddAdmin).Methods(http.MethodPost)
	authed.HandleFunc("/chats/{id}/admins/{user}", a.handleRemoveAdmin).Methods(http.MethodDelete)
	authed.HandleFunc("/chats/{id}/read", a.handleResetUnread).Methods(http.MethodPost)

	authed.HandleFunc("/chats/{id}/messages", a.handleSendMessage).Methods(http.MethodPost)
	authed.HandleFunc("/chats/{id}/messages", a.handleListMessages).Methods(http.MethodGet)
	authed.HandleFunc("/chats/{id}/messages/search", a.handleSearchMessages).Methods(http.MethodGet)
	authed.HandleFunc("/chats/{id}/messages/unread", a.handleUnreadMessages).Methods(http.MethodGet)
	authed.HandleFunc("/chats/{id}/messages/media", a.handleMessagesByType).Methods(http.MethodGet)

	authed.HandleFunc("/messages/{id}", a.handleGetMessage).Methods(http.MethodGet)
	authed.HandleFunc("/messages/{id}", a.handleEditMessage).Methods(http.MethodPut)
	authed.HandleFunc("/messages/{id}", a.handleDeleteMessage).Methods(http.MethodDelete)
	authed.HandleFunc("/messages/{id}/reactions", a.handleReact).Methods(http.MethodPost)
	authed.HandleFunc("/messages/{id}/reactions/{label}", a.handleUnreact).Methods(http.MethodDelete)
	authed.HandleFunc("/messages/{id}/read", a.handleMarkRead).Methods(http.MethodPost)
	authed.HandleFunc("/messages/{id}/forward", a.handleForward).Methods(http.MethodPost)

	r.HandleFunc("/ws", a.handleWebsocket).Methods(http.MethodGet)

	r.PathPrefix(uploadBaseURL + "/").
		Handler(http.StripPrefix(uploadBaseURL+"/", http.FileServer(http.Dir(uploadDir))))

	return r
}

// handleWebsocket upgrades the connection and runs a session until the
// transport drops. Identity is announced in-band with user_connected, so the
// upgrade itself is unauthenticated.
func (a *API) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Warn(fmt.Sprintf("Websocket upgrade failed: %v", err))
		return
	}
	session := realtime.NewSession(a.log, conn, a.registry, a.router, a.directory, a.queueSize)
	session.Run(r.Context())
}
