package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"zchat/contract"
	"zchat/domain"
	"zchat/domain/event"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 54 * time.Second
	maxFrameSize = 64 * 1024
)

// Conn is the subset of *websocket.Conn the session drives. Narrowed so
// tests can run a session against an in-memory transport.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	SetReadLimit(limit int64)
	Close() error
}

// FriendDirectory is the slice of the directory store the session needs for
// its inbound handlers: recording friend-request transitions and resolving
// a user's friends for presence fan-out.
type FriendDirectory interface {
	SendRequest(ctx context.Context, from, to domain.UserID) error
	Respond(ctx context.Context, responder, requester domain.UserID, accepted bool) error
	FriendsOf(ctx context.Context, user domain.UserID) ([]domain.UserID, error)
}

type sessionState int

const (
	stateConnecting sessionState = iota
	stateOpen
	stateClosed
)

// Session owns one live client connection. Lifecycle: Connecting until the
// peer announces its identity with user_connected, Open while registered in
// the presence registry, Closed (terminal) once the transport drops. A
// reconnect is always a brand-new session with a fresh handle id.
type Session struct {
	id       string
	log      *slog.Logger
	conn     Conn
	registry contract.IRegistry
	router   contract.IRouter
	friends  FriendDirectory

	outbound chan []byte

	mu    sync.Mutex
	state sessionState
	user  domain.UserID
}

func NewSession(log *slog.Logger, conn Conn, registry contract.IRegistry,
	router contract.IRouter, friends FriendDirectory, queueSize int) *Session {
	conn.SetReadLimit(maxFrameSize)
	return &Session{
		id:       uuid.NewString(),
		log:      log,
		conn:     conn,
		registry: registry,
		router:   router,
		friends:  friends,
		outbound: make(chan []byte, queueSize),
	}
}

func (s *Session) ID() string { return s.id }

// Consume enqueues a routed event for this connection. It never blocks: a
// closed session or a full outbound queue reports an error and the event is
// dropped, which the router treats as a failed handle.
func (s *Session) Consume(_ context.Context, e event.DomainEvent) error {
	data, err := encodeEvent(e)
	if err != nil {
		return err
	}

	// The state check and the channel send share the mutex so a concurrent
	// disconnect cannot close the queue between them. The send itself never
	// blocks, keeping the hold time minimal.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return fmt.Errorf("session %s is closed", s.id)
	}
	select {
	case s.outbound <- data:
		return nil
	default:
		return fmt.Errorf("outbound queue full for session %s", s.id)
	}
}

// Run drives the connection until the transport closes. It owns both pumps;
// when Run returns the session is Closed and deregistered.
func (s *Session) Run(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writePump()
	}()

	s.readPump(ctx)
	s.OnDisconnect(ctx)
	_ = s.conn.Close()
	<-done
}

func (s *Session) readPump(ctx context.Context) {
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug(fmt.Sprintf("Session %s read error: %v", s.id, err))
			}
			return
		}
		s.dispatch(ctx, raw)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-s.outbound:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one inbound frame to its handler. Malformed frames are
// logged and skipped; a bad client must not kill the connection of a good
// one sharing the same account.
func (s *Session) dispatch(ctx context.Context, raw []byte) {
	frame, err := decodePayload[Frame](raw)
	if err != nil {
		s.log.Warn(fmt.Sprintf("Session %s sent a malformed frame: %v", s.id, err))
		return
	}

	switch frame.Event {
	case "user_connected":
		payload, err := decodePayload[userConnectedPayload](frame.Data)
		if err != nil || payload.UserID == "" {
			s.log.Warn(fmt.Sprintf("Session %s sent invalid user_connected: %v", s.id, err))
			return
		}
		s.OnUserConnected(ctx, payload.UserID)
	case "private_message":
		payload, err := decodePayload[privateMessagePayload](frame.Data)
		if err != nil {
			s.log.Warn(fmt.Sprintf("Session %s sent invalid private_message: %v", s.id, err))
			return
		}
		s.OnPrivateMessage(ctx, payload.To, payload.Message)
	case "friend_request":
		payload, err := decodePayload[friendRequestPayload](frame.Data)
		if err != nil {
			s.log.Warn(fmt.Sprintf("Session %s sent invalid friend_request: %v", s.id, err))
			return
		}
		s.OnFriendRequest(ctx, payload.From, payload.To)
	case "friend_request_response":
		payload, err := decodePayload[friendRequestResponsePayload](frame.Data)
		if err != nil {
			s.log.Warn(fmt.Sprintf("Session %s sent invalid friend_request_response: %v", s.id, err))
			return
		}
		s.OnFriendRequestResponse(ctx, payload.From, payload.To, payload.Accepted)
	default:
		s.log.Debug(fmt.Sprintf("Session %s sent unknown event %q", s.id, frame.Event))
	}
}

// OnUserConnected binds the peer's identity and registers this handle in the
// presence registry. Only the first user_connected on a session counts.
func (s *Session) OnUserConnected(ctx context.Context, user domain.UserID) {
	s.mu.Lock()
	if s.state != stateConnecting {
		s.mu.Unlock()
		return
	}
	s.state = stateOpen
	s.user = user
	s.mu.Unlock()

	wasOnline := s.registry.IsOnline(user)
	s.registry.Register(user, s)
	s.log.Info(fmt.Sprintf("User %s connected with handle %s", user, s.id))

	if !wasOnline {
		s.notifyPresence(ctx, user, true)
	}
}

// OnPrivateMessage is a pure routing pass-through: nothing is persisted,
// matching the in-memory-only contract for direct messages.
func (s *Session) OnPrivateMessage(ctx context.Context, to domain.UserID, message string) {
	if !s.isOpen() {
		return
	}
	result := s.router.Deliver(ctx, event.PrivateMessage{To: to, From: s.id, Message: message})
	if !result.Delivered {
		s.log.Debug(fmt.Sprintf("Private message for %s dropped, user offline", to))
	}
}

// OnFriendRequest records the pending request on both user documents, then
// notifies the target if reachable. The store write always happens first:
// an offline target still ends up with the pending request persisted.
func (s *Session) OnFriendRequest(ctx context.Context, from, to domain.UserID) {
	if !s.isOpen() {
		return
	}
	if err := s.friends.SendRequest(ctx, from, to); err != nil {
		s.log.Error(fmt.Sprintf("Failed to record friend request %s -> %s: %v", from, to, err))
		return
	}
	result := s.router.Deliver(ctx, event.FriendRequestCreated{From: from, To: to})
	if !result.Delivered {
		s.log.Debug(fmt.Sprintf("Friend request notification for %s dropped, user offline", to))
	}
}

// OnFriendRequestResponse applies the accept/decline transition and notifies
// the original requester of the outcome.
func (s *Session) OnFriendRequestResponse(ctx context.Context, requester, responder domain.UserID, accepted bool) {
	if !s.isOpen() {
		return
	}
	if err := s.friends.Respond(ctx, responder, requester, accepted); err != nil {
		s.log.Error(fmt.Sprintf("Failed to resolve friend request %s -> %s: %v", requester, responder, err))
		return
	}
	result := s.router.Deliver(ctx, event.FriendRequestResolved{From: responder, To: requester, Accepted: accepted})
	if !result.Delivered {
		s.log.Debug(fmt.Sprintf("Friend request response for %s dropped, user offline", requester))
	}
}

// OnDisconnect moves the session to Closed and deregisters its handle.
// Idempotent: the transport error path and an explicit shutdown may both
// land here.
func (s *Session) OnDisconnect(ctx context.Context) {
	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return
	}
	bound := s.state == stateOpen
	user := s.user
	s.state = stateClosed
	close(s.outbound)
	s.mu.Unlock()

	if !bound {
		return
	}
	s.registry.Deregister(user, s.id)
	s.log.Info(fmt.Sprintf("User %s disconnected handle %s", user, s.id))

	if !s.registry.IsOnline(user) {
		s.notifyPresence(ctx, user, false)
	}
}

// notifyPresence fans a presence transition out to the user's friends.
// Best-effort like every other delivery; a store failure only costs the
// notification.
func (s *Session) notifyPresence(ctx context.Context, user domain.UserID, online bool) {
	friends, err := s.friends.FriendsOf(ctx, user)
	if err != nil {
		s.log.Warn(fmt.Sprintf("Could not load friends of %s for presence fan-out: %v", user, err))
		return
	}
	now := time.Now().UTC()
	for _, friend := range friends {
		s.router.Deliver(ctx, event.PresenceChanged{To: friend, User: user, Online: online, At: now})
	}
}

func (s *Session) isOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateOpen
}
