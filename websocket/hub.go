package websocket

import (
	"context"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
	"socialgraph/models"
	"socialgraph/utils"
)

const (
	EventNotice   = "notice"
	EventTeleport = "teleport"
	EventPong     = "pong"
	EventError    = "error"
)

// Listener receives presence changes and client actions. social.Service implements it.
type Listener interface {
	UserConnected(ctx context.Context, user models.Identity)
	UserDisconnected(ctx context.Context, user models.Identity)
	SendPrivateMessage(ctx context.Context, sender models.Identity, friendName, content string) (bool, error)
}

type Hub struct {
	userConns  map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	tokens   *utils.TokenIssuer
	listener Listener
	ctx      context.Context
	hooks    conc.WaitGroup
	logger   *zap.Logger
}

type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type ClientMessage struct {
	Action  string `json:"action"`
	To      string `json:"to,omitempty"`
	Content string `json:"content,omitempty"`
}

type NoticeData struct {
	Message string `json:"message"`
}

type TeleportData struct {
	TargetID uuid.UUID `json:"target_id"`
}

func NewHub(tokens *utils.TokenIssuer, logger *zap.Logger) *Hub {
	return &Hub{
		userConns:  make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		tokens:     tokens,
		ctx:        context.Background(),
		logger:     logger.Named("websocket_hub"),
	}
}

// SetListener must be called before Run.
func (h *Hub) SetListener(l Listener) {
	h.listener = l
}

// Run serves registrations until ctx is done, then closes every connection and waits for
// pending presence hooks.
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.ctx = ctx
	h.mu.Unlock()
	h.logger.Info("Websocket hub started")

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.hooks.Wait()
			h.logger.Info("Websocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			first := len(h.userConns[client.UserID]) == 0
			if first {
				h.userConns[client.UserID] = make(map[*Client]bool)
			}
			h.userConns[client.UserID][client] = true
			h.mu.Unlock()

			if first {
				h.fire(func(l Listener) { l.UserConnected(ctx, client.Identity()) })
			}

		case client := <-h.unregister:
			h.mu.Lock()
			conns, ok := h.userConns[client.UserID]
			if ok && conns[client] {
				delete(conns, client)
				close(client.Send)
			}
			last := ok && len(conns) == 0
			if last {
				delete(h.userConns, client.UserID)
			}
			h.mu.Unlock()

			if last {
				h.fire(func(l Listener) { l.UserDisconnected(ctx, client.Identity()) })
			}
		}
	}
}

func (h *Hub) context() context.Context {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ctx
}

func (h *Hub) fire(hook func(Listener)) {
	if h.listener == nil {
		return
	}
	h.hooks.Go(func() { hook(h.listener) })
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, conns := range h.userConns {
		for client := range conns {
			close(client.Send)
		}
		delete(h.userConns, userID)
	}
}

// SendToUser queues msg on every connection of the user. Slow connections drop it.
func (h *Hub) SendToUser(userID uuid.UUID, msg *Message) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode message", zap.String("event", msg.Event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.userConns[userID] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Client send buffer full, dropping message",
				zap.String("user", userID.String()),
				zap.String("client", client.ID))
		}
	}
}

// sendToClient queues data on one connection. Send is closed only under the write lock after
// the client leaves userConns, so a client that is no longer registered is skipped.
func (h *Hub) sendToClient(client *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.userConns[client.UserID][client] {
		return false
	}
	select {
	case client.Send <- data:
		return true
	default:
		return false
	}
}

// Send delivers a user-facing notice.
func (h *Hub) Send(userID uuid.UUID, message string) {
	h.SendToUser(userID, &Message{Event: EventNotice, Data: NoticeData{Message: message}})
}

func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userConns[userID]) > 0
}

// Teleport asks the user's clients to move to the target.
func (h *Hub) Teleport(_ context.Context, userID, targetID uuid.UUID) error {
	if !h.IsOnline(userID) {
		return ErrNotConnected
	}
	h.SendToUser(userID, &Message{Event: EventTeleport, Data: TeleportData{TargetID: targetID}})
	return nil
}

// OnlineCount returns the number of users with at least one connection.
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userConns)
}
