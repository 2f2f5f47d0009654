package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/event"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/goroutine"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/logger"
)

const saveTimeout = 5 * time.Second

// Hub управляет WebSocket клиентами и доставляет события конкретным пользователям.
// Каждое событие дополнительно сохраняется как уведомление.
type Hub struct {
	clients       map[uuid.UUID]map[*Client]struct{}
	register      chan *Client
	unregister    chan *Client
	broadcast     chan message
	done          chan struct{}
	notifications repository.NotificationRepository
	now           func() time.Time
}

type message struct {
	userID  uuid.UUID
	payload []byte
}

// envelope — формат сообщения для клиента: type содержит имя события, data полезную нагрузку.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func NewHub(notifications repository.NotificationRepository) *Hub {
	return &Hub{
		clients:       make(map[uuid.UUID]map[*Client]struct{}),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		broadcast:     make(chan message, 256),
		done:          make(chan struct{}),
		notifications: notifications,
		now:           time.Now,
	}
}

// Run обслуживает регистрацию клиентов и рассылку до отмены ctx.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.userID, msg.payload)
		}
	}
}

// Register возвращает false, если хаб уже остановлен.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish сохраняет уведомление и ставит сообщение в очередь рассылки.
// Ошибки доставки только логируются.
func (h *Hub) Publish(userID uuid.UUID, name string, data any) {
	raw, err := json.Marshal(envelope{Type: name, Data: data})
	if err != nil {
		logger.Log.WithError(err).WithField("event", name).Error("ws: не удалось сериализовать сообщение")
		return
	}

	h.save(userID, name, data)

	select {
	case h.broadcast <- message{userID: userID, payload: raw}:
	default:
		logger.Log.WithFields(logrus.Fields{"user_id": userID, "event": name}).Warn("ws: очередь рассылки переполнена, событие не доставлено")
	}
}

func (h *Hub) save(userID uuid.UUID, name string, data any) {
	if h.notifications == nil {
		return
	}

	payload, err := json.Marshal(data)
	if err != nil {
		logger.Log.WithError(err).Error("ws: не удалось сериализовать уведомление")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	n := &entity.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Event:     name,
		Data:      payload,
		CreatedAt: h.now(),
	}
	if err := h.notifications.Create(ctx, n); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Warn("ws: не удалось сохранить уведомление")
	}
}

func (h *Hub) addClient(client *Client) {
	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	clients, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}
}

func (h *Hub) send(userID uuid.UUID, payload []byte) {
	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			// Медленный клиент отключается.
			h.removeClient(client)
			goroutine.SafeGo(client.closeConn)
		}
	}
}

func (h *Hub) closeAll() {
	for _, clients := range h.clients {
		for client := range clients {
			h.removeClient(client)
		}
	}
}

var _ event.Publisher = (*Hub)(nil)
