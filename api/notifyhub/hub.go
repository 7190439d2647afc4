package notifyhub

import (
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/moyoez/video-splitter-go/tool"
	"github.com/moyoez/video-splitter-go/types"
)

const (
	DefaultPushRate     = 5 // updates per second per job
	DefaultWriteTimeout = 5 * time.Second
)

// Subscriber is one WebSocket connection listening on a job.
type Subscriber struct {
	conn    *websocket.Conn
	timeout time.Duration
	mu      sync.Mutex // gorilla allows one concurrent writer
}

// write fails instead of blocking when the peer stops reading.
func (s *Subscriber) write(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub holds WebSocket connections grouped by job key and pushes progress of that job to them.
type Hub struct {
	mu       sync.RWMutex
	subs     map[string]map[*Subscriber]struct{}
	limiters map[string]*rate.Limiter
	limit    rate.Limit

	// WriteTimeout bounds a single push to one subscriber. Subscribers that miss it are dropped.
	WriteTimeout time.Duration
}

// New creates a new progress hub pushing at most perSecond running updates per job.
func New(perSecond float64) *Hub {
	if perSecond <= 0 {
		perSecond = DefaultPushRate
	}
	return &Hub{
		subs:     make(map[string]map[*Subscriber]struct{}),
		limiters:     make(map[string]*rate.Limiter),
		limit:        rate.Limit(perSecond),
		WriteTimeout: DefaultWriteTimeout,
	}
}

// Register adds a WebSocket connection listening on key.
func (h *Hub) Register(key string, conn *websocket.Conn) *Subscriber {
	timeout := h.WriteTimeout
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	sub := &Subscriber{conn: conn, timeout: timeout}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[*Subscriber]struct{})
	}
	h.subs[key][sub] = struct{}{}
	return sub
}

// Unregister removes a WebSocket connection from key.
func (h *Hub) Unregister(key string, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[key], sub)
	if len(h.subs[key]) == 0 {
		delete(h.subs, key)
	}
}

// Subscribers returns the number of connections listening on key.
func (h *Hub) Subscribers(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[key])
}

// Publish is the progress tracker observer. Running updates are throttled per key,
// completion and failure always go out.
func (h *Hub) Publish(p types.JobProgress) {
	if !h.allow(p.Key, p.Status.IsFinished()) {
		return
	}
	h.Broadcast(NotificationFor(p))
}

// Broadcast sends the notification as JSON to every connection listening on its key.
func (h *Hub) Broadcast(notification *types.Notification) {
	if notification == nil {
		return
	}

	h.mu.RLock()
	subs := make([]*Subscriber, 0, len(h.subs[notification.Key]))
	for s := range h.subs[notification.Key] {
		subs = append(subs, s)
	}
	h.mu.RUnlock()
	if len(subs) == 0 {
		return
	}

	payload, err := sonic.Marshal(notification)
	if err != nil {
		tool.DefaultLogger.Errorf("[NotifyHub] Failed to marshal notification: %v", err)
		return
	}
	for _, sub := range subs {
		if err := sub.write(payload); err != nil {
			tool.DefaultLogger.Debugf("[NotifyHub] Dropping %s subscriber: %v", notification.Key, err)
			h.Unregister(notification.Key, sub)
			_ = sub.conn.Close() // ends the handler's read loop
		}
	}
}

func (h *Hub) allow(key string, finished bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if finished {
		delete(h.limiters, key)
		return true
	}
	limiter, ok := h.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(h.limit, 1)
		h.limiters[key] = limiter
	}
	return limiter.Allow()
}

// NotificationFor converts a progress snapshot into its wire message.
func NotificationFor(p types.JobProgress) *types.Notification {
	notifyType := types.NotifyTypeProgress
	switch p.Status {
	case types.JobStatusCompleted:
		notifyType = types.NotifyTypeCompleted
	case types.JobStatusFailed:
		notifyType = types.NotifyTypeFailed
	}
	return &types.Notification{
		Type:     notifyType,
		Key:      p.Key,
		Progress: p.Rounded(),
		Status:   p.Status,
	}
}
