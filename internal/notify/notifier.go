// Package notify holds the toast messages shown to the signed-in user.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Toast struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Title     string    `json:"title"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notifier keeps the most recent toasts until the UI drains them. Every toast
// is also logged.
type Notifier struct {
	mu     sync.Mutex
	feed   []Toast
	size   int
	logger *zap.Logger
	now    func() time.Time
}

func New(size int, logger *zap.Logger) *Notifier {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{size: size, logger: logger.Named("toast"), now: time.Now}
}

func (n *Notifier) Success(title, msg string) Toast { return n.push(LevelSuccess, title, msg) }
func (n *Notifier) Info(title, msg string) Toast    { return n.push(LevelInfo, title, msg) }
func (n *Notifier) Warning(title, msg string) Toast { return n.push(LevelWarning, title, msg) }
func (n *Notifier) Error(title, msg string) Toast   { return n.push(LevelError, title, msg) }

func (n *Notifier) push(level Level, title, msg string) Toast {
	t := Toast{ID: uuid.NewString(), Level: level, Title: title, Message: msg, CreatedAt: n.now()}

	n.mu.Lock()
	n.feed = append(n.feed, t)
	if over := len(n.feed) - n.size; over > 0 {
		n.feed = append([]Toast(nil), n.feed[over:]...)
	}
	n.mu.Unlock()

	fields := []zap.Field{zap.String("title", title), zap.String("message", msg)}
	switch level {
	case LevelError:
		n.logger.Warn("toast", fields...)
	case LevelWarning:
		n.logger.Info("toast", fields...)
	default:
		n.logger.Debug("toast", fields...)
	}
	return t
}

// Drain returns the queued toasts, oldest first, and empties the feed.
func (n *Notifier) Drain() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.feed
	n.feed = nil
	if out == nil {
		out = []Toast{}
	}
	return out
}

func (n *Notifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.feed)
}

// Clear drops queued toasts without returning them, as on logout.
func (n *Notifier) Clear() {
	n.mu.Lock()
	n.feed = nil
	n.mu.Unlock()
}
