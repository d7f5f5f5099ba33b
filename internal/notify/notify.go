// Package notify delivers discipline alerts to the terminal.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// AlertType classifies a discipline alert.
type AlertType string

const (
	AlertViolation AlertType = "violation"
	AlertTrade     AlertType = "trade"
	AlertSession   AlertType = "session"
	AlertInfo      AlertType = "info"
)

// Alert is one notification message. Priority above zero rings the terminal
// bell.
type Alert struct {
	Type      AlertType
	Title     string
	Message   string
	Priority  int
	Timestamp time.Time
}

// Handler consumes alerts as they are processed.
type Handler func(Alert)

// TerminalNotifier queues alerts and dispatches them to registered handlers.
// A full buffer drops the oldest alert rather than blocking the producer.
type TerminalNotifier struct {
	alerts chan Alert

	mu          sync.RWMutex
	handlers    []Handler
	enabled     bool
	bellEnabled bool
	bell        func()
}

// NewTerminalNotifier creates a notifier with the given buffer size.
func NewTerminalNotifier(bufferSize int) *TerminalNotifier {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &TerminalNotifier{
		alerts:      make(chan Alert, bufferSize),
		enabled:     true,
		bellEnabled: true,
		bell:        func() { fmt.Print("\a") },
	}
}

// SetEnabled enables or disables the notifier.
func (n *TerminalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetBellEnabled enables or disables the terminal bell.
func (n *TerminalNotifier) SetBellEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bellEnabled = enabled
}

// AddHandler registers an alert handler.
func (n *TerminalNotifier) AddHandler(h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers = append(n.handlers, h)
}

// Notify enqueues an alert.
func (n *TerminalNotifier) Notify(a Alert) {
	n.mu.RLock()
	enabled := n.enabled
	n.mu.RUnlock()
	if !enabled {
		return
	}

	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}

	select {
	case n.alerts <- a:
	default:
		select {
		case <-n.alerts:
		default:
		}
		n.alerts <- a
	}
}

// Start begins dispatching queued alerts until ctx is cancelled.
func (n *TerminalNotifier) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case a := <-n.alerts:
				n.dispatch(a)
			}
		}
	}()
}

func (n *TerminalNotifier) dispatch(a Alert) {
	n.mu.RLock()
	handlers := n.handlers
	bellEnabled := n.bellEnabled
	bell := n.bell
	n.mu.RUnlock()

	if bellEnabled && a.Priority > 0 {
		bell()
	}
	for _, h := range handlers {
		h(a)
	}
}

// ViolationAlert builds an alert for a blocked trade attempt.
func ViolationAlert(messages []string) Alert {
	body := "Trading blocked"
	if len(messages) > 0 {
		body = messages[0]
		if len(messages) > 1 {
			body = fmt.Sprintf("%s (+%d more)", body, len(messages)-1)
		}
	}
	return Alert{
		Type:     AlertViolation,
		Title:    "Discipline violation",
		Message:  body,
		Priority: 2,
	}
}

// TradeClosedAlert builds an alert for a realized trade.
func TradeClosedAlert(symbol string, pnl float64) Alert {
	title := "Trade closed"
	priority := 0
	if pnl < 0 {
		title = "Loss realized"
		priority = 1
	}
	return Alert{
		Type:     AlertTrade,
		Title:    title,
		Message:  fmt.Sprintf("%s closed for %+.2f", symbol, pnl),
		Priority: priority,
	}
}

// SessionAlert builds an alert for a session state change.
func SessionAlert(message string) Alert {
	return Alert{
		Type:    AlertSession,
		Title:   "Session",
		Message: message,
	}
}
