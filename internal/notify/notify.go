// Package notify delivers assignment notifications. Delivery is
// fire-and-forget: a failed or slow notification never fails the
// assignment that triggered it.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Message is one notification to an employee about their route assignment.
type Message struct {
	TenantID     string
	RouteCode    string
	EmployeeID   int64
	EmployeeCode string
	Phone        string
	Body         string
}

// Dispatcher sends assignment notifications.
type Dispatcher interface {
	// Dispatch sends messages asynchronously and returns immediately.
	Dispatch(msgs []Message)
}

// AsyncDispatcher sends each batch on its own goroutine through a Sender,
// detached from the request context so an in-flight assignment response
// never waits on delivery.
type AsyncDispatcher struct {
	sender  Sender
	logger  *slog.Logger
	timeout time.Duration
}

// Sender is the transport behind the dispatcher (SMS gateway, push service).
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewAsyncDispatcher wraps sender with async, logged delivery.
func NewAsyncDispatcher(sender Sender, logger *slog.Logger) *AsyncDispatcher {
	return &AsyncDispatcher{sender: sender, logger: logger, timeout: 30 * time.Second}
}

// Dispatch sends msgs in the background. Failures are logged and dropped.
func (d *AsyncDispatcher) Dispatch(msgs []Message) {
	if len(msgs) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		for _, msg := range msgs {
			if err := d.sender.Send(ctx, msg); err != nil {
				d.logger.Error("notification delivery failed",
					"tenant_id", msg.TenantID,
					"route_code", msg.RouteCode,
					"employee_id", msg.EmployeeID,
					"error", err)
				continue
			}
			d.logger.Info("notification sent",
				"tenant_id", msg.TenantID,
				"route_code", msg.RouteCode,
				"employee_id", msg.EmployeeID)
		}
	}()
}

// LogSender is the default transport: it records the notification in the
// service log. Swapped for a real gateway in deployments that have one.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.Logger.Info("notify", "employee_code", msg.EmployeeCode, "body", msg.Body)
	return nil
}
