package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

func TestExponentialBackoff(t *testing.T) {
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, maxBackoff, maxBackoff}
	for attempt, w := range want {
		if got := exponentialBackoff(attempt); got != w {
			t.Errorf("exponentialBackoff(%d) = %v, want %v", attempt, got, w)
		}
	}
	if got := exponentialBackoff(-3); got != time.Second {
		t.Errorf("exponentialBackoff(-3) = %v, want 1s", got)
	}
	if got := exponentialBackoff(64); got != maxBackoff {
		t.Errorf("exponentialBackoff(64) = %v, want %v", got, maxBackoff)
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{amqp091.ErrClosed, true},
		{fmt.Errorf("publish: %w", amqp091.ErrClosed), true},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("write: broken pipe"), true},
		{errors.New("use of closed network connection"), true},
		{errors.New("exchange not found"), false},
	}
	for _, tt := range tests {
		if got := isConnectionError(tt.err); got != tt.want {
			t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

// TestCircuitBreakerLifecycle walks the breaker through
// closed -> open -> half-open -> open -> closed.
func TestCircuitBreakerLifecycle(t *testing.T) {
	c := &Client{}

	if c.isCircuitOpen() {
		t.Fatal("a new client must start closed")
	}

	for i := 0; i < maxFailures-1; i++ {
		c.recordFailure()
	}
	if c.isCircuitOpen() {
		t.Fatalf("circuit opened after %d failures, threshold is %d", maxFailures-1, maxFailures)
	}
	c.recordFailure()
	if !c.isCircuitOpen() {
		t.Fatal("circuit should open at the failure threshold")
	}

	c.mu.Lock()
	c.lastFailure = time.Now().Add(-openTimeout - time.Second)
	c.mu.Unlock()
	if c.isCircuitOpen() {
		t.Fatal("circuit should let a trial request through after openTimeout")
	}
	if c.state != StateHalfOpen {
		t.Fatalf("state = %d, want half-open", c.state)
	}

	c.recordFailure()
	if c.state != StateOpen || !c.isCircuitOpen() {
		t.Fatal("a failed trial request should reopen the circuit")
	}

	c.recordSuccess()
	if c.state != StateClosed || c.failureCount != 0 {
		t.Errorf("after success state = %d, failures = %d; want closed, 0", c.state, c.failureCount)
	}
}

func TestPublishShortCircuits(t *testing.T) {
	t.Run("open circuit", func(t *testing.T) {
		c := &Client{state: StateOpen, lastFailure: time.Now()}
		err := c.Publish(context.Background(), EventCreated, "evt-1")
		if !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("Publish() error = %v, want ErrCircuitOpen", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := (&Client{}).Publish(ctx, PaymentPaid, "pay-1"); !errors.Is(err, context.Canceled) {
			t.Errorf("Publish() error = %v, want context.Canceled", err)
		}
	})

	t.Run("no channel", func(t *testing.T) {
		c := &Client{}
		if err := c.Consume(context.Background(), nil); !errors.Is(err, amqp091.ErrClosed) {
			t.Errorf("Consume() error = %v, want ErrClosed", err)
		}
	})
}

func TestFinanceEventMessage(t *testing.T) {
	before := time.Now()
	msg := NewFinanceEventMessage(PaymentCreated, "pay-9")
	if msg.Type != PaymentCreated || msg.EntityID != "pay-9" || msg.Timestamp.Before(before) {
		t.Fatalf("NewFinanceEventMessage() = %+v", msg)
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	parsed, err := FinanceEventMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FinanceEventMessageFromJSON() error = %v", err)
	}
	if parsed.Type != msg.Type || parsed.EntityID != msg.EntityID || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("parsed = %+v, want %+v", parsed, msg)
	}
}

func TestFinanceEventMessageFromJSON_Rejects(t *testing.T) {
	for name, data := range map[string]string{
		"truncated":    `{"type":`,
		"numeric id":   `{"type": "event.created", "entity_id": 12}`,
		"unknown type": `{"type": "expense.synced", "entity_id": "x"}`,
		"missing type": `{"entity_id": "x"}`,
	} {
		if _, err := FinanceEventMessageFromJSON([]byte(data)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.Publish(context.Background(), DJDeleted, "dj-1"); err != nil {
		t.Errorf("NopPublisher.Publish() = %v", err)
	}
}
