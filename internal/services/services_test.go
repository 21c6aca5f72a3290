package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"portalunk/internal/amqp"
	"portalunk/internal/blob"
	"portalunk/internal/cache"
	"portalunk/internal/core"
	"portalunk/internal/dashboard"
	"portalunk/internal/records"
	"portalunk/internal/store"
	"portalunk/internal/store/memory"
)

type published struct {
	Type amqp.MessageType
	ID   string
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, t amqp.MessageType, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, published{Type: t, ID: id})
	return f.err
}

func (f *fakePublisher) types() []amqp.MessageType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]amqp.MessageType, len(f.msgs))
	for i, m := range f.msgs {
		out[i] = m.Type
	}
	return out
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func fixedClock(s string) func() time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return func() time.Time { return t }
}

func TestEventService_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewStores()
	pub := &fakePublisher{}
	inv := &countingInvalidator{}
	svc := NewEventService(stores.Events, nil, "proofs", pub, inv)

	created, err := svc.Create(ctx, records.Payload{
		"title": "Sunset Set",
		"date":  "2025-03-10",
		"cache": "1500",
	}, "dj-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.EventName != "Sunset Set" || created.EventDate != "2025-03-10" {
		t.Errorf("unexpected event %+v", created)
	}
	if created.DJID == nil || *created.DJID != "dj-1" {
		t.Errorf("DJID = %v, want dj-1", created.DJID)
	}

	updated, err := svc.Update(ctx, created.ID, records.Payload{"venue": "Pier 7"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Venue == nil || *updated.Venue != "Pier 7" {
		t.Errorf("Venue = %v", updated.Venue)
	}
	if updated.EventName != "Sunset Set" {
		t.Errorf("partial update dropped name: %q", updated.EventName)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get after delete: got %v, want ErrNotFound", err)
	}

	want := []amqp.MessageType{amqp.EventCreated, amqp.EventUpdated, amqp.EventDeleted}
	got := pub.types()
	if len(got) != len(want) {
		t.Fatalf("published %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %s, want %s", i, got[i], want[i])
		}
	}
	if inv.n != 3 {
		t.Errorf("invalidations = %d, want 3", inv.n)
	}
}

func TestEventService_CreateValidation(t *testing.T) {
	svc := NewEventService(memory.NewStores().Events, nil, "proofs", nil, nil)

	_, err := svc.Create(context.Background(), records.Payload{"event_date": "2025-03-10"}, "")
	if !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEventService_PublishFailureDoesNotFailWrite(t *testing.T) {
	stores := memory.NewStores()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewEventService(stores.Events, nil, "proofs", pub, nil)

	created, err := svc.Create(context.Background(), records.Payload{
		"event_name": "Warehouse",
		"event_date": "2025-04-01",
	}, "")
	if err != nil {
		t.Fatalf("Create should succeed when publishing fails: %v", err)
	}
	all, _ := stores.Events.GetAll(context.Background())
	if len(all) != 1 || all[0].ID != created.ID {
		t.Errorf("event not stored: %+v", all)
	}
}

func TestEventService_AttachPaymentProof(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	blobs := blob.NewLocalStore(dir, "/files")
	stores := memory.NewStores()
	svc := NewEventService(stores.Events, blobs, "proofs", nil, nil)

	ev, err := svc.Create(ctx, records.Payload{"event_name": "Gala", "event_date": "2025-05-01"}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, err := svc.AttachPaymentProof(ctx, ev.ID, "receipt.pdf", "application/pdf", strings.NewReader("one"))
	if err != nil {
		t.Fatalf("AttachPaymentProof: %v", err)
	}
	if first.PaymentProof == nil || !strings.HasPrefix(*first.PaymentProof, "/files/proofs/events/"+ev.ID+"/") {
		t.Fatalf("PaymentProof = %v", first.PaymentProof)
	}
	firstPath := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(*first.PaymentProof, "/files/")))
	if _, err := os.Stat(firstPath); err != nil {
		t.Fatalf("first proof not written: %v", err)
	}

	second, err := svc.AttachPaymentProof(ctx, ev.ID, "receipt2.pdf", "application/pdf", strings.NewReader("two"))
	if err != nil {
		t.Fatalf("AttachPaymentProof (replace): %v", err)
	}
	if *second.PaymentProof == *first.PaymentProof {
		t.Fatal("expected a new proof url")
	}
	if _, err := os.Stat(firstPath); !os.IsNotExist(err) {
		t.Errorf("previous proof should be deleted, stat err = %v", err)
	}
}

func TestEventService_AttachPaymentProofErrors(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewLocalStore(t.TempDir(), "/files")

	tests := []struct {
		name     string
		svc      *EventService
		id       string
		filename string
		check    func(error) bool
	}{
		{
			name:     "no blob store",
			svc:      NewEventService(memory.NewStores().Events, nil, "proofs", nil, nil),
			id:       "e1",
			filename: "a.pdf",
			check:    func(err error) bool { return err != nil },
		},
		{
			name:     "missing filename",
			svc:      NewEventService(memory.NewStores().Events, blobs, "proofs", nil, nil),
			id:       "e1",
			filename: " ",
			check:    core.IsValidation,
		},
		{
			name:     "unknown event",
			svc:      NewEventService(memory.NewStores().Events, blobs, "proofs", nil, nil),
			id:       "missing",
			filename: "a.pdf",
			check:    func(err error) bool { return errors.Is(err, store.ErrNotFound) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.AttachPaymentProof(ctx, tt.id, tt.filename, "", strings.NewReader("x"))
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestPaymentService_CreateAndMarkPaid(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewStores()
	pub := &fakePublisher{}
	ev, _ := stores.Events.Create(ctx, core.EventRecord{EventName: "Gala", EventDate: "2025-05-01"})

	svc := NewPaymentService(stores.Payments, stores.Events, pub, nil)
	svc.now = fixedClock("2025-05-02T15:04:05Z")

	p, err := svc.Create(ctx, records.Payload{"event_id": ev.ID, "amount": "1000"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Status != core.StatusPending {
		t.Errorf("Status = %q, want pending", p.Status)
	}
	if p.Event == nil || p.Event.ID != ev.ID {
		t.Errorf("payment should carry its event, got %+v", p.Event)
	}

	paid, err := svc.MarkPaid(ctx, p.ID)
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if paid.Status != core.StatusPaid {
		t.Errorf("Status = %q, want paid", paid.Status)
	}
	if paid.PaidAt == nil || !strings.HasPrefix(*paid.PaidAt, "2025-05-02T15:04:05") {
		t.Errorf("PaidAt = %v", paid.PaidAt)
	}

	svc.now = fixedClock("2025-06-01T00:00:00Z")
	again, err := svc.MarkPaid(ctx, p.ID)
	if err != nil {
		t.Fatalf("MarkPaid (again): %v", err)
	}
	if *again.PaidAt != *paid.PaidAt {
		t.Errorf("repeat MarkPaid changed paid_at: %s -> %s", *paid.PaidAt, *again.PaidAt)
	}

	got := pub.types()
	if len(got) != 2 || got[0] != amqp.PaymentCreated || got[1] != amqp.PaymentPaid {
		t.Errorf("published %v", got)
	}
}

func TestPaymentService_CreateUnknownEvent(t *testing.T) {
	stores := memory.NewStores()
	svc := NewPaymentService(stores.Payments, stores.Events, nil, nil)

	_, err := svc.Create(context.Background(), records.Payload{"event_id": "nope", "amount": 10})
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "event_id" {
		t.Errorf("Field = %q, want event_id", verr.Field)
	}
}

func TestPaymentService_MarkPaidUnknown(t *testing.T) {
	stores := memory.NewStores()
	svc := NewPaymentService(stores.Payments, stores.Events, nil, nil)

	if _, err := svc.MarkPaid(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestPaymentService_ProducerStats(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewStores()
	mine, _ := stores.Events.Create(ctx, core.EventRecord{EventName: "A", EventDate: "2025-05-01", ProducerID: core.StringPtr("prod-1")})
	other, _ := stores.Events.Create(ctx, core.EventRecord{EventName: "B", EventDate: "2025-05-01", ProducerID: core.StringPtr("prod-2")})

	for _, p := range []core.PaymentRecord{
		{EventID: mine.ID, Amount: core.NumberOf(100.0), Status: "paid"},
		{EventID: mine.ID, Amount: core.NumberOf(50.0), Status: "pending", DueDate: core.StringPtr("2025-05-01")},
		{EventID: mine.ID, Amount: core.NumberOf(30.0), Status: "pending", DueDate: core.StringPtr("2025-07-01")},
		{EventID: other.ID, Amount: core.NumberOf(999.0), Status: "paid"},
	} {
		if _, err := stores.Payments.Create(ctx, p); err != nil {
			t.Fatalf("seed payment: %v", err)
		}
	}

	svc := NewPaymentService(stores.Payments, stores.Events, nil, nil)
	svc.now = fixedClock("2025-06-01T12:00:00Z")

	stats, err := svc.ProducerStats(ctx, "prod-1", time.UTC)
	if err != nil {
		t.Fatalf("ProducerStats: %v", err)
	}
	if stats.TotalRevenue != 180 {
		t.Errorf("TotalRevenue = %v, want 180", stats.TotalRevenue)
	}
	if stats.PaidRevenue != 100 {
		t.Errorf("PaidRevenue = %v, want 100", stats.PaidRevenue)
	}
	if stats.OverdueRevenue != 50 || stats.OverdueCount != 1 {
		t.Errorf("overdue = %v/%d, want 50/1", stats.OverdueRevenue, stats.OverdueCount)
	}
	if stats.PendingRevenue != 30 || stats.PendingCount != 1 {
		t.Errorf("pending = %v/%d, want 30/1", stats.PendingRevenue, stats.PendingCount)
	}

	if _, err := svc.ProducerStats(ctx, " ", time.UTC); !core.IsValidation(err) {
		t.Errorf("blank producer id: got %v, want validation error", err)
	}
}

func TestDJService_CRUD(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewDJService(memory.NewStores().DJs, pub, nil)

	dj, err := svc.Create(ctx, records.Payload{"artist_name": "Nyx", "genre": "techno"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dj.Name != "Nyx" {
		t.Errorf("Name = %q, want fallback to artist_name", dj.Name)
	}

	if _, err := svc.Create(ctx, records.Payload{"genre": "house"}); !core.IsValidation(err) {
		t.Errorf("Create without name: got %v, want validation error", err)
	}

	updated, err := svc.Update(ctx, dj.ID, records.Payload{"city": "Recife"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.City == nil || *updated.City != "Recife" {
		t.Errorf("City = %v", updated.City)
	}

	list, _ := svc.List(ctx)
	if len(list) != 1 {
		t.Fatalf("List len = %d, want 1", len(list))
	}

	if err := svc.Delete(ctx, dj.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, dj.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Delete: got %v, want ErrNotFound", err)
	}

	got := pub.types()
	if len(got) != 3 || got[0] != amqp.DJCreated || got[1] != amqp.DJUpdated || got[2] != amqp.DJDeleted {
		t.Errorf("published %v", got)
	}
}

type countingStores struct {
	store.EventStore
	calls int
	mu    sync.Mutex
}

func (c *countingStores) GetAll(ctx context.Context) ([]core.EventRecord, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.EventStore.GetAll(ctx)
}

func TestDashboardService_SummaryCache(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewStores()
	counting := &countingStores{EventStore: stores.Events}
	stores.Events = counting

	ev, _ := stores.Events.Create(ctx, core.EventRecord{EventName: "Gala", EventDate: "2025-06-03", Status: core.StringPtr("confirmed")})
	stores.Payments.Create(ctx, core.PaymentRecord{EventID: ev.ID, Amount: core.NumberOf(200.0), Status: "paid", PaidAt: core.StringPtr("2025-06-01T10:00:00Z")})

	c := cache.NewLRUCache[core.DashboardSummary](16, time.Minute)
	svc := NewDashboardService(stores, c, dashboard.Options{}, time.UTC)
	svc.now = fixedClock("2025-06-01T12:00:00Z")

	first, err := svc.Summary(ctx, dashboard.Options{})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if first.FinancialStats.PaidRevenue != 200 {
		t.Errorf("PaidRevenue = %v, want 200", first.FinancialStats.PaidRevenue)
	}
	if len(first.Upcoming.Events) != 1 {
		t.Errorf("upcoming = %d, want 1", len(first.Upcoming.Events))
	}

	if _, err := svc.Summary(ctx, dashboard.Options{}); err != nil {
		t.Fatalf("Summary (cached): %v", err)
	}
	if counting.calls != 1 {
		t.Errorf("event loads = %d, want 1 (second call cached)", counting.calls)
	}

	svc.Invalidate()
	if _, err := svc.Summary(ctx, dashboard.Options{}); err != nil {
		t.Fatalf("Summary (after invalidate): %v", err)
	}
	if counting.calls != 2 {
		t.Errorf("event loads = %d, want 2 after invalidate", counting.calls)
	}

	chart, err := svc.RevenueChart(ctx, 3)
	if err != nil {
		t.Fatalf("RevenueChart: %v", err)
	}
	if len(chart) != 3 {
		t.Errorf("chart buckets = %d, want 3", len(chart))
	}
}

func TestDashboardService_Report(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewStores()
	stores.Payments.Create(ctx, core.PaymentRecord{EventID: "x", Amount: core.NumberOf(100.0), Status: "pending"})

	svc := NewDashboardService(stores, nil, dashboard.Options{RevenueMonths: 4}, time.UTC)
	svc.now = fixedClock("2025-06-01T12:00:00Z")

	report, err := svc.Report(ctx)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(report.Months) != 4 {
		t.Errorf("months = %d, want 4", len(report.Months))
	}
	if report.Stats.PendingRevenue != 100 || report.Stats.PendingCount != 1 {
		t.Errorf("stats = %+v", report.Stats)
	}
}

// gatedPayments returns its first GetAll result only after release closes,
// so a write can land while a summary is being built.
type gatedPayments struct {
	store.PaymentStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedPayments) GetAll(ctx context.Context) ([]core.PaymentRecord, error) {
	all, err := g.PaymentStore.GetAll(ctx)
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return all, err
}

func TestDashboardService_WriteDuringSummaryIsNotCached(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewStores()
	ev, _ := stores.Events.Create(ctx, core.EventRecord{EventName: "Gala", EventDate: "2025-06-03"})
	p, _ := stores.Payments.Create(ctx, core.PaymentRecord{EventID: ev.ID, Amount: core.NumberOf(100.0), Status: "pending"})

	gated := &gatedPayments{PaymentStore: stores.Payments, entered: make(chan struct{}), release: make(chan struct{})}
	dashStores := stores
	dashStores.Payments = gated

	dash := NewDashboardService(dashStores, cache.NewLRUCache[core.DashboardSummary](16, time.Minute), dashboard.Options{}, time.UTC)
	dash.now = fixedClock("2025-06-01T12:00:00Z")
	payments := NewPaymentService(stores.Payments, stores.Events, nil, dash)
	payments.now = fixedClock("2025-06-01T12:30:00Z")

	type result struct {
		summary core.DashboardSummary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		s, err := dash.Summary(ctx, dashboard.Options{})
		done <- result{s, err}
	}()

	<-gated.entered
	if _, err := payments.MarkPaid(ctx, p.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	close(gated.release)

	first := <-done
	if first.err != nil {
		t.Fatalf("Summary: %v", first.err)
	}
	if first.summary.FinancialStats.PendingRevenue != 100 {
		t.Fatalf("in-flight summary should see the pre-write snapshot, got %+v", first.summary.FinancialStats)
	}

	after, err := dash.Summary(ctx, dashboard.Options{})
	if err != nil {
		t.Fatalf("Summary (after write): %v", err)
	}
	if after.FinancialStats.PaidRevenue != 100 || after.FinancialStats.PendingRevenue != 0 {
		t.Errorf("summary after MarkPaid = %+v, want paid 100 pending 0", after.FinancialStats)
	}
}

// stallingPublisher waits for its context when stall is set, as a broker in
// a reconnect loop would, and records whether the context was live on entry.
type stallingPublisher struct {
	stall       bool
	liveOnEntry bool
	deadline    bool
}

func (p *stallingPublisher) Publish(ctx context.Context, _ amqp.MessageType, _ string) error {
	p.liveOnEntry = ctx.Err() == nil
	_, p.deadline = ctx.Deadline()
	if !p.stall {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestNotifier_PublishIsDetachedAndBounded(t *testing.T) {
	tests := []struct {
		name          string
		stall         bool
		cancelRequest bool
	}{
		{name: "request cancelled before publish", cancelRequest: true},
		{name: "broker stalls", stall: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &stallingPublisher{stall: tt.stall}
			inv := &countingInvalidator{}
			n := newNotifier(pub, inv)
			n.timeout = 50 * time.Millisecond

			ctx, cancel := context.WithCancel(context.Background())
			if tt.cancelRequest {
				cancel()
			} else {
				defer cancel()
			}

			start := time.Now()
			n.changed(ctx, amqp.PaymentPaid, "p-1")
			if elapsed := time.Since(start); elapsed > time.Second {
				t.Errorf("changed blocked for %s", elapsed)
			}
			if !pub.liveOnEntry {
				t.Error("publish saw an already cancelled context")
			}
			if !pub.deadline {
				t.Error("publish context has no deadline")
			}
			if inv.n != 1 {
				t.Errorf("invalidations = %d, want 1", inv.n)
			}
		})
	}
}
