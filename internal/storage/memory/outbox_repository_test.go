package memory

import (
	"context"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestOutboxRepository_EnqueueAndPull(t *testing.T) {
	repo := NewOutboxRepository()

	msg := domain.OutboxMessage{
		AggregateType: "session",
		AggregateID:   "session-1",
		EventType:     "analytics_event",
		Payload:       []byte(`{"event_type":"add_to_cart"}`),
	}

	saved, err := repo.Enqueue(msg)
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated id")
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending message, got %d", len(pending))
	}
	if pending[0].ID != saved.ID {
		t.Fatalf("expected same message id, got %s", pending[0].ID)
	}
}

func TestOutboxRepository_PullPendingKeepsEnqueueOrder(t *testing.T) {
	repo := NewOutboxRepository()

	var ids []string
	for i := 0; i < 20; i++ {
		saved, err := repo.Enqueue(domain.OutboxMessage{AggregateType: "session"})
		if err != nil {
			t.Fatalf("enqueue failed: %v", err)
		}
		ids = append(ids, saved.ID)
	}

	pending, err := repo.PullPending(5)
	if err != nil {
		t.Fatalf("pull pending failed: %v", err)
	}
	if len(pending) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(pending))
	}
	for i, msg := range pending {
		if msg.ID != ids[i] {
			t.Fatalf("position %d: expected %s, got %s", i, ids[i], msg.ID)
		}
	}
}

func TestOutboxRepository_MarkSentAndFailed(t *testing.T) {
	repo := NewOutboxRepository()

	saved, err := repo.Enqueue(domain.OutboxMessage{AggregateType: "session"})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	if err := repo.MarkSent(saved.ID); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}
	if status, _ := repo.Status(saved.ID); status != outboxStatusSent {
		t.Fatalf("expected sent status, got %s", status)
	}

	if err := repo.MarkFailed(saved.ID); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if len(repo.AllPending()) != 0 {
		t.Fatal("expected no pending messages")
	}

	if err := repo.MarkSent("missing"); err != domain.ErrOutboxPublish {
		t.Fatalf("expected ErrOutboxPublish for unknown id, got %v", err)
	}
}

func TestOutboxRepository_Stats(t *testing.T) {
	repo := NewOutboxRepository()

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.PendingCount != 0 || !stats.OldestPendingAt.IsZero() {
		t.Fatalf("expected empty stats, got %+v", stats)
	}

	first, _ := repo.Enqueue(domain.OutboxMessage{AggregateType: "session"})
	_, _ = repo.Enqueue(domain.OutboxMessage{AggregateType: "session"})
	if err := repo.MarkSent(first.ID); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}

	stats, err = repo.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.PendingCount != 1 {
		t.Fatalf("expected 1 pending, got %d", stats.PendingCount)
	}
	if stats.OldestPendingAt.IsZero() {
		t.Fatal("expected oldest pending timestamp")
	}
}

func TestOutboxRepository_DuplicateIDIgnored(t *testing.T) {
	repo := NewOutboxRepository()

	msg := domain.OutboxMessage{ID: "evt-1", AggregateType: "session", Payload: []byte("first")}
	if _, err := repo.Enqueue(msg); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	msg.Payload = []byte("second")
	if _, err := repo.Enqueue(msg); err != nil {
		t.Fatalf("repeated enqueue failed: %v", err)
	}

	pending := repo.AllPending()
	if len(pending) != 1 || string(pending[0].Payload) != "first" {
		t.Fatalf("expected the first message to be kept, got %+v", pending)
	}
}

func TestOutboxRepository_DeleteSent(t *testing.T) {
	repo := NewOutboxRepository()

	sent, _ := repo.Enqueue(domain.OutboxMessage{AggregateType: "session"})
	pending, _ := repo.Enqueue(domain.OutboxMessage{AggregateType: "session"})
	failed, _ := repo.Enqueue(domain.OutboxMessage{AggregateType: "session"})
	if err := repo.MarkSent(sent.ID); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}
	if err := repo.MarkFailed(failed.ID); err != nil {
		t.Fatalf("mark failed failed: %v", err)
	}

	deleted, err := repo.DeleteSent(context.Background(), time.Now().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("delete sent failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}
	if _, ok := repo.Status(sent.ID); ok {
		t.Fatal("sent message must be purged")
	}
	if status, _ := repo.Status(pending.ID); status != outboxStatusPending {
		t.Fatalf("pending message must stay, got %q", status)
	}
	if status, _ := repo.Status(failed.ID); status != outboxStatusFailed {
		t.Fatalf("failed message must stay, got %q", status)
	}
}
