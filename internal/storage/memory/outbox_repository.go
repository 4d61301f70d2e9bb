package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medisupply/sales/internal/domain"
)

type outboxStatus string

const (
	outboxPending outboxStatus = "pending"
	outboxSent    outboxStatus = "sent"
	outboxFailed  outboxStatus = "failed"
)

type outboxRecord struct {
	msg       domain.OutboxMessage
	status    outboxStatus
	createdAt time.Time
}

// OutboxRepository хранит события outbox в памяти.
type OutboxRepository struct {
	mu      sync.Mutex
	records map[string]*outboxRecord
	order   []string
	now     func() time.Time
}

// NewOutboxRepository создаёт пустой outbox.
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{
		records: make(map[string]*outboxRecord),
		now:     time.Now,
	}
}

// Enqueue сохраняет событие в статусе pending.
func (r *OutboxRepository) Enqueue(_ context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	r.records[msg.ID] = &outboxRecord{
		msg:       msg,
		status:    outboxPending,
		createdAt: r.now().UTC(),
	}
	r.order = append(r.order, msg.ID)
	return msg, nil
}

// PullPending возвращает до limit необработанных событий в порядке добавления.
func (r *OutboxRepository) PullPending(_ context.Context, limit int) ([]domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.OutboxMessage, 0, limit)
	for _, id := range r.order {
		record, ok := r.records[id]
		if !ok || record.status != outboxPending {
			continue
		}
		result = append(result, record.msg)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// Stats возвращает размер backlog и возраст самого старого pending-события.
func (r *OutboxRepository) Stats(_ context.Context) (domain.OutboxStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats domain.OutboxStats
	pending := make([]time.Time, 0)
	for _, record := range r.records {
		if record.status == outboxPending {
			pending = append(pending, record.createdAt)
		}
	}
	stats.PendingCount = len(pending)
	if len(pending) > 0 {
		sort.Slice(pending, func(i, j int) bool { return pending[i].Before(pending[j]) })
		stats.OldestPendingAt = pending[0]
	}
	return stats, nil
}

// MarkSent помечает событие отправленным.
func (r *OutboxRepository) MarkSent(_ context.Context, id string) error {
	return r.markStatus(id, outboxSent)
}

// MarkFailed помечает событие неотправляемым (dead letter).
func (r *OutboxRepository) MarkFailed(_ context.Context, id string) error {
	return r.markStatus(id, outboxFailed)
}

func (r *OutboxRepository) markStatus(id string, status outboxStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return fmt.Errorf("outbox message %s: %w", id, domain.ErrNotFound)
	}
	record.status = status
	return nil
}
