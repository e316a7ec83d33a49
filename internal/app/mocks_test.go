package app

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/example/controlcard/internal/core/finalize"
	"github.com/example/controlcard/internal/core/grid"
	"github.com/example/controlcard/internal/core/redeem"
	"github.com/example/controlcard/internal/failure"
	"github.com/example/controlcard/internal/ports/secondary"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ============================================================================
// Mock Implementations
// ============================================================================

// mockCardRepository implements secondary.CardRepository for testing.
type mockCardRepository struct {
	mu        sync.Mutex
	cards     map[int64]*secondary.CardRecord
	nextID    int64
	createErr error
	markErr   error
	// markFailures makes the next n MarkFinalized calls fail
	markFailures int
	finalized    []int64
}

func newMockCardRepository() *mockCardRepository {
	return &mockCardRepository{cards: make(map[int64]*secondary.CardRecord), nextID: 1}
}

func (m *mockCardRepository) Create(ctx context.Context, card *secondary.CardRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return 0, m.createErr
	}
	id := m.nextID
	m.nextID++
	stored := *card
	stored.ID = id
	m.cards[id] = &stored
	return id, nil
}

func (m *mockCardRepository) GetByID(ctx context.Context, id int64) (*secondary.CardRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cards[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, failure.New(failure.CardNotFound, "card %d not found", id)
}

func (m *mockCardRepository) GetByCode(ctx context.Context, code string) (*secondary.CardRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *secondary.CardRecord
	for _, c := range m.cards {
		if c.Code == code && (found == nil || c.ID > found.ID) {
			found = c
		}
	}
	if found == nil {
		return nil, failure.New(failure.CardNotFound, "card %s not found", code)
	}
	copied := *found
	return &copied, nil
}

func (m *mockCardRepository) List(ctx context.Context) ([]*secondary.CardRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.CardRecord
	for id := int64(1); id < m.nextID; id++ {
		if c, ok := m.cards[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCardRepository) PairExists(ctx context.Context, code string, competitorID, cardID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cards {
		if c.CompetitorID == competitorID && c.CardID == cardID && (cardID != 0 || c.Code == code) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCardRepository) MarkFinalized(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	if m.markFailures > 0 {
		m.markFailures--
		return failure.New(failure.StoreWriteFailure, "database is locked")
	}
	c, ok := m.cards[id]
	if !ok {
		return failure.New(failure.CardNotFound, "card %d not found", id)
	}
	c.Finalized = true
	m.finalized = append(m.finalized, id)
	return nil
}

func (m *mockCardRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[id]; !ok {
		return failure.New(failure.CardNotFound, "card %d not found", id)
	}
	delete(m.cards, id)
	return nil
}

func (m *mockCardRepository) finalizedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.finalized)
}

// mockGridStore implements secondary.GridStore for testing. It records
// every saved snapshot in order.
type mockGridStore struct {
	mu      sync.Mutex
	loaded  *grid.Grid
	loadErr error
	saveErr error
	saves   []*grid.Grid
}

func (m *mockGridStore) LoadGrid(ctx context.Context, card grid.Card) (*grid.Grid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.loaded != nil {
		return m.loaded.Clone(), nil
	}
	return grid.New(card.RowCount), nil
}

func (m *mockGridStore) SaveGrid(ctx context.Context, card grid.Card, g *grid.Grid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves = append(m.saves, g.Clone())
	return nil
}

func (m *mockGridStore) savedSnapshots() []*grid.Grid {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*grid.Grid, len(m.saves))
	copy(out, m.saves)
	return out
}

// mockRedeemer implements secondary.Redeemer for testing.
type mockRedeemer struct {
	redemption *redeem.Redemption
	err        error
	codes      []string
}

func (m *mockRedeemer) Redeem(ctx context.Context, code string) (*redeem.Redemption, error) {
	m.codes = append(m.codes, code)
	if m.err != nil {
		return nil, m.err
	}
	r := *m.redemption
	return &r, nil
}

// mockSubmitter implements secondary.Submitter for testing. When gate is
// set, Submit blocks until a value arrives on it or ctx is cancelled.
type mockSubmitter struct {
	mu       sync.Mutex
	err      error
	gate     chan struct{}
	payloads []finalize.Payload
}

func (m *mockSubmitter) Submit(ctx context.Context, payload finalize.Payload) error {
	m.mu.Lock()
	m.payloads = append(m.payloads, payload)
	gate := m.gate
	err := m.err
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return failure.Wrap(failure.SubmissionTransportError, ctx.Err(), "Error sending data: %v", ctx.Err())
		}
	}
	return err
}

func (m *mockSubmitter) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads)
}
