package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/rxflow/internal/domain"
	"github.com/soyeahso/rxflow/internal/logging"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logging.New(nil, "silent", "json")
	db, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// --- DB/Migration tests ---

func TestOpen_InMemory(t *testing.T) {
	db := testDB(t)
	assert.NotNil(t, db)
	assert.NotNil(t, db.SQL())
}

func TestMigrations_Applied(t *testing.T) {
	db := testDB(t)

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestMigrations_Idempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	err := db.migrate()
	require.NoError(t, err)

	var count int
	err = db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestSchema_TablesExist(t *testing.T) {
	db := testDB(t)

	tables := []string{"conversations", "escalations", "messages", "products"}
	for _, table := range tables {
		var name string
		err := db.sql.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

// --- Conversation store tests ---

func sampleConversation(id, customer string) *domain.ConversationContext {
	now := time.Now()
	return &domain.ConversationContext{
		ID:         id,
		CustomerID: customer,
		PharmacyID: "ph1",
		Status:     domain.StatusActive,
		SessionData: map[string]string{
			"last_order_id": "ORD-1234",
		},
		Cart: []domain.CartItem{
			{ProductID: "p1", Name: "Aspirin", Quantity: 2, UnitPrice: 4.5},
		},
		DeliveryAddress: "12 Main St",
		CreatedAt:       now,
		LastActivityAt:  now,
	}
}

func TestConversationStore_RoundTrip(t *testing.T) {
	s := NewSQLiteConversationStore(testDB(t))
	ctx := context.Background()

	conv := sampleConversation("c1", "cust1")
	conv.LastIntent = domain.IntentPlaceOrder
	conv.LastConfidence = 0.8
	require.NoError(t, s.Create(ctx, conv))

	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "cust1", got.CustomerID)
	assert.Equal(t, "ph1", got.PharmacyID)
	assert.Equal(t, domain.StatusActive, got.Status)
	assert.Equal(t, domain.IntentPlaceOrder, got.LastIntent)
	assert.Equal(t, 0.8, got.LastConfidence)
	assert.Equal(t, "ORD-1234", got.SessionData["last_order_id"])
	require.Len(t, got.Cart, 1)
	assert.Equal(t, "Aspirin", got.Cart[0].Name)
	assert.Equal(t, 2, got.Cart[0].Quantity)
	assert.Equal(t, "12 Main St", got.DeliveryAddress)
}

func TestConversationStore_GetMissing(t *testing.T) {
	s := NewSQLiteConversationStore(testDB(t))

	got, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConversationStore_Update(t *testing.T) {
	s := NewSQLiteConversationStore(testDB(t))
	ctx := context.Background()

	conv := sampleConversation("c1", "cust1")
	require.NoError(t, s.Create(ctx, conv))

	conv.Status = domain.StatusClosed
	conv.Cart = nil
	conv.DeliveryAddress = "new address"
	require.NoError(t, s.Update(ctx, conv))

	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.StatusClosed, got.Status)
	assert.Empty(t, got.Cart)
	assert.Equal(t, "new address", got.DeliveryAddress)
}

func TestConversationStore_FindOpenByCustomer(t *testing.T) {
	s := NewSQLiteConversationStore(testDB(t))
	ctx := context.Background()

	closed := sampleConversation("c1", "cust1")
	closed.Status = domain.StatusClosed
	require.NoError(t, s.Create(ctx, closed))

	open := sampleConversation("c2", "cust1")
	require.NoError(t, s.Create(ctx, open))

	got, err := s.FindOpenByCustomer(ctx, "cust1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "c2", got.ID)

	// Escalated conversations still count as open.
	open.Status = domain.StatusEscalated
	require.NoError(t, s.Update(ctx, open))
	got, err = s.FindOpenByCustomer(ctx, "cust1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "c2", got.ID)

	got, err = s.FindOpenByCustomer(ctx, "stranger")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConversationStore_EscalationsAppendOnly(t *testing.T) {
	s := NewSQLiteConversationStore(testDB(t))
	ctx := context.Background()

	conv := sampleConversation("c1", "cust1")
	require.NoError(t, s.Create(ctx, conv))

	rec := domain.EscalationRecord{Timestamp: time.Now(), Reason: "payment dispute"}
	require.NoError(t, s.AppendEscalation(ctx, "c1", rec))

	// A context update must not disturb the escalation history.
	conv.Status = domain.StatusEscalated
	require.NoError(t, s.Update(ctx, conv))

	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Escalations, 1)
	assert.Equal(t, "payment dispute", got.Escalations[0].Reason)
	assert.False(t, got.Escalations[0].Resolved)

	require.NoError(t, s.ResolveEscalations(ctx, "c1"))
	got, err = s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, got.Escalations[0].Resolved)
}

func TestConversationStore_Transcript(t *testing.T) {
	s := NewSQLiteConversationStore(testDB(t))
	ctx := context.Background()

	conv := sampleConversation("c1", "cust1")
	require.NoError(t, s.Create(ctx, conv))
	require.NoError(t, s.AppendMessage(ctx, "c1", "user", "hello", "greeting"))
	require.NoError(t, s.AppendMessage(ctx, "c1", "assistant", "Good day!", "greeting"))

	var count int
	err := s.db.sql.QueryRow("SELECT COUNT(*) FROM messages WHERE conversation_id = 'c1'").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

// --- Product store tests ---

func TestProductStore_UpsertGetList(t *testing.T) {
	p := NewProductStore(testDB(t))
	ctx := context.Background()

	prod := Product{ID: "p1", Name: "Aspirin", Category: "painkillers", Price: 4.5, InStock: true}
	require.NoError(t, p.Upsert(ctx, prod))

	got, err := p.Get(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Aspirin", got.Name)
	assert.True(t, got.InStock)

	// Upsert replaces in place.
	prod.Price = 5.0
	prod.InStock = false
	require.NoError(t, p.Upsert(ctx, prod))

	got, err = p.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Price)
	assert.False(t, got.InStock)

	list, err := p.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProductStore_GetMissing(t *testing.T) {
	p := NewProductStore(testDB(t))

	got, err := p.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProductStore_Delete(t *testing.T) {
	p := NewProductStore(testDB(t))
	ctx := context.Background()

	require.NoError(t, p.Upsert(ctx, Product{ID: "p1", Name: "Aspirin"}))
	require.NoError(t, p.Delete(ctx, "p1"))

	got, err := p.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// --- Memory store tests ---

func TestMemoryStore_RoundTrip(t *testing.T) {
	m := NewMemoryConversationStore()
	ctx := context.Background()

	conv := sampleConversation("c1", "cust1")
	require.NoError(t, m.Create(ctx, conv))

	got, err := m.Get(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "cust1", got.CustomerID)

	got, err = m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_UpdatePreservesEscalations(t *testing.T) {
	m := NewMemoryConversationStore()
	ctx := context.Background()

	conv := sampleConversation("c1", "cust1")
	require.NoError(t, m.Create(ctx, conv))
	require.NoError(t, m.AppendEscalation(ctx, "c1", domain.EscalationRecord{Reason: "dispute"}))

	// Update with a context that carries no escalations.
	update := sampleConversation("c1", "cust1")
	require.NoError(t, m.Update(ctx, update))

	got, err := m.Get(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, got.Escalations, 1)
	assert.Equal(t, "dispute", got.Escalations[0].Reason)
}

func TestMemoryStore_FindOpenByCustomer(t *testing.T) {
	m := NewMemoryConversationStore()
	ctx := context.Background()

	closed := sampleConversation("c1", "cust1")
	closed.Status = domain.StatusClosed
	require.NoError(t, m.Create(ctx, closed))

	got, err := m.FindOpenByCustomer(ctx, "cust1")
	require.NoError(t, err)
	assert.Nil(t, got)

	open := sampleConversation("c2", "cust1")
	require.NoError(t, m.Create(ctx, open))

	got, err = m.FindOpenByCustomer(ctx, "cust1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "c2", got.ID)
}

func TestMemoryStore_GetReturnsIsolatedCopy(t *testing.T) {
	s := NewMemoryConversationStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, sampleConversation("c1", "cust1")))

	first, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	first.SessionData["last_order_id"] = "ORD-9999"
	first.Cart[0].Quantity = 99

	second, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "ORD-1234", second.SessionData["last_order_id"])
	assert.Equal(t, 2, second.Cart[0].Quantity)
}
