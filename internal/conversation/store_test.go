package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/rxflow/internal/domain"
	"github.com/soyeahso/rxflow/internal/logging"
)

// mockRepo implements Repository with overridable function fields.
type mockRepo struct {
	getFunc                func(ctx context.Context, id string) (*domain.ConversationContext, error)
	findOpenFunc           func(ctx context.Context, customerID string) (*domain.ConversationContext, error)
	createFunc             func(ctx context.Context, conv *domain.ConversationContext) error
	updateFunc             func(ctx context.Context, conv *domain.ConversationContext) error
	appendEscalationFunc   func(ctx context.Context, conversationID string, rec domain.EscalationRecord) error
	resolveEscalationsFunc func(ctx context.Context, conversationID string) error
	appendMessageFunc      func(ctx context.Context, conversationID, role, content, intent string) error
}

func (m *mockRepo) Get(ctx context.Context, id string) (*domain.ConversationContext, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockRepo) FindOpenByCustomer(ctx context.Context, customerID string) (*domain.ConversationContext, error) {
	if m.findOpenFunc != nil {
		return m.findOpenFunc(ctx, customerID)
	}
	return nil, nil
}

func (m *mockRepo) Create(ctx context.Context, conv *domain.ConversationContext) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, conv)
	}
	return nil
}

func (m *mockRepo) Update(ctx context.Context, conv *domain.ConversationContext) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, conv)
	}
	return nil
}

func (m *mockRepo) AppendEscalation(ctx context.Context, conversationID string, rec domain.EscalationRecord) error {
	if m.appendEscalationFunc != nil {
		return m.appendEscalationFunc(ctx, conversationID, rec)
	}
	return nil
}

func (m *mockRepo) ResolveEscalations(ctx context.Context, conversationID string) error {
	if m.resolveEscalationsFunc != nil {
		return m.resolveEscalationsFunc(ctx, conversationID)
	}
	return nil
}

func (m *mockRepo) AppendMessage(ctx context.Context, conversationID, role, content, intent string) error {
	if m.appendMessageFunc != nil {
		return m.appendMessageFunc(ctx, conversationID, role, content, intent)
	}
	return nil
}

func testStore(repo Repository) *ContextStore {
	return NewContextStore(repo, logging.New(nil, "silent", "json"))
}

func TestGet_NotFound(t *testing.T) {
	s := testStore(&mockRepo{})
	conv, ok := s.Get(context.Background(), "missing")
	assert.False(t, ok)
	assert.Nil(t, conv)
}

func TestGet_RepoErrorReadsAsNotFound(t *testing.T) {
	repo := &mockRepo{getFunc: func(ctx context.Context, id string) (*domain.ConversationContext, error) {
		return nil, errors.New("database is locked")
	}}
	s := testStore(repo)

	conv, ok := s.Get(context.Background(), "c1")
	assert.False(t, ok)
	assert.Nil(t, conv)
}

func TestResolve_ByID(t *testing.T) {
	existing := &domain.ConversationContext{ID: "c1", CustomerID: "cust", Status: domain.StatusActive}
	repo := &mockRepo{getFunc: func(ctx context.Context, id string) (*domain.ConversationContext, error) {
		if id == "c1" {
			return existing, nil
		}
		return nil, nil
	}}
	s := testStore(repo)

	conv := s.Resolve(context.Background(), "c1", "cust", "")
	assert.Same(t, existing, conv)
}

func TestResolve_ByOpenCustomerConversation(t *testing.T) {
	existing := &domain.ConversationContext{ID: "c2", CustomerID: "cust", Status: domain.StatusActive}
	repo := &mockRepo{findOpenFunc: func(ctx context.Context, customerID string) (*domain.ConversationContext, error) {
		return existing, nil
	}}
	s := testStore(repo)

	conv := s.Resolve(context.Background(), "", "cust", "")
	assert.Same(t, existing, conv)
}

func TestResolve_CreatesWhenNothingFound(t *testing.T) {
	var created *domain.ConversationContext
	repo := &mockRepo{createFunc: func(ctx context.Context, conv *domain.ConversationContext) error {
		created = conv
		return nil
	}}
	s := testStore(repo)

	conv := s.Resolve(context.Background(), "", "cust", "ph1")
	require.NotNil(t, conv)
	assert.Same(t, created, conv)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "cust", conv.CustomerID)
	assert.Equal(t, "ph1", conv.PharmacyID)
	assert.Equal(t, domain.StatusActive, conv.Status)
	assert.NotNil(t, conv.SessionData)
	assert.False(t, conv.CreatedAt.IsZero())
}

func TestResolve_RepoFailuresStillYieldContext(t *testing.T) {
	boom := errors.New("disk full")
	repo := &mockRepo{
		getFunc: func(ctx context.Context, id string) (*domain.ConversationContext, error) {
			return nil, boom
		},
		findOpenFunc: func(ctx context.Context, customerID string) (*domain.ConversationContext, error) {
			return nil, boom
		},
		createFunc: func(ctx context.Context, conv *domain.ConversationContext) error {
			return boom
		},
	}
	s := testStore(repo)

	conv := s.Resolve(context.Background(), "c1", "cust", "")
	require.NotNil(t, conv)
	assert.Equal(t, domain.StatusActive, conv.Status)
}

func TestUpdate_ErrorSwallowed(t *testing.T) {
	repo := &mockRepo{updateFunc: func(ctx context.Context, conv *domain.ConversationContext) error {
		return errors.New("write failed")
	}}
	s := testStore(repo)

	conv := &domain.ConversationContext{ID: "c1"}
	before := conv.LastActivityAt
	s.Update(context.Background(), conv) // must not panic
	assert.True(t, conv.LastActivityAt.After(before))
}

func TestResolveEscalation_ReturnsToActive(t *testing.T) {
	s := testStore(&mockRepo{})
	conv := &domain.ConversationContext{
		ID:     "c1",
		Status: domain.StatusEscalated,
		Escalations: []domain.EscalationRecord{
			{Reason: "payment dispute"},
			{Reason: "missing stock", Resolved: true},
		},
	}

	s.ResolveEscalation(context.Background(), conv)
	assert.Equal(t, domain.StatusActive, conv.Status)
	for _, rec := range conv.Escalations {
		assert.True(t, rec.Resolved)
	}
}

func TestRecordTurn_ErrorSwallowed(t *testing.T) {
	repo := &mockRepo{appendMessageFunc: func(ctx context.Context, conversationID, role, content, intent string) error {
		return errors.New("write failed")
	}}
	s := testStore(repo)
	s.RecordTurn(context.Background(), "c1", "user", "hello", "greeting") // must not panic
}
