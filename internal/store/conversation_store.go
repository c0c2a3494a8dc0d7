package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/soyeahso/rxflow/internal/domain"
)

// SQLiteConversationStore implements conversation.Repository backed by
// SQLite. Escalations live in their own append-only table; Update never
// rewrites them.
type SQLiteConversationStore struct {
	db *DB
}

// NewSQLiteConversationStore creates a conversation store using the given database.
func NewSQLiteConversationStore(db *DB) *SQLiteConversationStore {
	return &SQLiteConversationStore{db: db}
}

const conversationColumns = `id, customer_id, pharmacy_id, status, last_intent, last_confidence,
	session_data, cart, delivery_address, created_at, last_activity_at`

// Get returns a conversation by id, or (nil, nil) if not found.
func (s *SQLiteConversationStore) Get(ctx context.Context, id string) (*domain.ConversationContext, error) {
	row := s.db.sql.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id)
	return s.scanConversation(ctx, row)
}

// FindOpenByCustomer returns the most recent non-closed conversation for a
// customer, or (nil, nil) if none exists.
func (s *SQLiteConversationStore) FindOpenByCustomer(ctx context.Context, customerID string) (*domain.ConversationContext, error) {
	row := s.db.sql.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations
		 WHERE customer_id = ? AND status != ?
		 ORDER BY last_activity_at DESC LIMIT 1`,
		customerID, string(domain.StatusClosed))
	return s.scanConversation(ctx, row)
}

// Create inserts a new conversation.
func (s *SQLiteConversationStore) Create(ctx context.Context, conv *domain.ConversationContext) error {
	sessionData, cart := marshalJSONFields(conv)

	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO conversations
		 (id, customer_id, pharmacy_id, status, last_intent, last_confidence,
		  session_data, cart, delivery_address, created_at, last_activity_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.CustomerID, conv.PharmacyID, string(conv.Status),
		conv.LastIntent, conv.LastConfidence, sessionData, cart, conv.DeliveryAddress,
		conv.CreatedAt.Format(time.DateTime), conv.LastActivityAt.Format(time.DateTime),
	)
	return err
}

// Update persists the mutable fields of a conversation. Last write wins;
// the id and escalation history are never touched here.
func (s *SQLiteConversationStore) Update(ctx context.Context, conv *domain.ConversationContext) error {
	sessionData, cart := marshalJSONFields(conv)

	_, err := s.db.sql.ExecContext(ctx,
		`UPDATE conversations SET
		   status = ?, last_intent = ?, last_confidence = ?,
		   session_data = ?, cart = ?, delivery_address = ?, last_activity_at = ?
		 WHERE id = ?`,
		string(conv.Status), conv.LastIntent, conv.LastConfidence,
		sessionData, cart, conv.DeliveryAddress,
		conv.LastActivityAt.Format(time.DateTime), conv.ID,
	)
	return err
}

// AppendEscalation adds one record to a conversation's escalation history.
func (s *SQLiteConversationStore) AppendEscalation(ctx context.Context, conversationID string, rec domain.EscalationRecord) error {
	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO escalations (conversation_id, reason, resolved, created_at)
		 VALUES (?, ?, ?, ?)`,
		conversationID, rec.Reason, boolToInt(rec.Resolved), rec.Timestamp.Format(time.DateTime),
	)
	return err
}

// ResolveEscalations marks every open escalation for the conversation resolved.
func (s *SQLiteConversationStore) ResolveEscalations(ctx context.Context, conversationID string) error {
	_, err := s.db.sql.ExecContext(ctx,
		`UPDATE escalations SET resolved = 1 WHERE conversation_id = ? AND resolved = 0`,
		conversationID,
	)
	return err
}

// AppendMessage records one turn of the conversation transcript.
func (s *SQLiteConversationStore) AppendMessage(ctx context.Context, conversationID, role, content, intent string) error {
	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, intent, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		conversationID, role, content, intent, time.Now().Format(time.DateTime),
	)
	return err
}

func (s *SQLiteConversationStore) scanConversation(ctx context.Context, row *sql.Row) (*domain.ConversationContext, error) {
	var conv domain.ConversationContext
	var status, createdAt, lastActivityAt string
	var sessionData, cart sql.NullString

	err := row.Scan(
		&conv.ID, &conv.CustomerID, &conv.PharmacyID, &status,
		&conv.LastIntent, &conv.LastConfidence,
		&sessionData, &cart, &conv.DeliveryAddress,
		&createdAt, &lastActivityAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	conv.Status = domain.Status(status)
	conv.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	conv.LastActivityAt, _ = time.Parse(time.DateTime, lastActivityAt)

	if sessionData.Valid && sessionData.String != "" {
		_ = json.Unmarshal([]byte(sessionData.String), &conv.SessionData)
	}
	if cart.Valid && cart.String != "" {
		_ = json.Unmarshal([]byte(cart.String), &conv.Cart)
	}

	conv.Escalations, err = s.loadEscalations(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *SQLiteConversationStore) loadEscalations(ctx context.Context, conversationID string) ([]domain.EscalationRecord, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT reason, resolved, created_at FROM escalations
		 WHERE conversation_id = ? ORDER BY id`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.EscalationRecord
	for rows.Next() {
		var rec domain.EscalationRecord
		var resolved int
		var createdAt string
		if err := rows.Scan(&rec.Reason, &resolved, &createdAt); err != nil {
			continue
		}
		rec.Resolved = resolved != 0
		rec.Timestamp, _ = time.Parse(time.DateTime, createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func marshalJSONFields(conv *domain.ConversationContext) (sessionData, cart sql.NullString) {
	if len(conv.SessionData) > 0 {
		if data, err := json.Marshal(conv.SessionData); err == nil {
			sessionData = sql.NullString{String: string(data), Valid: true}
		}
	}
	if len(conv.Cart) > 0 {
		if data, err := json.Marshal(conv.Cart); err == nil {
			cart = sql.NullString{String: string(data), Valid: true}
		}
	}
	return sessionData, cart
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
