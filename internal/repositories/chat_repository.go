package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"table_order_backend/internal/models"
)

// ChatRepository stores chat messages. Messages are never updated.
type ChatRepository interface {
	CreateMessage(ctx context.Context, executor SQLExecutor, msg *models.ChatMessage) (int64, error)
	GetVisibleMessages(ctx context.Context, tableID, afterID int64, limit int) ([]models.ChatMessage, error)
}

type chatRepository struct {
	db *sql.DB
}

// NewChatRepository creates a new instance of ChatRepository.
func NewChatRepository(db *sql.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) CreateMessage(ctx context.Context, executor SQLExecutor, msg *models.ChatMessage) (int64, error) {
	query := `INSERT INTO chat_messages (sender_table_id, message, nickname, target_table_id, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	err := executor.QueryRowContext(ctx, query,
		msg.SenderTableID, msg.Message, msg.Nickname, msg.TargetTableID, msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating chat message: %v", ErrDatabaseError, err)
	}
	return msg.ID, nil
}

// GetVisibleMessages returns global messages plus private messages sent by or
// to tableID, oldest first. With afterID = 0 it returns the latest limit
// messages; otherwise the first limit messages with an id above afterID.
func (r *chatRepository) GetVisibleMessages(ctx context.Context, tableID, afterID int64, limit int) ([]models.ChatMessage, error) {
	var query string
	var args []interface{}
	if afterID > 0 {
		query = `SELECT id, sender_table_id, message, nickname, target_table_id, created_at
		         FROM chat_messages
		         WHERE (target_table_id IS NULL OR target_table_id = $1 OR sender_table_id = $1) AND id > $2
		         ORDER BY id ASC
		         LIMIT $3`
		args = []interface{}{tableID, afterID, limit}
	} else {
		query = `SELECT id, sender_table_id, message, nickname, target_table_id, created_at FROM (
		           SELECT id, sender_table_id, message, nickname, target_table_id, created_at
		           FROM chat_messages
		           WHERE target_table_id IS NULL OR target_table_id = $1 OR sender_table_id = $1
		           ORDER BY created_at DESC, id DESC
		           LIMIT $2
		         ) latest
		         ORDER BY created_at ASC, id ASC`
		args = []interface{}{tableID, limit}
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing chat messages for table %d: %v", ErrDatabaseError, tableID, err)
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.SenderTableID, &m.Message, &m.Nickname, &m.TargetTableID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning chat message: %v", ErrDatabaseError, err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating chat messages: %v", ErrDatabaseError, err)
	}
	return messages, nil
}
