package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/registrar/internal/models"
)

const messageColumns = `
	m.id, m.sender_id, COALESCE(su.username, '') AS sender_name,
	m.receiver_id, COALESCE(ru.username, '') AS receiver_name,
	m.content, m.status, m.read_at, m.created_at`

const messageJoins = `
	FROM messages m
	LEFT JOIN users su ON su.id = m.sender_id
	LEFT JOIN users ru ON ru.id = m.receiver_id`

func (s *BaseStore) GetMessage(ctx context.Context, id int64) (*models.Message, error) {
	var message models.Message
	query := s.Converter(`SELECT` + messageColumns + messageJoins + ` WHERE m.id = ?`)

	err := sqlx.GetContext(ctx, s.ext(), &message, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message %d: %w", id, err)
	}
	return &message, nil
}

// ListMessages pages newest first.
func (s *BaseStore) ListMessages(ctx context.Context, filter models.MessageFilter, page models.PageRequest) ([]models.Message, int, error) {
	var conds []string
	var args []interface{}
	if filter.PeerID != 0 {
		conds = append(conds, "((m.sender_id = ? AND m.receiver_id = ?) OR (m.sender_id = ? AND m.receiver_id = ?))")
		args = append(args, filter.UserID, filter.PeerID, filter.PeerID, filter.UserID)
	} else {
		conds = append(conds, "m.receiver_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conds = append(conds, "m.status = ?")
		args = append(args, filter.Status)
	}
	where := whereClause(conds)

	total, err := s.count(ctx, `SELECT COUNT(*) FROM messages m `+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	messages := []models.Message{}
	query := s.Converter(`SELECT` + messageColumns + messageJoins + `
		` + where + `
		ORDER BY m.created_at DESC, m.id DESC
		` + limitClause(page.Size, page.Offset()))

	if err := sqlx.SelectContext(ctx, s.ext(), &messages, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, total, nil
}

func (s *BaseStore) CountUnreadMessages(ctx context.Context, receiverID int64) (int, error) {
	n, err := s.count(ctx, `SELECT COUNT(*) FROM messages WHERE receiver_id = ? AND status = 'unread'`, receiverID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages of user %d: %w", receiverID, err)
	}
	return n, nil
}

func (s *BaseStore) CreateMessage(ctx context.Context, message *models.Message) error {
	now := time.Now().UTC()
	if message.Status == "" {
		message.Status = models.MessageStatusUnread
	}
	id, err := s.insertReturningID(ctx, `
		INSERT INTO messages (sender_id, receiver_id, content, status, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, message.SenderID, message.ReceiverID, message.Content, message.Status, now)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	message.ID = id
	message.CreatedAt = now
	return nil
}

// MarkMessageRead keeps the first read time when called again.
func (s *BaseStore) MarkMessageRead(ctx context.Context, id int64, at time.Time) error {
	_, err := s.exec(ctx, `
		UPDATE messages SET status = 'read', read_at = COALESCE(read_at, ?)
		WHERE id = ?
	`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark message %d read: %w", id, err)
	}
	return nil
}

func (s *BaseStore) MarkAllMessagesRead(ctx context.Context, receiverID int64, at time.Time) (int64, error) {
	n, err := s.exec(ctx, `
		UPDATE messages SET status = 'read', read_at = ?
		WHERE receiver_id = ? AND status = 'unread'
	`, at, receiverID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages of user %d read: %w", receiverID, err)
	}
	return n, nil
}

func (s *BaseStore) DeleteMessage(ctx context.Context, id int64) error {
	if _, err := s.exec(ctx, `DELETE FROM messages WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete message %d: %w", id, err)
	}
	return nil
}
