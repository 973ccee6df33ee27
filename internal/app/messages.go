package app

import (
	"context"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/registrar/internal/metrics"
	"github.com/shrimpsizemoose/registrar/internal/models"
	"github.com/shrimpsizemoose/registrar/internal/store"
)

// Messages is the user-to-user inbox. Every operation acts on behalf of
// userID, which callers take from the authenticated principal.
type Messages struct {
	store store.Store
	now   func() time.Time
}

func NewMessages(s store.Store) *Messages {
	return &Messages{
		store: s,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *Messages) Send(ctx context.Context, senderID int64, req models.SendMessageRequest) (*models.Message, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	var sent *models.Message
	err := m.store.InTx(ctx, func(q store.Queries) error {
		receiver, err := q.GetUser(ctx, req.ReceiverID)
		if err != nil {
			return err
		}
		if receiver == nil {
			return models.ErrReceiverNotFound
		}

		message := &models.Message{
			SenderID:   senderID,
			ReceiverID: req.ReceiverID,
			Content:    req.Content,
			Status:     models.MessageStatusUnread,
		}
		if err := q.CreateMessage(ctx, message); err != nil {
			return err
		}
		sent, err = q.GetMessage(ctx, message.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.MessagesSentTotal.Inc()
	logger.Info.Printf("Message %d sent from user %d to user %d", sent.ID, senderID, req.ReceiverID)
	return sent, nil
}

// Inbox pages messages received by userID, only unread ones when unreadOnly is set.
func (m *Messages) Inbox(ctx context.Context, userID int64, unreadOnly bool, page models.PageRequest) (models.Page[models.Message], error) {
	filter := models.MessageFilter{UserID: userID}
	if unreadOnly {
		filter.Status = models.MessageStatusUnread
	}
	return m.list(ctx, filter, page)
}

// Conversation pages both directions between userID and peerID.
func (m *Messages) Conversation(ctx context.Context, userID, peerID int64, page models.PageRequest) (models.Page[models.Message], error) {
	if peerID <= 0 {
		return models.Page[models.Message]{}, models.NewError(models.KindInvalidArgument, "peer user id is required")
	}
	return m.list(ctx, models.MessageFilter{UserID: userID, PeerID: peerID}, page)
}

func (m *Messages) Latest(ctx context.Context, userID int64, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = models.DefaultLatestMessages
	}
	messages, _, err := m.store.ListMessages(ctx, models.MessageFilter{UserID: userID}, models.PageRequest{Page: 1, Size: limit})
	return messages, err
}

func (m *Messages) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return m.store.CountUnreadMessages(ctx, userID)
}

// MarkRead is allowed for the receiver only.
func (m *Messages) MarkRead(ctx context.Context, id, userID int64) error {
	return m.store.InTx(ctx, func(q store.Queries) error {
		message, err := q.GetMessage(ctx, id)
		if err != nil {
			return err
		}
		if message == nil {
			return models.ErrMessageNotFound
		}
		if message.ReceiverID != userID {
			return models.ErrMessageForbidden
		}
		return q.MarkMessageRead(ctx, id, m.now())
	})
}

func (m *Messages) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	n, err := m.store.MarkAllMessagesRead(ctx, userID, m.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Debug.Printf("Marked %d messages read for user %d", n, userID)
	}
	return n, nil
}

// Delete is allowed for either side of the message.
func (m *Messages) Delete(ctx context.Context, id, userID int64) error {
	err := m.store.InTx(ctx, func(q store.Queries) error {
		message, err := q.GetMessage(ctx, id)
		if err != nil {
			return err
		}
		if message == nil {
			return models.ErrMessageNotFound
		}
		if message.SenderID != userID && message.ReceiverID != userID {
			return models.ErrMessageForbidden
		}
		return q.DeleteMessage(ctx, id)
	})
	if err != nil {
		return err
	}

	logger.Info.Printf("Message %d deleted by user %d", id, userID)
	return nil
}

func (m *Messages) list(ctx context.Context, filter models.MessageFilter, page models.PageRequest) (models.Page[models.Message], error) {
	messages, total, err := m.store.ListMessages(ctx, filter, page)
	if err != nil {
		return models.Page[models.Message]{}, err
	}
	return models.Page[models.Message]{Items: messages, Total: total, Page: page.Page, PageSize: page.Size}, nil
}
