package app

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/registrar/internal/metrics"
	"github.com/shrimpsizemoose/registrar/internal/models"
)

func createUsers(t *testing.T, svc *Service, names ...string) []*models.User {
	t.Helper()
	users := make([]*models.User, 0, len(names))
	for _, name := range names {
		u, err := svc.Auth.CreateUser(context.Background(), models.RegisterRequest{Username: name, Password: "password1"}, models.RoleStudent)
		require.NoError(t, err)
		users = append(users, u)
	}
	return users
}

func TestSendAndInbox(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	users := createUsers(t, svc, "alice", "bob", "carol")
	alice, bob, carol := users[0], users[1], users[2]

	before := testutil.ToFloat64(metrics.MessagesSentTotal)
	sent, err := svc.Messages.Send(ctx, alice.ID, models.SendMessageRequest{ReceiverID: bob.ID, Content: "hi bob"})
	require.NoError(t, err)
	assert.Equal(t, "alice", sent.SenderName)
	assert.Equal(t, "bob", sent.ReceiverName)
	assert.Equal(t, models.MessageStatusUnread, sent.Status)
	assert.Nil(t, sent.ReadAt)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.MessagesSentTotal))

	_, err = svc.Messages.Send(ctx, carol.ID, models.SendMessageRequest{ReceiverID: bob.ID, Content: "hey"})
	require.NoError(t, err)
	_, err = svc.Messages.Send(ctx, bob.ID, models.SendMessageRequest{ReceiverID: alice.ID, Content: "hi alice"})
	require.NoError(t, err)

	inbox, err := svc.Messages.Inbox(ctx, bob.ID, false, models.PageRequest{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, inbox.Total)
	assert.Equal(t, "hey", inbox.Items[0].Content, "newest first")

	n, err := svc.Messages.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	conv, err := svc.Messages.Conversation(ctx, alice.ID, bob.ID, models.PageRequest{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, conv.Total, "both directions")

	latest, err := svc.Messages.Latest(ctx, bob.ID, 1)
	require.NoError(t, err)
	assert.Len(t, latest, 1)
}

func TestSendValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := createUsers(t, svc, "alice")[0]

	testCases := []struct {
		name string
		req  models.SendMessageRequest
		kind models.ErrorKind
	}{
		{"missing receiver", models.SendMessageRequest{Content: "x"}, models.KindInvalidArgument},
		{"empty content", models.SendMessageRequest{ReceiverID: alice.ID}, models.KindInvalidArgument},
		{"unknown receiver", models.SendMessageRequest{ReceiverID: 9999, Content: "x"}, models.KindNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Messages.Send(ctx, alice.ID, tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.kind, models.KindOf(err))
		})
	}
}

func TestMarkReadAndDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	users := createUsers(t, svc, "alice", "bob", "mallory")
	alice, bob, mallory := users[0], users[1], users[2]

	first, err := svc.Messages.Send(ctx, alice.ID, models.SendMessageRequest{ReceiverID: bob.ID, Content: "one"})
	require.NoError(t, err)
	_, err = svc.Messages.Send(ctx, alice.ID, models.SendMessageRequest{ReceiverID: bob.ID, Content: "two"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Messages.MarkRead(ctx, first.ID, alice.ID), models.ErrMessageForbidden, "sender cannot mark read")
	assert.ErrorIs(t, svc.Messages.MarkRead(ctx, 9999, bob.ID), models.ErrMessageNotFound)
	require.NoError(t, svc.Messages.MarkRead(ctx, first.ID, bob.ID))

	got, err := svc.Store.GetMessage(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusRead, got.Status)
	require.NotNil(t, got.ReadAt)

	unread, err := svc.Messages.Inbox(ctx, bob.ID, true, models.PageRequest{Page: 1, Size: 10})
	require.NoError(t, err)
	require.Equal(t, 1, unread.Total)
	assert.Equal(t, "two", unread.Items[0].Content)

	marked, err := svc.Messages.MarkAllRead(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)
	n, err := svc.Messages.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.ErrorIs(t, svc.Messages.Delete(ctx, first.ID, mallory.ID), models.ErrMessageForbidden)
	require.NoError(t, svc.Messages.Delete(ctx, first.ID, alice.ID))
	assert.ErrorIs(t, svc.Messages.Delete(ctx, first.ID, bob.ID), models.ErrMessageNotFound)
}
