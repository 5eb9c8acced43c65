package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"realtime-service/internal/models"
	"realtime-service/internal/repositories/postgres"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotificationRepo struct {
	created     []*models.Notification
	createErr   error
	listResult  []models.Notification
	markReadErr error
	markedRead  [][2]uint
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	n.ID = uint(len(f.created) + 1)
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationRepo) ListByRecipient(ctx context.Context, recipientID uint) ([]models.Notification, error) {
	return f.listResult, nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id, recipientID uint) error {
	if f.markReadErr != nil {
		return f.markReadErr
	}
	f.markedRead = append(f.markedRead, [2]uint{id, recipientID})
	return nil
}

type fakeUserFinder struct {
	users map[uint]*models.User
}

func (f *fakeUserFinder) FindByID(ctx context.Context, id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, postgres.ErrUserNotFound
}

type emittedNotification struct {
	recipientID uint
	payload     models.NotificationResponse
}

type fakeEmitter struct {
	emitted   []emittedNotification
	delivered int
}

func (f *fakeEmitter) Emit(recipientID uint, payload models.NotificationResponse) int {
	f.emitted = append(f.emitted, emittedNotification{recipientID, payload})
	return f.delivered
}

func aliceAndBob() *fakeUserFinder {
	alice := &models.User{Username: "alice", Email: "alice@example.com"}
	alice.ID = 1
	bob := &models.User{Username: "bob", Email: "bob@example.com"}
	bob.ID = 2
	return &fakeUserFinder{users: map[uint]*models.User{1: alice, 2: bob}}
}

func newTestNotificationService(repo *fakeNotificationRepo, emitter *fakeEmitter) *NotificationService {
	return NewNotificationService(repo, aliceAndBob(), emitter, time.Second)
}

func TestNotifyPersistsAndEmits(t *testing.T) {
	repo := &fakeNotificationRepo{}
	emitter := &fakeEmitter{delivered: 1}
	svc := newTestNotificationService(repo, emitter)

	err := svc.Notify(context.Background(), models.NotificationFollow, "alice started following you", 2, 1, "/profile?userId=1")
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	record := repo.created[0]
	assert.Equal(t, models.NotificationFollow, record.Kind)
	assert.Equal(t, uint(2), record.RecipientID)
	assert.Equal(t, uint(1), record.SenderID)
	assert.False(t, record.Read, "new notifications start unread")
	require.NotNil(t, record.Link)
	assert.Equal(t, "/profile?userId=1", *record.Link)

	require.Len(t, emitter.emitted, 1)
	assert.Equal(t, uint(2), emitter.emitted[0].recipientID)
	assert.Equal(t, "alice", emitter.emitted[0].payload.Sender.Username)
	assert.Equal(t, record.ID, emitter.emitted[0].payload.ID)
}

func TestNotifySelfSuppressed(t *testing.T) {
	repo := &fakeNotificationRepo{}
	emitter := &fakeEmitter{}
	svc := newTestNotificationService(repo, emitter)

	err := svc.Notify(context.Background(), models.NotificationComment, "alice commented on your post", 1, 1, "")
	require.NoError(t, err)

	assert.Empty(t, repo.created, "self-notification must not persist a record")
	assert.Empty(t, emitter.emitted, "self-notification must not push")
}

func TestNotifyOfflineRecipientStillPersists(t *testing.T) {
	repo := &fakeNotificationRepo{}
	emitter := &fakeEmitter{delivered: 0}
	svc := newTestNotificationService(repo, emitter)

	err := svc.Notify(context.Background(), models.NotificationFollow, "alice started following you", 2, 1, "")
	require.NoError(t, err)

	// Zero deliveries is not an error; the record is durable either way
	require.Len(t, repo.created, 1)
	assert.False(t, repo.created[0].Read)
}

func TestNotifyPersistFailure(t *testing.T) {
	repo := &fakeNotificationRepo{createErr: errors.New("connection refused")}
	emitter := &fakeEmitter{}
	svc := newTestNotificationService(repo, emitter)

	err := svc.Notify(context.Background(), models.NotificationFollow, "alice started following you", 2, 1, "")
	assert.ErrorIs(t, err, ErrNotificationPersist)
	assert.Empty(t, emitter.emitted, "no push without a durable record")
}

func TestNotifyInvalidKind(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := newTestNotificationService(repo, &fakeEmitter{})

	err := svc.Notify(context.Background(), models.NotificationKind("poke"), "?", 2, 1, "")
	assert.ErrorIs(t, err, ErrInvalidNotificationKind)
	assert.Empty(t, repo.created)
}

func TestNotifyWithoutEmitter(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(repo, aliceAndBob(), nil, time.Second)

	err := svc.Notify(context.Background(), models.NotificationFollow, "alice started following you", 2, 1, "")
	require.NoError(t, err)
	assert.Len(t, repo.created, 1)
}

func TestMarkReadIdempotent(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := newTestNotificationService(repo, &fakeEmitter{})

	require.NoError(t, svc.MarkRead(context.Background(), 5, 2))
	require.NoError(t, svc.MarkRead(context.Background(), 5, 2))
	assert.Len(t, repo.markedRead, 2)
}

func TestMarkReadNotFound(t *testing.T) {
	repo := &fakeNotificationRepo{markReadErr: postgres.ErrNotificationNotFound}
	svc := newTestNotificationService(repo, &fakeEmitter{})

	err := svc.MarkRead(context.Background(), 999, 2)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestListNewestFirstPassthrough(t *testing.T) {
	first := models.Notification{Kind: models.NotificationComment, Content: "bob commented on your post", SenderID: 2, RecipientID: 1}
	first.ID = 10
	second := models.Notification{Kind: models.NotificationFollow, Content: "bob started following you", SenderID: 2, RecipientID: 1}
	second.ID = 9

	repo := &fakeNotificationRepo{listResult: []models.Notification{first, second}}
	svc := newTestNotificationService(repo, &fakeEmitter{})

	responses, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, responses, 2)
	assert.Equal(t, uint(10), responses[0].ID)
	assert.Equal(t, uint(9), responses[1].ID)
}
