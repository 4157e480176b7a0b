package notifications

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/chirpsocial/backend/internal/logger"
	"github.com/chirpsocial/backend/internal/models"
	"github.com/chirpsocial/backend/internal/push"
	"github.com/chirpsocial/backend/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", "")
	os.Exit(m.Run())
}

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	// A second pool connection to :memory: would see an empty database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	// Create tables manually with SQLite-compatible syntax
	// (GORM AutoMigrate tries to use PostgreSQL-specific features like gen_random_uuid)
	err = db.Exec(`
		CREATE TABLE notifications (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			type TEXT NOT NULL,
			message TEXT NOT NULL,
			meta TEXT,
			is_read INTEGER DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error
	require.NoError(t, err)

	return db
}

// fakePublisher records realtime sends and can be told to fail
type fakePublisher struct {
	sent []*realtime.Event
	fail bool
}

func (f *fakePublisher) SendToUser(userID string, event *realtime.Event) error {
	if f.fail {
		return errors.New("gateway unavailable")
	}
	f.sent = append(f.sent, event)
	return nil
}

// fakePushSender records push sends and can be told to fail
type fakePushSender struct {
	sent []push.Payload
	fail bool
}

func (f *fakePushSender) SendToUser(ctx context.Context, userID string, payload push.Payload) error {
	if f.fail {
		return errors.New("push service unavailable")
	}
	f.sent = append(f.sent, payload)
	return nil
}

func TestCreatePersistsAndDelivers(t *testing.T) {
	db := setupTestDB(t)
	publisher := &fakePublisher{}
	pusher := &fakePushSender{}
	service := NewService(NewStore(db), publisher, pusher)

	n, err := service.Create(context.Background(), CreateInput{
		UserID:  "u1",
		Type:    models.NotificationTypeLike,
		Message: "alice liked your post",
		Meta:    models.Metadata{"postId": "p1"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.IsRead)

	// Record is durable
	stored, err := NewStore(db).GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.UserID)
	assert.Equal(t, "p1", stored.Meta["postId"])

	// Both delivery channels were invoked once
	require.Len(t, publisher.sent, 1)
	require.Len(t, pusher.sent, 1)
	assert.Equal(t, "New like", pusher.sent[0].Title)
	assert.Equal(t, "alice liked your post", pusher.sent[0].Body)
}

func TestCreateSurvivesDeliveryFailure(t *testing.T) {
	db := setupTestDB(t)
	publisher := &fakePublisher{fail: true}
	pusher := &fakePushSender{fail: true}
	service := NewService(NewStore(db), publisher, pusher)

	// Both delivery channels erroring must not fail the call
	n, err := service.Create(context.Background(), CreateInput{
		UserID:  "u1",
		Type:    models.NotificationTypeFollow,
		Message: "bob followed you",
	})
	require.NoError(t, err)

	stored, err := NewStore(db).GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob followed you", stored.Message)
}

func TestCreateWithNilDelivery(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(NewStore(db), nil, nil)

	_, err := service.Create(context.Background(), CreateInput{
		UserID:  "u1",
		Type:    models.NotificationTypeSystem,
		Message: "welcome",
	})
	assert.NoError(t, err)
}

func TestCreateWithNilAgentBehindInterface(t *testing.T) {
	db := setupTestDB(t)

	// A nil *push.Agent wrapped in the PushSender interface is non-nil to
	// the service. Delivery must still degrade to a no-op, not panic.
	var agent *push.Agent
	service := NewService(NewStore(db), nil, agent)

	n, err := service.Create(context.Background(), CreateInput{
		UserID:  "u1",
		Type:    models.NotificationTypeSystem,
		Message: "welcome",
	})
	require.NoError(t, err)

	stored, err := NewStore(db).GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, "welcome", stored.Message)
}

func TestCreateValidation(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(NewStore(db), nil, nil)

	_, err := service.Create(context.Background(), CreateInput{
		Type:    models.NotificationTypeLike,
		Message: "missing user",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = service.Create(context.Background(), CreateInput{
		UserID: "u1",
		Type:   models.NotificationTypeLike,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Meta values outside the JSON variant set are rejected
	_, err = service.Create(context.Background(), CreateInput{
		UserID:  "u1",
		Type:    models.NotificationTypeLike,
		Message: "bad meta",
		Meta:    models.Metadata{"ch": make(chan int)},
	})
	assert.Error(t, err)
}

func seedNotifications(t *testing.T, store Store, userID string, count int) []*models.Notification {
	t.Helper()
	out := make([]*models.Notification, 0, count)
	base := time.Now().Add(-time.Duration(count) * time.Minute)
	for i := 0; i < count; i++ {
		n := &models.Notification{
			UserID:    userID,
			Type:      models.NotificationTypeComment,
			Message:   "message",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.Create(context.Background(), n))
		out = append(out, n)
	}
	return out
}

func TestListForUserNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	service := NewService(store, nil, nil)

	seeded := seedNotifications(t, store, "u1", 5)
	seedNotifications(t, store, "u2", 3)

	page, err := service.ListForUser(context.Background(), "u1", 3, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, int64(5), page.Unread)
	require.Len(t, page.Notifications, 3)

	// Newest first: the last seeded record leads the page
	assert.Equal(t, seeded[4].ID, page.Notifications[0].ID)
	assert.Equal(t, seeded[3].ID, page.Notifications[1].ID)

	// Second page holds the remainder
	page2, err := service.ListForUser(context.Background(), "u1", 3, 2)
	require.NoError(t, err)
	require.Len(t, page2.Notifications, 2)
	assert.Equal(t, seeded[0].ID, page2.Notifications[1].ID)
}

func TestMarkRead(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	service := NewService(store, nil, nil)

	seeded := seedNotifications(t, store, "u1", 2)

	require.NoError(t, service.MarkRead(context.Background(), "u1", seeded[0].ID))

	stored, err := store.GetByID(context.Background(), seeded[0].ID)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)

	unread, err := service.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	// Marking an already-read record again still succeeds
	assert.NoError(t, service.MarkRead(context.Background(), "u1", seeded[0].ID))
}

func TestMarkReadWrongOwner(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	service := NewService(store, nil, nil)

	seeded := seedNotifications(t, store, "u1", 1)

	err := service.MarkRead(context.Background(), "u2", seeded[0].ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	stored, err := store.GetByID(context.Background(), seeded[0].ID)
	require.NoError(t, err)
	assert.False(t, stored.IsRead)
}

func TestMarkAllRead(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	service := NewService(store, nil, nil)

	seedNotifications(t, store, "u1", 4)
	other := seedNotifications(t, store, "u2", 2)

	require.NoError(t, store.MarkRead(context.Background(), "u1",
		mustListFirst(t, store, "u1").ID))

	changed, err := service.MarkAllRead(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), changed)

	unread, err := service.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	// Other users' records are untouched
	for _, n := range other {
		stored, err := store.GetByID(context.Background(), n.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsRead)
	}

	// Repeating when nothing is unread changes zero rows
	changed, err = service.MarkAllRead(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), changed)
}

func mustListFirst(t *testing.T, store Store, userID string) *models.Notification {
	t.Helper()
	records, err := store.ListForUser(context.Background(), userID, 1, 0)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	return records[0]
}
