package delivery

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hireloop/hireloop/internal/cache"
	"github.com/hireloop/hireloop/internal/database/testutil"
	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/pkg/mail"
)

type stubPresence struct {
	mu     sync.Mutex
	online map[string]bool
}

func (p *stubPresence) IsOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

func (p *stubPresence) setOnline(userID string, online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.online == nil {
		p.online = make(map[string]bool)
	}
	p.online[userID] = online
}

type recordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *recordingMailer) sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

type recordingTransport struct {
	mu     sync.Mutex
	events []NotificationEvent
}

func (r *recordingTransport) Send(_ context.Context, _ string, event NotificationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func routerFixture(t *testing.T, opts ...RouterOption) (*Router, *gorm.DB, *recordingPublisher, *stubPresence, *OfflineQueue) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	publisher := &recordingPublisher{}
	presence := &stubPresence{}
	queue := NewOfflineQueue(cache.NewMemoryStore(), publisher)

	router, err := NewRouter(db, publisher, presence, queue, opts...)
	require.NoError(t, err)
	return router, db, publisher, presence, queue
}

func seedRecipient(t *testing.T, db *gorm.DB, email string) string {
	t.Helper()
	user := &models.User{Email: email, Name: "Test Recipient", Role: "candidate"}
	require.NoError(t, db.Create(user).Error)
	return user.ID
}

func TestRouteLivePushesAndMarksSent(t *testing.T) {
	router, db, publisher, presence, _ := routerFixture(t)

	recipient := seedRecipient(t, db, "online@example.com")
	presence.setOnline(recipient, true)

	n := newTestNotification(recipient, "live delivery")
	require.NoError(t, db.Create(n).Error)

	router.Route(context.Background(), n, models.MethodWebsocket)

	events := publisher.published()
	require.Len(t, events, 1)
	require.Equal(t, recipient, events[0].UserID)

	event, ok := events[0].Event.(NotificationEvent)
	require.True(t, ok)
	require.Equal(t, n.ID, event.NotificationID)
	require.False(t, event.Queued)

	require.True(t, n.IsSent)

	var persisted models.Notification
	require.NoError(t, db.First(&persisted, "id = ?", n.ID).Error)
	require.True(t, persisted.IsSent)
}

func TestRouteOfflineQueuesSnapshot(t *testing.T) {
	router, db, publisher, _, queue := routerFixture(t)

	recipient := seedRecipient(t, db, "offline@example.com")

	n := newTestNotification(recipient, "parked for later")
	require.NoError(t, db.Create(n).Error)

	router.Route(context.Background(), n, models.MethodWebsocket)

	require.Empty(t, publisher.published())
	require.False(t, n.IsSent)

	var persisted models.Notification
	require.NoError(t, db.First(&persisted, "id = ?", n.ID).Error)
	require.False(t, persisted.IsSent)

	depth, err := queue.Len(context.Background(), recipient)
	require.NoError(t, err)
	require.Equal(t, 1, depth)
}

func TestRoutePublishFailureLeavesUnsent(t *testing.T) {
	router, db, publisher, presence, queue := routerFixture(t)

	recipient := seedRecipient(t, db, "flaky@example.com")
	presence.setOnline(recipient, true)
	publisher.err = gorm.ErrInvalidData

	n := newTestNotification(recipient, "push fails")
	require.NoError(t, db.Create(n).Error)

	router.Route(context.Background(), n, models.MethodWebsocket)

	require.False(t, n.IsSent)

	var persisted models.Notification
	require.NoError(t, db.First(&persisted, "id = ?", n.ID).Error)
	require.False(t, persisted.IsSent)

	// A failed push to an online recipient does not fall back to the backlog.
	depth, err := queue.Len(context.Background(), recipient)
	require.NoError(t, err)
	require.Zero(t, depth)
}

func TestRouteEmailSignalsMailer(t *testing.T) {
	mailer := &recordingMailer{}
	router, db, publisher, _, _ := routerFixture(t, WithMailer(mailer))

	recipient := seedRecipient(t, db, "inbox@example.com")

	n := newTestNotification(recipient, "email only")
	require.NoError(t, db.Create(n).Error)

	router.Route(context.Background(), n, models.MethodEmail)

	require.Empty(t, publisher.published())

	messages := mailer.sent()
	require.Len(t, messages, 1)
	require.Equal(t, []string{"inbox@example.com"}, messages[0].To)
	require.Equal(t, n.Title, messages[0].Subject)
	require.Equal(t, n.Message, messages[0].Body)
}

func TestRouteBothDeliversLiveAndEmail(t *testing.T) {
	mailer := &recordingMailer{}
	router, db, publisher, presence, _ := routerFixture(t, WithMailer(mailer))

	recipient := seedRecipient(t, db, "both@example.com")
	presence.setOnline(recipient, true)

	n := newTestNotification(recipient, "belt and braces")
	require.NoError(t, db.Create(n).Error)

	router.Route(context.Background(), n, models.MethodBoth)

	require.Len(t, publisher.published(), 1)
	require.Len(t, mailer.sent(), 1)
	require.True(t, n.IsSent)
}

func TestRouteEmailWithoutMailerIsNoOp(t *testing.T) {
	router, db, publisher, _, _ := routerFixture(t)

	recipient := seedRecipient(t, db, "nobody@example.com")

	n := newTestNotification(recipient, "no mailer configured")
	require.NoError(t, db.Create(n).Error)

	router.Route(context.Background(), n, models.MethodEmail)

	require.Empty(t, publisher.published())
}

func TestRoutePushSignalsTransport(t *testing.T) {
	transport := &recordingTransport{}
	router, db, _, _, _ := routerFixture(t, WithPushTransport(transport))

	recipient := seedRecipient(t, db, "mobile@example.com")

	n := newTestNotification(recipient, "mobile push")
	require.NoError(t, db.Create(n).Error)

	router.Route(context.Background(), n, models.MethodPush)

	transport.mu.Lock()
	defer transport.mu.Unlock()
	require.Len(t, transport.events, 1)
	require.Equal(t, n.ID, transport.events[0].NotificationID)
}

func TestRouteUnknownRecipientEmailSkipped(t *testing.T) {
	mailer := &recordingMailer{}
	router, db, _, _, _ := routerFixture(t, WithMailer(mailer))

	n := newTestNotification(uuid.NewString(), "recipient vanished")
	require.NoError(t, db.Create(n).Error)

	router.Route(context.Background(), n, models.MethodEmail)

	require.Empty(t, mailer.sent())
}
