package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hireloop/hireloop/internal/cache"
	"github.com/hireloop/hireloop/internal/database/testutil"
	"github.com/hireloop/hireloop/internal/delivery"
	"github.com/hireloop/hireloop/internal/models"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []fakePublished
}

type fakePublished struct {
	UserID string
	Event  any
}

func (p *fakePublisher) Publish(userID string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, fakePublished{UserID: userID, Event: event})
	return nil
}

func (p *fakePublisher) published() []fakePublished {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]fakePublished, len(p.events))
	copy(out, p.events)
	return out
}

type fakePresence struct {
	mu     sync.Mutex
	online map[string]bool
}

func (p *fakePresence) IsOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

func (p *fakePresence) setOnline(userID string, online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.online == nil {
		p.online = make(map[string]bool)
	}
	p.online[userID] = online
}

type serviceFixture struct {
	db        *gorm.DB
	publisher *fakePublisher
	presence  *fakePresence
	queue     *delivery.OfflineQueue
	prefs     *PreferenceService
	templates *TemplateService
	svc       *NotificationService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	publisher := &fakePublisher{}
	presence := &fakePresence{}
	queue := delivery.NewOfflineQueue(cache.NewMemoryStore(), publisher)

	router, err := delivery.NewRouter(db, publisher, presence, queue)
	require.NoError(t, err)

	prefs, err := NewPreferenceService(db)
	require.NoError(t, err)
	templates, err := NewTemplateService(db)
	require.NoError(t, err)

	svc, err := NewNotificationService(db, prefs, templates, router, publisher, WithSynchronousDispatch())
	require.NoError(t, err)

	return &serviceFixture{
		db:        db,
		publisher: publisher,
		presence:  presence,
		queue:     queue,
		prefs:     prefs,
		templates: templates,
		svc:       svc,
	}
}

func (f *serviceFixture) seedUser(t *testing.T, email string) string {
	t.Helper()
	user := &models.User{Email: email, Name: "Test User", Role: "candidate"}
	require.NoError(t, f.db.Create(user).Error)
	return user.ID
}
