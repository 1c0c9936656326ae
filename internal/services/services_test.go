package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/repositories"
)

// memPosts stands in for the Mongo post collection.
type memPosts struct {
	mu    sync.Mutex
	posts map[string]*models.Post
	clock time.Time
}

func newMemPosts() *memPosts {
	return &memPosts{posts: map[string]*models.Post{}, clock: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (m *memPosts) CreatePost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = m.clock.Add(time.Minute)
	post.ID = primitive.NewObjectID()
	post.CreatedAt = m.clock
	post.UpdatedAt = m.clock
	if post.Files == nil {
		post.Files = []string{}
	}
	cp := *post
	m.posts[post.ID.Hex()] = &cp
	return nil
}

func (m *memPosts) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPosts) GetPostsByIDs(_ context.Context, ids []string) (map[string]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*models.Post, len(ids))
	for _, id := range ids {
		if p, ok := m.posts[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *memPosts) sorted(match func(*models.Post) bool) []models.Post {
	var out []models.Post
	for _, p := range m.posts {
		if match(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func page[T any](items []T, skip, limit int64) []T {
	if skip >= int64(len(items)) {
		return []T{}
	}
	end := min(skip+limit, int64(len(items)))
	return items[skip:end]
}

func byAuthor(userID uint, audiences []models.Audience) func(*models.Post) bool {
	return func(p *models.Post) bool {
		if p.UserID != userID {
			return false
		}
		if audiences == nil {
			return true
		}
		for _, a := range audiences {
			if p.Audience == a {
				return true
			}
		}
		return false
	}
}

func (m *memPosts) GetPostsByUserID(_ context.Context, userID uint, audiences []models.Audience, skip, limit int64) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return page(m.sorted(byAuthor(userID, audiences)), skip, limit), nil
}

func (m *memPosts) CountPostsByUserID(_ context.Context, userID uint, audiences []models.Audience) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.sorted(byAuthor(userID, audiences)))), nil
}

func (m *memPosts) GetRecentPosts(_ context.Context, limit int64) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return page(m.sorted(func(*models.Post) bool { return true }), 0, limit), nil
}

func (m *memPosts) CountPosts(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.posts)), nil
}

func (m *memPosts) UpdatePost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[post.ID.Hex()]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Content = post.Content
	p.Audience = post.Audience
	p.Files = post.Files
	return nil
}

func (m *memPosts) DeletePost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *memPosts) IncrementCounter(_ context.Context, postID, field string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return repositories.ErrNotFound
	}
	var c *int
	switch field {
	case repositories.PostReactionsCount:
		c = &p.ReactionsCount
	case repositories.PostCommentsCount:
		c = &p.CommentsCount
	case repositories.PostSharesCount:
		c = &p.SharesCount
	default:
		return errors.New("unknown counter " + field)
	}
	*c = max(0, *c+delta)
	return nil
}

// memMessages stands in for the Mongo message collection.
type memMessages struct {
	mu   sync.Mutex
	msgs []models.Message
}

func (m *memMessages) CreateMessage(_ context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	m.msgs = append(m.msgs, *msg)
	return nil
}

func (m *memMessages) GetMessagesByConversation(_ context.Context, conversationID uint, skip, limit int64) ([]models.Message, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var newest []models.Message
	for i := len(m.msgs) - 1; i >= 0; i-- {
		if m.msgs[i].ConversationID == conversationID {
			newest = append(newest, m.msgs[i])
		}
	}
	p := append([]models.Message{}, page(newest, skip, limit)...)
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
	return p, int64(len(newest)), nil
}

func (m *memMessages) MarkConversationRead(_ context.Context, conversationID, recipientID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.msgs {
		msg := &m.msgs[i]
		if msg.ConversationID == conversationID && msg.RecipientID == recipientID && !msg.IsRead {
			msg.IsRead = true
			n++
		}
	}
	return n, nil
}

type emitted struct {
	UserID  uint
	Event   string
	Payload interface{}
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (r *recordingEmitter) EmitToUser(userID uint, event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{UserID: userID, Event: event, Payload: payload})
}

func (r *recordingEmitter) to(userID uint, event string) []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []interface{}
	for _, e := range r.events {
		if e.UserID == userID && e.Event == event {
			out = append(out, e.Payload)
		}
	}
	return out
}

type stubPresence map[uint]bool

func (s stubPresence) IsOnline(id uint) bool { return s[id] }

type memStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	n       int
	deleted []string
}

func (m *memStore) Save(_ context.Context, dir, name string, r io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.n++
	p := fmt.Sprintf("/uploads/%s/%d-%s", dir, m.n, name)
	m.files[p] = b
	return p, nil
}

func (m *memStore) Delete(_ context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, p)
	m.deleted = append(m.deleted, p)
	return nil
}

type testEnv struct {
	db            *gorm.DB
	users         *repositories.PostgresUserRepository
	follows       *repositories.PostgresFollowRepository
	shares        *repositories.PostgresShareRepository
	reactions     *repositories.PostgresReactionRepository
	comments      *repositories.PostgresCommentRepository
	notifications repositories.NotificationRepository
	conversations *repositories.PostgresConversationRepository
	posts         *memPosts
	messages      *memMessages
	emitter       *recordingEmitter
	notifier      *NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Follow{}, &models.Share{}, &models.Reaction{},
		&models.Comment{}, &models.Notification{}, &models.Conversation{},
	))

	e := &testEnv{
		db:            db,
		users:         repositories.NewPostgresUserRepository(db),
		follows:       repositories.NewPostgresFollowRepository(db),
		shares:        repositories.NewPostgresShareRepository(db),
		reactions:     repositories.NewPostgresReactionRepository(db),
		comments:      repositories.NewPostgresCommentRepository(db),
		notifications: repositories.NewPostgresNotificationRepository(db),
		conversations: repositories.NewPostgresConversationRepository(db),
		posts:         newMemPosts(),
		messages:      &memMessages{},
		emitter:       &recordingEmitter{},
	}
	e.notifier = NewNotificationService(e.notifications, e.users, e.emitter)
	return e
}

func (e *testEnv) user(t *testing.T, name string) models.User {
	t.Helper()
	u := models.User{Name: name, Username: name, Email: name + "@bubbly.test"}
	require.NoError(t, e.users.CreateUser(context.Background(), &u))
	return u
}

// follow makes follower follow following.
func (e *testEnv) follow(t *testing.T, follower, following uint) {
	t.Helper()
	require.NoError(t, e.follows.CreateFollow(context.Background(), follower, following))
}

func (e *testEnv) post(t *testing.T, author uint, audience models.Audience, content string) *models.Post {
	t.Helper()
	p := &models.Post{UserID: author, Content: &content, Audience: audience}
	require.NoError(t, e.posts.CreatePost(context.Background(), p))
	return p
}

func (e *testEnv) postService(store FileStore) *PostService {
	if store == nil {
		store = &memStore{}
	}
	return NewPostService(e.posts, e.shares, e.reactions, e.comments, e.users, e.follows, e.notifier, store)
}

func (e *testEnv) shareService() *ShareService {
	return NewShareService(e.shares, e.posts, e.reactions, e.comments, e.users, e.follows, e.notifier)
}

func (e *testEnv) reactionService() *ReactionService {
	return NewReactionService(e.posts, e.shares, e.follows, e.reactions, e.users, e.notifier)
}

func (e *testEnv) commentService() *CommentService {
	return NewCommentService(e.posts, e.shares, e.follows, e.comments, e.users, e.notifier)
}

func (e *testEnv) feedService() *FeedService {
	return NewFeedService(e.posts, e.shares, e.reactions, e.users, e.follows, nil)
}

func (e *testEnv) notificationCount(t *testing.T, recipient uint) int64 {
	t.Helper()
	_, total, err := e.notifications.GetByRecipientID(context.Background(), recipient, 0, 100)
	require.NoError(t, err)
	return total
}

func requireKind(t *testing.T, err error, kind error) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind)
}

func strPtr(s string) *string { return &s }

func upload(name, body string) Upload {
	return Upload{Filename: name, Content: bytes.NewBufferString(body)}
}
