package services

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/arman306/storyloop/backend/internal/models"
	"github.com/arman306/storyloop/backend/internal/moderation"
	"github.com/arman306/storyloop/backend/internal/repositories"
	"github.com/arman306/storyloop/backend/internal/storage"
)

// fakeStoryRepo is an in-memory StoryRepository mirroring the document
// store's semantics closely enough for service tests.
type fakeStoryRepo struct {
	mu      sync.Mutex
	stories map[string]*models.Story

	createErr error
}

func newFakeStoryRepo() *fakeStoryRepo {
	return &fakeStoryRepo{stories: make(map[string]*models.Story)}
}

func (r *fakeStoryRepo) CreateStory(ctx context.Context, story *models.Story) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if story.CreatedAt.IsZero() {
		story.CreatedAt = time.Now()
	}
	story.ExpiresAt = story.CreatedAt.Add(models.StoryTTL)
	if story.ViewerIDs == nil {
		story.ViewerIDs = []string{}
	}
	if story.Likes == nil {
		story.Likes = []string{}
	}
	cp := *story
	r.stories[story.ID] = &cp
	return nil
}

func (r *fakeStoryRepo) GetStoryByID(ctx context.Context, id string) (*models.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	story, ok := r.stories[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *story
	return &cp, nil
}

func (r *fakeStoryRepo) GetActiveStories(ctx context.Context) ([]models.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Story
	for _, s := range r.stories {
		if s.ExpiresAt.After(time.Now()) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeStoryRepo) GetUserStories(ctx context.Context, ownerID string) ([]models.Story, error) {
	all, _ := r.GetActiveStories(ctx)
	var out []models.Story
	for _, s := range all {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeStoryRepo) GetExpiredStories(ctx context.Context) ([]models.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Story
	for _, s := range r.stories {
		if !s.ExpiresAt.After(time.Now()) && !s.IsHighlighted {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeStoryRepo) DeleteStory(ctx context.Context, id, requesterID string) (*models.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	story, ok := r.stories[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if story.OwnerID != requesterID {
		return nil, repositories.ErrNotAuthorized
	}
	delete(r.stories, id)
	return story, nil
}

func (r *fakeStoryRepo) RecordView(ctx context.Context, storyID, viewerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	story, ok := r.stories[storyID]
	if !ok {
		return false, repositories.ErrNotFound
	}
	if story.HasViewer(viewerID) {
		return false, nil
	}
	story.ViewerIDs = append(story.ViewerIDs, viewerID)
	story.ViewCount++
	return true, nil
}

func (r *fakeStoryRepo) ToggleLike(ctx context.Context, storyID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	story, ok := r.stories[storyID]
	if !ok {
		return false, repositories.ErrNotFound
	}
	for i, id := range story.Likes {
		if id == userID {
			story.Likes = append(story.Likes[:i], story.Likes[i+1:]...)
			story.LikesCount--
			return false, nil
		}
	}
	story.Likes = append(story.Likes, userID)
	story.LikesCount++
	return true, nil
}

func (r *fakeStoryRepo) SetHighlighted(ctx context.Context, storyID, highlightID string, highlighted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	story, ok := r.stories[storyID]
	if !ok {
		return repositories.ErrNotFound
	}
	story.IsHighlighted = highlighted
	story.HighlightID = highlightID
	return nil
}

func (r *fakeStoryRepo) ListMediaObjects(ctx context.Context) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]struct{})
	for _, s := range r.stories {
		out[s.MediaObject] = struct{}{}
		if s.ThumbnailObject != "" {
			out[s.ThumbnailObject] = struct{}{}
		}
	}
	return out, nil
}

// fakeMediaStore keeps blobs in memory and counts calls.
type fakeMediaStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	mtimes  map[string]time.Time
	removed []string
	putErr  error
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{
		objects: make(map[string][]byte),
		mtimes:  make(map[string]time.Time),
	}
}

func (m *fakeMediaStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return "", m.putErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	m.objects[key] = buf.Bytes()
	m.mtimes[key] = time.Now()
	return "http://media.test/" + key, nil
}

func (m *fakeMediaStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.removed = append(m.removed, key)
	return nil
}

func (m *fakeMediaStore) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.ObjectInfo
	for key := range m.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, storage.ObjectInfo{Key: key, LastModified: m.mtimes[key]})
		}
	}
	return out, nil
}

func (m *fakeMediaStore) URL(key string) string {
	return "http://media.test/" + key
}

func (m *fakeMediaStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// fakeFilter blocks any text containing the configured needle.
type fakeFilter struct {
	mu       sync.Mutex
	blockOn  string
	err      error
	requests []string
}

func (f *fakeFilter) FilterContent(ctx context.Context, text, usage string) (*moderation.Verdict, error) {
	f.mu.Lock()
	f.requests = append(f.requests, text)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.blockOn != "" && bytes.Contains([]byte(text), []byte(f.blockOn)) {
		return &moderation.Verdict{
			ShouldBlock: true,
			Violations:  []string{"prohibited content"},
		}, nil
	}
	return &moderation.Verdict{IsClean: true}, nil
}

type notification struct {
	eventType string
	from      string
	to        string
	payload   map[string]string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *fakeNotifier) Notify(ctx context.Context, eventType, fromUserID, toUserID string, payload map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{eventType: eventType, from: fromUserID, to: toUserID, payload: payload})
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *fakeNotifier) last() notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

type fakePublisher struct {
	mu    sync.Mutex
	calls int
}

func (p *fakePublisher) StoriesChanged(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
}

func (p *fakePublisher) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// fakeViewLog is the append-only view log.
type fakeViewLog struct {
	mu   sync.Mutex
	rows []models.StoryView
}

func (v *fakeViewLog) AppendView(storyID, viewerID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = append(v.rows, models.StoryView{StoryID: storyID, ViewerID: viewerID})
	return nil
}

func (v *fakeViewLog) CountViews(storyID string) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var n int64
	for _, row := range v.rows {
		if row.StoryID == storyID {
			n++
		}
	}
	return n, nil
}

type fakeCommentRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*models.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{nextID: 1, rows: make(map[uint]*models.Comment)}
}

func (r *fakeCommentRepo) CreateComment(comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = r.nextID
	r.nextID++
	cp := *comment
	r.rows[comment.ID] = &cp
	return nil
}

func (r *fakeCommentRepo) GetCommentByID(id uint) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCommentRepo) GetCommentsByStoryID(storyID string) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Comment
	for _, c := range r.rows {
		if c.StoryID == storyID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCommentRepo) DeleteComment(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type fakeHighlightRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Highlight
}

func newFakeHighlightRepo() *fakeHighlightRepo {
	return &fakeHighlightRepo{rows: make(map[string]*models.Highlight)}
}

func (r *fakeHighlightRepo) CreateHighlight(ctx context.Context, h *models.Highlight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *h
	r.rows[h.ID] = &cp
	return nil
}

func (r *fakeHighlightRepo) GetHighlightByID(ctx context.Context, id string) (*models.Highlight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (r *fakeHighlightRepo) GetHighlightsByOwner(ctx context.Context, ownerID string) ([]models.Highlight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Highlight
	for _, h := range r.rows {
		if h.OwnerID == ownerID {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (r *fakeHighlightRepo) AddStory(ctx context.Context, highlightID, storyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.rows[highlightID]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, id := range h.StoryIDs {
		if id == storyID {
			return nil
		}
	}
	h.StoryIDs = append(h.StoryIDs, storyID)
	return nil
}

func (r *fakeHighlightRepo) RemoveStory(ctx context.Context, highlightID, storyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.rows[highlightID]
	if !ok {
		return repositories.ErrNotFound
	}
	for i, id := range h.StoryIDs {
		if id == storyID {
			h.StoryIDs = append(h.StoryIDs[:i], h.StoryIDs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeHighlightRepo) DeleteHighlight(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// fakeThumbnailer writes a stub jpeg so the upload path can proceed.
type fakeThumbnailer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (t *fakeThumbnailer) CaptureFrame(ctx context.Context, videoPath, outPath string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	if t.err != nil {
		return t.err
	}
	return writeStubJPEG(outPath)
}

func (t *fakeThumbnailer) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}
