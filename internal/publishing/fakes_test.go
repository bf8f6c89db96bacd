package publishing

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"content-publisher/internal/database"
	"content-publisher/internal/database/models"
	"content-publisher/internal/lock"
	"content-publisher/internal/webhook"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Fakes ---

// memStore mirrors the Mongo repository: the due query is a string
// comparison on scheduledAt and MarkPublished never overwrites a stamp.
type memStore struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.ScheduledContent

	findErr error
	markErr map[primitive.ObjectID]error
	marks   int
}

func newMemStore(items ...models.ScheduledContent) *memStore {
	s := &memStore{
		items:   make(map[primitive.ObjectID]*models.ScheduledContent),
		markErr: make(map[primitive.ObjectID]error),
	}
	for i := range items {
		item := items[i]
		s.items[item.ID] = &item
	}
	return s
}

func (s *memStore) FindDue(_ context.Context, cutoff string) ([]models.ScheduledContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []models.ScheduledContent
	for _, item := range s.items {
		if item.Status != models.StatusPublished && item.ScheduledAt <= cutoff {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt < out[j].ScheduledAt })
	return out, nil
}

func (s *memStore) MarkPublished(_ context.Context, id primitive.ObjectID, publishedAt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.markErr[id]; err != nil {
		return err
	}
	item, ok := s.items[id]
	if !ok {
		return database.ErrContentNotFound
	}
	if item.Status == models.StatusPublished {
		return nil
	}
	item.Status = models.StatusPublished
	item.PublishedAt = publishedAt
	s.marks++
	return nil
}

func (s *memStore) CountUnpublished(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, item := range s.items {
		if item.Status != models.StatusPublished {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountPublishedSince(_ context.Context, since string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, item := range s.items {
		if item.Status == models.StatusPublished && item.PublishedAt >= since {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountScheduledAfter(_ context.Context, after string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, item := range s.items {
		if item.Status != models.StatusPublished && item.ScheduledAt > after {
			n++
		}
	}
	return n, nil
}

func (s *memStore) get(id primitive.ObjectID) models.ScheduledContent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.items[id]
}

// fakeSender answers with a fixed status per content ID, 200 by default.
type fakeSender struct {
	mu       sync.Mutex
	codes    map[string]int
	errs     map[string]error
	delay    time.Duration
	payloads []webhook.Payload
}

func newFakeSender() *fakeSender {
	return &fakeSender{codes: make(map[string]int), errs: make(map[string]error)}
}

func (f *fakeSender) Send(ctx context.Context, p webhook.Payload) (int, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	if err := f.errs[p.ContentID]; err != nil {
		return 0, err
	}
	code, ok := f.codes[p.ContentID]
	if !ok {
		code = 200
	}
	if code < 200 || code > 299 {
		return code, &webhook.StatusError{StatusCode: code}
	}
	return code, nil
}

func (f *fakeSender) sent() []webhook.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]webhook.Payload(nil), f.payloads...)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return n.err
}

type fakeLocker struct {
	acquired bool
	err      error
	released bool
}

func (l *fakeLocker) TryAcquire(context.Context) (lock.ReleaseFunc, bool, error) {
	if l.err != nil || !l.acquired {
		return nil, false, l.err
	}
	return func(context.Context) error {
		l.released = true
		return nil
	}, true, nil
}

var errStoreDown = errors.New("store down")

func content(platform, scheduledAt string) models.ScheduledContent {
	return models.ScheduledContent{
		ID:          primitive.NewObjectID(),
		Platform:    platform,
		Title:       platform + " post",
		DraftBody:   "body for " + platform,
		Status:      models.StatusDraft,
		ScheduledAt: scheduledAt,
		Owner:       "owner@example.com",
	}
}

type recordingHistory struct {
	mu      sync.Mutex
	entries []models.DispatchLog
	err     error
}

func (h *recordingHistory) LogDispatch(_ context.Context, entry models.DispatchLog) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
	return h.err
}

func (h *recordingHistory) byContent() map[string]models.DispatchLog {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]models.DispatchLog, len(h.entries))
	for _, e := range h.entries {
		out[e.ContentID] = e
	}
	return out
}
