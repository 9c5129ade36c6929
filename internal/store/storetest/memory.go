// Package storetest provides an in-memory store.DocumentStore with
// synchronous snapshot fan-out, standing in for the real store in tests.
package storetest

import (
	"context"
	"sort"
	"sync"

	"github.com/Minpi-0/Health-Tracker/internal/store"

	"go.mongodb.org/mongo-driver/bson"
)

type subscriber struct {
	id      int
	pattern string // exact document path or collection path
	coll    store.CollectionCallback
	doc     store.DocumentCallback
}

// MemoryStore keeps documents in a map and echoes every mutation to
// matching subscribers before the mutating call returns. That makes the
// write-then-echo reconciliation loop deterministic in tests.
type MemoryStore struct {
	mu     sync.Mutex
	docs   map[string]bson.Raw
	subs   map[int]*subscriber
	nextID int

	// SetCalls counts whole-document writes, for idempotence assertions.
	SetCalls int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]bson.Raw),
		subs: make(map[int]*subscriber),
	}
}

func (m *MemoryStore) Set(_ context.Context, path string, value any) error {
	if store.ParentPath(path) == "" {
		return store.ErrInvalidPath
	}
	data, err := bson.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.docs[path] = bson.Raw(data)
	m.SetCalls++
	m.mu.Unlock()
	m.notify(path)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, path string, out any) error {
	m.mu.Lock()
	data, ok := m.docs[path]
	m.mu.Unlock()
	if !ok {
		return store.ErrNotFound
	}
	return bson.Unmarshal(data, out)
}

func (m *MemoryStore) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	delete(m.docs, path)
	m.mu.Unlock()
	m.notify(path)
	return nil
}

func (m *MemoryStore) List(_ context.Context, collectionPath string) ([]store.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listLocked(collectionPath), nil
}

func (m *MemoryStore) listLocked(collectionPath string) []store.Document {
	docs := make([]store.Document, 0)
	for path, data := range m.docs {
		if store.ParentPath(path) == collectionPath {
			docs = append(docs, store.Document{Path: path, Data: data})
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs
}

func (m *MemoryStore) ListAll(_ context.Context) ([]store.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := make([]store.Document, 0, len(m.docs))
	for path, data := range m.docs {
		docs = append(docs, store.Document{Path: path, Data: data})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

func (m *MemoryStore) SubscribeCollection(_ context.Context, collectionPath string, cb store.CollectionCallback) (store.Subscription, error) {
	sub := &subscriber{pattern: collectionPath, coll: cb}
	m.addSubscriber(sub)
	m.deliver(sub)
	return &memorySubscription{store: m, id: sub.id}, nil
}

func (m *MemoryStore) SubscribeDocument(_ context.Context, path string, cb store.DocumentCallback) (store.Subscription, error) {
	sub := &subscriber{pattern: path, doc: cb}
	m.addSubscriber(sub)
	m.deliver(sub)
	return &memorySubscription{store: m, id: sub.id}, nil
}

// SubscriberCount reports live subscriptions, for teardown assertions.
func (m *MemoryStore) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

func (m *MemoryStore) addSubscriber(sub *subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	sub.id = m.nextID
	m.subs[sub.id] = sub
}

// notify redelivers full snapshots to every subscriber affected by a
// mutation at path. Callbacks run without the lock held, so a callback may
// itself mutate the store (the registry seed write does exactly that).
func (m *MemoryStore) notify(path string) {
	m.mu.Lock()
	var affected []*subscriber
	for _, sub := range m.subs {
		if sub.pattern == path || (sub.coll != nil && sub.pattern == store.ParentPath(path)) {
			affected = append(affected, sub)
		}
	}
	m.mu.Unlock()
	for _, sub := range affected {
		m.deliver(sub)
	}
}

func (m *MemoryStore) deliver(sub *subscriber) {
	if sub.coll != nil {
		m.mu.Lock()
		docs := m.listLocked(sub.pattern)
		m.mu.Unlock()
		sub.coll(docs)
		return
	}
	m.mu.Lock()
	data, ok := m.docs[sub.pattern]
	m.mu.Unlock()
	if !ok {
		sub.doc(nil)
		return
	}
	sub.doc(&store.Document{Path: sub.pattern, Data: data})
}

type memorySubscription struct {
	store *MemoryStore
	id    int
}

func (s *memorySubscription) Unsubscribe() {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	delete(s.store.subs, s.id)
}
