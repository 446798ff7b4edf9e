package memory

import (
	"context"
	"sync"

	"github.com/fastygo/taskflow/repository"
)

// ChangeFeed is an in-process change feed for single-node deployments and tests.
// Callbacks run on their own goroutine so publishers never block on subscribers.
type ChangeFeed struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func()
}

var _ repository.ChangeFeed = (*ChangeFeed)(nil)

func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{subs: make(map[string]map[int]func())}
}

func (f *ChangeFeed) Publish(_ context.Context, ownerID string) error {
	f.mu.Lock()
	callbacks := make([]func(), 0, len(f.subs[ownerID]))
	for _, fn := range f.subs[ownerID] {
		callbacks = append(callbacks, fn)
	}
	f.mu.Unlock()

	for _, fn := range callbacks {
		go fn()
	}
	return nil
}

func (f *ChangeFeed) Subscribe(_ context.Context, ownerID string, fn func()) (repository.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := f.nextID
	if f.subs[ownerID] == nil {
		f.subs[ownerID] = make(map[int]func())
	}
	f.subs[ownerID][id] = fn
	return &subscription{feed: f, owner: ownerID, id: id}, nil
}

// Subscribers returns the number of live subscriptions for an owner.
func (f *ChangeFeed) Subscribers(ownerID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[ownerID])
}

func (f *ChangeFeed) remove(ownerID string, id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs[ownerID], id)
	if len(f.subs[ownerID]) == 0 {
		delete(f.subs, ownerID)
	}
}

type subscription struct {
	feed  *ChangeFeed
	owner string
	id    int
	once  sync.Once
}

func (s *subscription) Close() error {
	s.once.Do(func() { s.feed.remove(s.owner, s.id) })
	return nil
}
