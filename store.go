package session

import "sync"

// Store holds the current Session for the whole client. It is created by the
// composition root and handed to every consumer that needs it.
type Store struct {
	mu          sync.RWMutex
	current     Session
	present     bool
	subscribers map[int]func(Session, bool)
	nextID      int
}

func NewStore() *Store {
	return &Store{
		subscribers: make(map[int]func(Session, bool)),
	}
}

// Current returns a copy of the session and whether one is present
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.present {
		return Session{}, false
	}
	return s.current, true
}

// Replace swaps the whole session
func (s *Store) Replace(sess Session) {
	s.mu.Lock()
	s.current = sess
	s.present = true
	subs := s.snapshotSubscribers()
	s.mu.Unlock()

	notify(subs, sess, true)
}

// Clear drops the session
func (s *Store) Clear() {
	s.mu.Lock()
	wasPresent := s.present
	s.current = Session{}
	s.present = false
	subs := s.snapshotSubscribers()
	s.mu.Unlock()

	if wasPresent {
		notify(subs, Session{}, false)
	}
}

// Subscribe registers fn to be called after every change. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(Session, bool)) func() {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) snapshotSubscribers() []func(Session, bool) {
	subs := make([]func(Session, bool), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Session, bool), sess Session, present bool) {
	for _, fn := range subs {
		fn(sess, present)
	}
}
