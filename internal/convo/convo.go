// Package convo maintains bounded per-chat conversation histories.
//
// Histories are volatile and scoped to the process lifetime. Each chat
// identity (user, group, or room id) owns an ordered sequence of turns; the
// retained buffer is bounded at twice the history window, with the oldest
// turns evicted first.
package convo

import (
	"log/slog"
	"sync"

	"github.com/hsinyulin/finchat/internal/models"
)

// DefaultMaxHistoryLen is the number of recent turns sent to the chat backend.
const DefaultMaxHistoryLen = 10

// Store holds conversation histories keyed by chat identity.
type Store struct {
	mu            sync.RWMutex
	histories     map[string][]models.Turn
	chatLocks     map[string]*sync.Mutex
	maxHistoryLen int
}

// Option configures a Store.
type Option func(*Store)

// WithMaxHistoryLen overrides the history window length.
func WithMaxHistoryLen(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxHistoryLen = n
		}
	}
}

// NewStore creates an empty conversation store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		histories:     make(map[string][]models.Turn),
		chatLocks:     make(map[string]*sync.Mutex),
		maxHistoryLen: DefaultMaxHistoryLen,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxHistoryLen returns the configured history window length.
func (s *Store) MaxHistoryLen() int {
	return s.maxHistoryLen
}

// LockChat acquires the per-chat mutex and returns its unlock function.
// Callers serialize a chat's whole message handling with it so that append
// order matches arrival order; distinct chats proceed in parallel.
func (s *Store) LockChat(chatID string) func() {
	s.mu.Lock()
	lock, ok := s.chatLocks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		s.chatLocks[chatID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Get returns a snapshot of the chat's history, creating an empty history
// lazily on first use. The snapshot is a copy: later appends do not mutate it.
func (s *Store) Get(chatID string) []models.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot(s.histories[chatID])
}

// Append adds one turn to the chat's history and prunes the oldest turns
// beyond twice the history window.
func (s *Store) Append(chatID string, turn models.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.histories[chatID], turn)
	if limit := 2 * s.maxHistoryLen; len(history) > limit {
		evicted := len(history) - limit
		history = history[evicted:]
		slog.Debug("Store.Append: evicted oldest turns", "chatID", chatID, "evicted", evicted)
	}
	s.histories[chatID] = history
}

// RecentWindow returns a snapshot of the last n turns (or fewer when the
// history is shorter) in original order.
func (s *Store) RecentWindow(chatID string, n int) []models.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.histories[chatID]
	if n < len(history) {
		history = history[len(history)-n:]
	}
	return snapshot(history)
}

func snapshot(turns []models.Turn) []models.Turn {
	out := make([]models.Turn, len(turns))
	copy(out, turns)
	return out
}
