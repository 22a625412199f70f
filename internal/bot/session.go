package bot

import (
	"sync"
	"sync/atomic"

	"github.com/mldwnk1488/soundcloudbot/internal/models"
	"github.com/mldwnk1488/soundcloudbot/internal/search"
)

// State is a user's position in the conversation flow.
type State int

const (
	StateIdle State = iota
	StateAwaitingLanguage
	StateAwaitingFormat
	StateAwaitingReplayConfirm
	StateSearchAwaitingQuery
	StateSearchShowingResults
)

// Session is one user's in-memory conversation state. Persistent facts
// (language, history) live in the store; the session only carries what
// the current flow needs.
//
// Handlers hold mu for the duration of one update, so a single user's
// flow runs serialized while different users proceed in parallel. The
// chat id is atomic so the processing goroutine can address a user
// without waiting behind a slow handler.
type Session struct {
	mu sync.Mutex

	State      State
	Language   string
	Pending    models.Job
	LastRecord models.DownloadRecord
	Search     *search.Session
	ResultsMsg int

	chat atomic.Int64
}

// Chat returns where to reach the user.
func (s *Session) Chat() int64 {
	return s.chat.Load()
}

func (s *Session) setChat(chatID int64) {
	s.chat.Store(chatID)
}

// Reset returns the session to idle, dropping any pending flow state
// but keeping the language and chat id.
func (s *Session) Reset() {
	s.State = StateIdle
	s.Pending = models.Job{}
	s.LastRecord = models.DownloadRecord{}
	s.Search = nil
	s.ResultsMsg = 0
}

// Sessions holds all live sessions keyed by user id.
type Sessions struct {
	mu sync.Mutex
	m  map[int64]*Session
}

// NewSessions returns an empty session registry.
func NewSessions() *Sessions {
	return &Sessions{m: make(map[int64]*Session)}
}

// Get returns the user's session, creating one on first contact.
func (s *Sessions) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[userID]
	if !ok {
		sess = &Session{}
		sess.chat.Store(userID)
		s.m[userID] = sess
	}
	return sess
}

// ChatFor returns where to reach the user. Safe to call from the
// processing goroutine while handlers run elsewhere.
func (s *Sessions) ChatFor(userID int64) int64 {
	s.mu.Lock()
	sess, ok := s.m[userID]
	s.mu.Unlock()
	if ok {
		if chat := sess.Chat(); chat != 0 {
			return chat
		}
	}
	return userID
}
