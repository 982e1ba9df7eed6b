package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"github.com/lookbusy1344/ndiff/engine"
	"github.com/lookbusy1344/ndiff/ruleset"
)

var (
	// ErrSessionNotFound is returned when a session is not found.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionAlreadyExists is returned when trying to create a session with an existing ID.
	ErrSessionAlreadyExists = errors.New("session already exists")
)

// Session is one monitored comparison: the engine.State driving it, the
// files it reads, and the last status the driver loop reported. Unlike
// the teacher's Session, there is no control surface here (no load, step,
// breakpoint, or register-write endpoints) - the monitor only watches a
// comparison that runs to completion on its own.
type Session struct {
	ID        string
	St        *engine.State
	CreatedAt time.Time

	mu     sync.RWMutex
	state  string // "running", "done", "error"
	errMsg string

	lhsFile, rhsFile *os.File
}

// SessionManager tracks the comparisons a monitoring server is watching.
type SessionManager struct {
	sessions    map[string]*Session
	broadcaster *Broadcaster
	mu          sync.RWMutex
}

// NewSessionManager creates a new session manager.
func NewSessionManager(broadcaster *Broadcaster) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		broadcaster: broadcaster,
	}
}

// CreateSession opens the request's input and rule files, builds a
// comparison, and starts it running in the background, broadcasting a
// RowProgressEvent after every row.
func (sm *SessionManager) CreateSession(req SessionCreateRequest) (*Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	lhsFile, err := os.Open(req.LhsPath) // #nosec G304 -- client-specified comparison input
	if err != nil {
		return nil, err
	}

	rhsFile, err := os.Open(req.RhsPath) // #nosec G304 -- client-specified comparison input
	if err != nil {
		lhsFile.Close()
		return nil, err
	}

	table, err := loadRuleTable(req.RulesPath)
	if err != nil {
		lhsFile.Close()
		rhsFile.Close()
		return nil, err
	}

	st := engine.New(lhsFile, rhsFile, table, engine.Options{
		MaxKept: req.MaxDiffs,
		Blank:   req.Blank,
	})

	if sm.broadcaster != nil {
		st.Warn = log.New(NewEventWriter(sm.broadcaster, sessionID, "differences"), "", 0)
	}

	session := &Session{
		ID:        sessionID,
		St:        st,
		CreatedAt: time.Now(),
		state:     "running",
		lhsFile:   lhsFile,
		rhsFile:   rhsFile,
	}

	sm.mu.Lock()
	if _, exists := sm.sessions[sessionID]; exists {
		sm.mu.Unlock()
		lhsFile.Close()
		rhsFile.Close()
		return nil, ErrSessionAlreadyExists
	}
	sm.sessions[sessionID] = session
	sm.mu.Unlock()

	debugLog("session %s: started, lhs=%s rhs=%s", sessionID, req.LhsPath, req.RhsPath)

	go sm.run(session)

	return session, nil
}

// loadRuleTable mirrors the CLI's own -rules flag handling: no path means
// the exact-match default table.
func loadRuleTable(path string) (*ruleset.Table, error) {
	if path == "" {
		return ruleset.Default(), nil
	}
	text, err := os.ReadFile(path) // #nosec G304 -- client-specified rule file
	if err != nil {
		return nil, err
	}
	table, errs := ruleset.Parse(path, string(text))
	if errs.HasErrors() {
		return nil, errs
	}
	return table, nil
}

// run drives the comparison one row at a time, broadcasting a
// RowProgressEvent after every step until the inputs are exhausted or an
// error ends the run.
func (sm *SessionManager) run(session *Session) {
	defer session.lhsFile.Close()
	defer session.rhsFile.Close()

	for {
		done, err := session.St.StepRow(nil, nil)

		row, col, cnt, num := session.St.Info()
		if sm.broadcaster != nil {
			evt := RowProgressEvent{
				Row:             row,
				Col:             col,
				Differences:     cnt,
				NumbersCompared: num,
				Registers:       registerSnapshot(session.St.Reg),
			}
			sm.broadcaster.BroadcastState(session.ID, evt.toMap())
		}

		if err != nil {
			session.mu.Lock()
			session.state = "error"
			session.errMsg = err.Error()
			session.mu.Unlock()

			if sm.broadcaster != nil {
				sm.broadcaster.BroadcastExecutionEvent(session.ID, "error", map[string]interface{}{
					"message": err.Error(),
				})
			}
			return
		}

		if done {
			session.mu.Lock()
			session.state = "done"
			session.mu.Unlock()

			if sm.broadcaster != nil {
				sm.broadcaster.BroadcastExecutionEvent(session.ID, "done", map[string]interface{}{
					"differences": cnt,
				})
			}
			return
		}
	}
}

// Status reports a session's current state as a response DTO.
func (session *Session) Status() SessionStatusResponse {
	session.mu.RLock()
	state, errMsg := session.state, session.errMsg
	session.mu.RUnlock()

	row, col, cnt, num := session.St.Info()
	return SessionStatusResponse{
		SessionID:       session.ID,
		State:           state,
		Row:             row,
		Col:             col,
		Differences:     cnt,
		NumbersCompared: num,
		Error:           errMsg,
	}
}

// GetSession retrieves a session by ID.
func (sm *SessionManager) GetSession(sessionID string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// ListSessions returns a list of all session IDs.
func (sm *SessionManager) ListSessions() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of tracked sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return len(sm.sessions)
}

// generateSessionID generates a unique session ID.
func generateSessionID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
