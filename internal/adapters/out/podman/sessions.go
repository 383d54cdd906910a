package podman

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/wrtpod/wrtpod/internal/domain"
	"github.com/wrtpod/wrtpod/pkg/logger"
)

// pullReader is the raw JSON event stream of an in-flight pull.
type pullReader = io.ReadCloser

// imagePuller opens a raw pull stream. *Client implements it; tests
// inject fakes.
type imagePuller interface {
	pullRaw(ctx context.Context, ref string) (pullReader, error)
}

// pullEvent is one JSON progress event of the compat pull stream.
type pullEvent struct {
	Status   string `json:"status"`
	ID       string `json:"id"`
	Progress string `json:"progress"`
	Error    string `json:"error"`
}

// pullSession buffers the rendered output of one pull so that pollers
// can read it incrementally.
type pullSession struct {
	mu       sync.Mutex
	buffer   strings.Builder
	complete bool
	success  bool
	cancel   context.CancelFunc
}

func (s *pullSession) append(line string) {
	s.mu.Lock()
	s.buffer.WriteString(line)
	s.mu.Unlock()
}

func (s *pullSession) finish(success bool) {
	s.mu.Lock()
	s.complete = true
	s.success = success
	s.mu.Unlock()
}

func (s *pullSession) snapshot(offset int) *domain.PullStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	output := s.buffer.String()
	if offset < 0 {
		offset = 0
	}
	if offset > len(output) {
		offset = len(output)
	}
	return &domain.PullStatus{
		Output:   output[offset:],
		Complete: s.complete,
		Success:  s.success,
	}
}

// SessionManager tracks server-side pull sessions keyed by UUID. Each
// session pulls in its own goroutine and accumulates rendered progress
// until a poller drains it past completion.
type SessionManager struct {
	puller   imagePuller
	mu       sync.Mutex
	sessions map[string]*pullSession
	log      *logger.Logger
}

func NewSessionManager(puller imagePuller) *SessionManager {
	return &SessionManager{
		puller:   puller,
		sessions: make(map[string]*pullSession),
		log:      logger.GetLogger(),
	}
}

// Start begins pulling ref and returns the session id.
func (m *SessionManager) Start(ctx context.Context, ref string) (string, error) {
	pullCtx, cancel := context.WithCancel(context.Background())

	reader, err := m.puller.pullRaw(pullCtx, ref)
	if err != nil {
		cancel()
		return "", err
	}

	id := uuid.New().String()
	session := &pullSession{cancel: cancel}

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	m.log.Debug("pull session started", "session", id, "image", ref)
	go m.run(session, reader, ref)

	return id, nil
}

// run drains the pull event stream into the session buffer.
func (m *SessionManager) run(session *pullSession, reader pullReader, ref string) {
	defer reader.Close()

	var failure string
	decoder := json.NewDecoder(bufio.NewReader(reader))
	for {
		var event pullEvent
		if err := decoder.Decode(&event); err != nil {
			if err != io.EOF {
				failure = err.Error()
			}
			break
		}
		if event.Error != "" {
			failure = event.Error
			session.append("error: " + event.Error + "\n")
			break
		}
		session.append(renderEvent(event))
	}

	if failure != "" {
		m.log.Warn("pull session failed", "image", ref, "error", failure)
		session.finish(false)
		return
	}
	session.finish(true)
}

func renderEvent(event pullEvent) string {
	if event.Status == "" {
		return ""
	}
	var b strings.Builder
	if event.ID != "" {
		b.WriteString(event.ID)
		b.WriteString(": ")
	}
	b.WriteString(event.Status)
	if event.Progress != "" {
		b.WriteString(" ")
		b.WriteString(event.Progress)
	}
	b.WriteString("\n")
	return b.String()
}

// Status reports session output from offset. Once a completed session
// has been fully drained it is forgotten.
func (m *SessionManager) Status(sessionID string, offset int) (*domain.PullStatus, error) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown pull session %s", sessionID)
	}

	status := session.snapshot(offset)
	if status.Complete {
		m.remove(sessionID)
	}
	return status, nil
}

// Stop cancels a session and forgets it.
func (m *SessionManager) Stop(sessionID string) error {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown pull session %s", sessionID)
	}

	session.cancel()
	m.remove(sessionID)
	m.log.Debug("pull session stopped", "session", sessionID)
	return nil
}

func (m *SessionManager) remove(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}
