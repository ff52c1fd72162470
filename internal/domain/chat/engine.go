package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a changed history is pushed.
const DefaultDebounce = 500 * time.Millisecond

// Options configures an Engine.
type Options struct {
	Debounce      time.Duration
	ResultLimit   int
	SerializeAsks bool
}

// Engine keeps per-project message lists in sync with the backend.
//
// Histories are pulled wholesale on activation and pushed wholesale,
// debounced, after every local change. Pushes are best effort: failures
// are logged and never retried.
type Engine struct {
	backend Backend
	logger  *slog.Logger
	opts    Options

	mu         sync.Mutex
	histories  map[string][]Message
	active     string
	generation uint64
	pending    map[string]*pendingWrite
	inflight   map[string]int
	askLocks   map[string]*sync.Mutex
	seq        uint64
	// timers counts scheduled pushes whose callback has not finished.
	timers int
	idle   *sync.Cond
}

type pendingWrite struct {
	timer *time.Timer
	seq   uint64
}

// NewEngine creates a new chat synchronization engine.
func NewEngine(backend Backend, logger *slog.Logger, opts Options) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	e := &Engine{
		backend:   backend,
		logger:    logger,
		opts:      opts,
		histories: make(map[string][]Message),
		pending:   make(map[string]*pendingWrite),
		inflight:  make(map[string]int),
		askLocks:  make(map[string]*sync.Mutex),
	}
	e.idle = sync.NewCond(&e.mu)
	return e
}

// Activate makes projectID the active chat and replaces its history with
// the backend copy. A failed fetch clears the history.
//
// A fetch that completes after a newer activation is discarded. When the
// history has unsent local changes, those messages are appended to the
// fetched copy and the merged list is pushed.
func (e *Engine) Activate(ctx context.Context, projectID string) ([]Message, error) {
	if projectID == "" {
		return nil, ErrNoProject
	}

	e.mu.Lock()
	e.active = projectID
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	fetched, err := e.backend.GetChat(ctx, projectID)

	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.generation {
		e.logger.Debug("stale chat fetch discarded", "project_id", projectID)
		return cloneMessages(e.histories[projectID]), nil
	}
	_, scheduled := e.pending[projectID]
	if scheduled || e.inflight[projectID] > 0 {
		if err != nil {
			// The stored copy is unknown, so pushing the local list could
			// truncate it.
			e.cancelPushLocked(projectID)
			e.logger.Error("fetching chat history failed, unsent messages not pushed", "project_id", projectID, "error", err)
			return cloneMessages(e.histories[projectID]), fmt.Errorf("fetching chat history: %w", err)
		}
		merged := mergeHistory(fetched, e.histories[projectID])
		e.histories[projectID] = merged
		e.schedulePushLocked(projectID)
		e.logger.Debug("unsent messages merged into fetched history", "project_id", projectID, "messages", len(merged))
		return cloneMessages(merged), nil
	}
	if err != nil {
		e.logger.Error("fetching chat history failed", "project_id", projectID, "error", err)
		e.histories[projectID] = []Message{}
		return []Message{}, fmt.Errorf("fetching chat history: %w", err)
	}

	e.histories[projectID] = cloneMessages(fetched)
	return cloneMessages(fetched), nil
}

// Ask appends the user's question, asks the backend, and appends the
// answer as a bot message. The user message is appended before the
// request is issued.
func (e *Engine) Ask(ctx context.Context, projectID, question string) (Message, error) {
	if projectID == "" {
		return Message{}, ErrNoProject
	}
	if strings.TrimSpace(question) == "" {
		return Message{}, ErrEmptyQuestion
	}

	if e.opts.SerializeAsks {
		lock := e.askLock(projectID)
		lock.Lock()
		defer lock.Unlock()
	}

	e.appendMessage(projectID, NewMessage(RoleUser, question))

	answer, err := e.backend.Ask(ctx, Question{
		ProjectID: projectID,
		Text:      question,
		Limit:     e.opts.ResultLimit,
	})
	if err != nil {
		e.logger.Error("asking question failed", "project_id", projectID, "error", err)
		return Message{}, fmt.Errorf("asking question: %w", err)
	}

	reply := NewMessage(RoleBot, answer)
	e.appendMessage(projectID, reply)
	return reply, nil
}

// Messages returns a copy of a project's history.
func (e *Engine) Messages(projectID string) []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneMessages(e.histories[projectID])
}

// Active returns the active chat project id.
func (e *Engine) Active() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Pending reports whether a project has a history write that has not been
// acknowledged yet.
func (e *Engine) Pending(projectID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, scheduled := e.pending[projectID]
	return scheduled || e.inflight[projectID] > 0
}

// Flush pushes every scheduled write now and waits for writes already
// running. Writes scheduled while flushing are pushed too.
func (e *Engine) Flush(ctx context.Context) {
	for {
		e.mu.Lock()
		due := make(map[string]uint64, len(e.pending))
		for projectID, pw := range e.pending {
			if pw.timer.Stop() {
				e.timers--
				due[projectID] = pw.seq
			}
		}
		if len(due) == 0 {
			if e.timers == 0 && len(e.pending) == 0 {
				e.mu.Unlock()
				return
			}
			e.idle.Wait()
			e.mu.Unlock()
			continue
		}
		e.mu.Unlock()

		for projectID, seq := range due {
			e.push(ctx, projectID, seq)
		}
	}
}

// Reset drops all histories and cancels scheduled writes.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for projectID := range e.pending {
		e.cancelPushLocked(projectID)
	}
	e.histories = make(map[string][]Message)
	e.active = ""
	e.generation++
}

func (e *Engine) appendMessage(projectID string, msg Message) {
	e.mu.Lock()
	defer e.mu.Unlock()

	history := e.histories[projectID]
	next := make([]Message, len(history), len(history)+1)
	copy(next, history)
	e.histories[projectID] = append(next, msg)
	e.schedulePushLocked(projectID)
}

func (e *Engine) schedulePushLocked(projectID string) {
	if pw, ok := e.pending[projectID]; ok && pw.timer.Stop() {
		e.timers--
	}

	e.seq++
	seq := e.seq
	e.timers++
	e.pending[projectID] = &pendingWrite{
		seq: seq,
		timer: time.AfterFunc(e.opts.Debounce, func() {
			e.push(context.Background(), projectID, seq)

			e.mu.Lock()
			e.timers--
			e.idle.Broadcast()
			e.mu.Unlock()
		}),
	}
	e.idle.Broadcast()
}

func (e *Engine) cancelPushLocked(projectID string) {
	pw, ok := e.pending[projectID]
	if !ok {
		return
	}
	if pw.timer.Stop() {
		e.timers--
	}
	delete(e.pending, projectID)
	e.idle.Broadcast()
}

func (e *Engine) push(ctx context.Context, projectID string, seq uint64) {
	e.mu.Lock()
	if pw, ok := e.pending[projectID]; ok && pw.seq == seq {
		delete(e.pending, projectID)
		e.idle.Broadcast()
	}
	snapshot := cloneMessages(e.histories[projectID])
	if len(snapshot) == 0 {
		e.mu.Unlock()
		return
	}
	e.inflight[projectID]++
	e.mu.Unlock()

	err := e.backend.UpdateChat(ctx, projectID, snapshot)

	e.mu.Lock()
	e.inflight[projectID]--
	if e.inflight[projectID] <= 0 {
		delete(e.inflight, projectID)
	}
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn("pushing chat history failed", "project_id", projectID, "messages", len(snapshot), "error", err)
		return
	}
	e.logger.Debug("chat history pushed", "project_id", projectID, "messages", len(snapshot))
}

func (e *Engine) askLock(projectID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.askLocks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		e.askLocks[projectID] = lock
	}
	return lock
}

// mergeHistory returns stored followed by the local messages it does not
// already contain.
func mergeHistory(stored, local []Message) []Message {
	seen := make(map[string]bool, len(stored))
	for _, m := range stored {
		seen[m.ID] = true
	}
	merged := cloneMessages(stored)
	for _, m := range local {
		if !seen[m.ID] {
			merged = append(merged, m)
		}
	}
	return merged
}

func cloneMessages(in []Message) []Message {
	out := make([]Message, len(in))
	copy(out, in)
	return out
}
