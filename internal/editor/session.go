package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/locvowork/pawsheets/pkg/sheet"
)

// DefaultDelay is the autosave quiet period.
const DefaultDelay = 2 * time.Second

// ErrClosed is returned for operations on a session that has been torn down.
var ErrClosed = errors.New("editing session closed")

// Saver persists a worksheet snapshot.
type Saver interface {
	Save(ctx context.Context, ws sheet.Worksheet) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, ws sheet.Worksheet) error

func (f SaverFunc) Save(ctx context.Context, ws sheet.Worksheet) error { return f(ctx, ws) }

// Option configures a Session.
type Option func(*Session)

// WithDelay sets the autosave quiet period.
func WithDelay(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithSaveErrorHandler is called when a debounced save fails.
func WithSaveErrorHandler(fn func(error)) Option {
	return func(s *Session) {
		s.onSaveError = fn
	}
}

// Session owns the in-memory copy of one worksheet while it is being edited.
// Every successful mutation restarts a single autosave timer; only the save
// scheduled by the last mutation of a quiet period runs.
type Session struct {
	origin      string
	delay       time.Duration
	saver       Saver
	onSaveError func(error)

	mu      sync.Mutex
	ws      sheet.Worksheet
	timer   *time.Timer
	seq     uint64
	pending bool
	closed  bool
	lastErr error

	saveMu   sync.Mutex
	savedSeq uint64
}

// NewSession starts editing ws. origin identifies this session's writes.
func NewSession(origin string, ws sheet.Worksheet, saver Saver, opts ...Option) *Session {
	ws.Normalize()
	s := &Session{
		origin: origin,
		delay:  DefaultDelay,
		saver:  saver,
		ws:     ws.Clone(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Origin() string { return s.origin }

// Snapshot returns a copy of the current worksheet.
func (s *Session) Snapshot() sheet.Worksheet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.Clone()
}

// Apply runs fn against a copy of the worksheet. On success the copy becomes
// the session state and an autosave is scheduled; on error nothing changes.
func (s *Session) Apply(fn func(ws *sheet.Worksheet) error) (sheet.Worksheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return sheet.Worksheet{}, ErrClosed
	}

	next := s.ws.Clone()
	if err := fn(&next); err != nil {
		return s.ws.Clone(), err
	}
	s.ws = next
	s.scheduleLocked()
	return s.ws.Clone(), nil
}

func (s *Session) scheduleLocked() {
	s.stopLocked()
	s.seq++
	seq := s.seq
	s.pending = true
	s.timer = time.AfterFunc(s.delay, func() { s.fire(seq) })
}

func (s *Session) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = false
}

func (s *Session) fire(seq uint64) {
	s.mu.Lock()
	if s.closed || seq != s.seq {
		s.mu.Unlock()
		return
	}
	snap := s.ws.Clone()
	s.timer = nil
	s.pending = false
	s.mu.Unlock()

	if err := s.save(context.Background(), seq, snap); err != nil && s.onSaveError != nil {
		s.onSaveError(err)
	}
}

// save writes snap unless a newer snapshot has already been written.
func (s *Session) save(ctx context.Context, seq uint64, snap sheet.Worksheet) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if seq < s.savedSeq {
		return nil
	}
	err := s.saver.Save(ctx, snap)

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.savedSeq = seq
	return nil
}

// Flush cancels the pending autosave and saves immediately.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.stopLocked()
	s.seq++
	seq := s.seq
	snap := s.ws.Clone()
	s.mu.Unlock()

	return s.save(ctx, seq, snap)
}

// Pending reports whether an autosave is scheduled.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// LastError is the result of the most recent save attempt.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ReplaceFromRemote swaps in a worksheet written elsewhere. The incoming
// record wins: local state is replaced and any pending autosave is dropped.
func (s *Session) ReplaceFromRemote(ws sheet.Worksheet) {
	ws.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopLocked()
	s.seq++
	s.ws = ws.Clone()
}

// Close tears the session down and cancels a pending autosave. It reports
// whether a pending save was discarded.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	discarded := s.pending
	s.stopLocked()
	s.seq++
	s.closed = true
	return discarded
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
