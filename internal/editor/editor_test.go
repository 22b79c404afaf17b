package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/pawsheets/internal/domain"
	"github.com/locvowork/pawsheets/internal/realtime"
	"github.com/locvowork/pawsheets/pkg/sheet"
)

const testDelay = 20 * time.Millisecond

type fakeStore struct {
	mu    sync.Mutex
	data  map[string]sheet.Worksheet
	saves []sheet.Worksheet
	err   error
}

func newFakeStore(ws ...sheet.Worksheet) *fakeStore {
	f := &fakeStore{data: make(map[string]sheet.Worksheet)}
	for _, w := range ws {
		f.data[w.ID] = w
	}
	return f
}

func (f *fakeStore) Load(_ context.Context, id string) (sheet.Worksheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ws, ok := f.data[id]
	if !ok {
		return sheet.Worksheet{}, domain.ErrNotFound
	}
	return ws.Clone(), nil
}

func (f *fakeStore) Save(_ context.Context, ws sheet.Worksheet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saves = append(f.saves, ws.Clone())
	f.data[ws.ID] = ws.Clone()
	return nil
}

func (f *fakeStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeStore) lastSave() sheet.Worksheet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves[len(f.saves)-1]
}

func worksheet(id string) sheet.Worksheet {
	ws := sheet.NewDefault("Pets")
	ws.ID = id
	return ws
}

func TestRapidEditsProduceOneSave(t *testing.T) {
	store := newFakeStore()
	s := NewSession("o1", worksheet("w1"), store, WithDelay(testDelay))

	for i := 0; i < 5; i++ {
		_, err := s.Apply(func(ws *sheet.Worksheet) error { return ws.SetCell(1, 1, "Fido") })
		require.NoError(t, err)
		_, err = s.Apply(func(ws *sheet.Worksheet) error { ws.AddRow(); return nil })
		require.NoError(t, err)
	}
	assert.True(t, s.Pending())

	require.Eventually(t, func() bool { return store.saveCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testDelay)
	assert.Equal(t, 1, store.saveCount())
	assert.Len(t, store.lastSave().Rows, sheet.DefaultRowCount+5)
	assert.False(t, s.Pending())
}

func TestCloseCancelsPendingSave(t *testing.T) {
	store := newFakeStore()
	s := NewSession("o1", worksheet("w1"), store, WithDelay(testDelay))

	_, err := s.Apply(func(ws *sheet.Worksheet) error { ws.AddColumn(); return nil })
	require.NoError(t, err)
	assert.True(t, s.Close())
	assert.False(t, s.Close())

	time.Sleep(3 * testDelay)
	assert.Equal(t, 0, store.saveCount())

	_, err = s.Apply(func(ws *sheet.Worksheet) error { ws.AddRow(); return nil })
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Flush(context.Background()), ErrClosed)
}

func TestFlushSavesNowAndCancelsTimer(t *testing.T) {
	store := newFakeStore()
	s := NewSession("o1", worksheet("w1"), store, WithDelay(testDelay))

	_, err := s.Apply(func(ws *sheet.Worksheet) error { return ws.SetCell(0, 1, "Name") })
	require.NoError(t, err)
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 1, store.saveCount())
	assert.Equal(t, "Name", store.lastSave().Rows[0][1].Value)

	time.Sleep(3 * testDelay)
	assert.Equal(t, 1, store.saveCount())
}

func TestRefusedMutationChangesNothing(t *testing.T) {
	store := newFakeStore()
	s := NewSession("o1", worksheet("w1"), store, WithDelay(testDelay))
	before := s.Snapshot()

	got, err := s.Apply(func(ws *sheet.Worksheet) error { return ws.DeleteColumn(0) })
	assert.ErrorIs(t, err, sheet.ErrRefused)
	assert.Equal(t, before, got)
	assert.Equal(t, before, s.Snapshot())
	assert.False(t, s.Pending())
}

func TestPartialFailureIsRolledBack(t *testing.T) {
	s := NewSession("o1", worksheet("w1"), newFakeStore(), WithDelay(testDelay))
	before := s.Snapshot()

	_, err := s.Apply(func(ws *sheet.Worksheet) error {
		ws.AddRow()
		return errors.New("halfway")
	})
	assert.Error(t, err)
	assert.Equal(t, before, s.Snapshot())
}

func TestSaveFailureIsReported(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("store unavailable")
	reported := make(chan error, 1)
	s := NewSession("o1", worksheet("w1"), store,
		WithDelay(testDelay),
		WithSaveErrorHandler(func(err error) { reported <- err }))

	_, err := s.Apply(func(ws *sheet.Worksheet) error { ws.AddRow(); return nil })
	require.NoError(t, err)

	select {
	case err := <-reported:
		assert.EqualError(t, err, "store unavailable")
	case <-time.After(time.Second):
		t.Fatal("save error was not reported")
	}
	assert.Error(t, s.LastError())
	assert.False(t, s.Pending())
}

func TestReplaceFromRemoteWins(t *testing.T) {
	store := newFakeStore()
	s := NewSession("o1", worksheet("w1"), store, WithDelay(testDelay))
	_, err := s.Apply(func(ws *sheet.Worksheet) error { return ws.SetCell(1, 1, "local") })
	require.NoError(t, err)

	remote := worksheet("w1")
	require.NoError(t, remote.SetCell(1, 1, "remote"))
	s.ReplaceFromRemote(remote)

	assert.Equal(t, "remote", s.Snapshot().Rows[1][1].Value)
	assert.False(t, s.Pending())
	time.Sleep(3 * testDelay)
	assert.Equal(t, 0, store.saveCount())
}

func TestManagerReusesSessions(t *testing.T) {
	store := newFakeStore(worksheet("w1"))
	m := NewManager(store, realtime.NewHub(), testDelay)

	a, err := m.Open(context.Background(), "w1")
	require.NoError(t, err)
	b, err := m.Open(context.Background(), "w1")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, m.Len())

	_, err = m.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManagerFollowsRemoteUpdates(t *testing.T) {
	store := newFakeStore(worksheet("w1"))
	hub := realtime.NewHub()
	m := NewManager(store, hub, testDelay)
	ctx := context.Background()

	s, err := m.Open(ctx, "w1")
	require.NoError(t, err)

	remote := worksheet("w1")
	require.NoError(t, remote.SetCell(2, 2, "from elsewhere"))
	hub.Publish(ctx, realtime.Event{WorksheetID: "w1", Origin: "another", Worksheet: remote})
	require.Eventually(t, func() bool {
		return s.Snapshot().Rows[2][2].Value == "from elsewhere"
	}, time.Second, 5*time.Millisecond)

	echo := worksheet("w1")
	hub.Publish(ctx, realtime.Event{WorksheetID: "w1", Origin: s.Origin(), Worksheet: echo})
	time.Sleep(3 * testDelay)
	assert.Equal(t, "from elsewhere", s.Snapshot().Rows[2][2].Value)

	hub.Publish(ctx, realtime.Event{WorksheetID: "w1", Origin: "another", Deleted: true})
	require.Eventually(t, func() bool { return m.Len() == 0 && s.Closed() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, hub.Subscribers("w1"))
}

func TestManagerPublishesSaves(t *testing.T) {
	store := newFakeStore(worksheet("w1"))
	hub := realtime.NewHub()
	m := NewManager(store, hub, testDelay)
	ctx := context.Background()

	feed, cancel := hub.Subscribe("w1")
	defer cancel()

	s, err := m.Open(ctx, "w1")
	require.NoError(t, err)
	_, err = s.Apply(func(ws *sheet.Worksheet) error { return ws.SetCell(1, 1, "Rex") })
	require.NoError(t, err)
	require.NoError(t, s.Flush(ctx))

	select {
	case ev := <-feed:
		assert.Equal(t, s.Origin(), ev.Origin)
		assert.Equal(t, "Rex", ev.Worksheet.Rows[1][1].Value)
	case <-time.After(time.Second):
		t.Fatal("no update published")
	}
}

func TestManagerCloseAndShutdown(t *testing.T) {
	store := newFakeStore(worksheet("w1"), worksheet("w2"))
	m := NewManager(store, realtime.NewHub(), time.Hour)
	ctx := context.Background()

	s1, err := m.Open(ctx, "w1")
	require.NoError(t, err)
	_, err = s1.Apply(func(ws *sheet.Worksheet) error { ws.AddRow(); return nil })
	require.NoError(t, err)
	assert.True(t, m.Close(ctx, "w1"))
	assert.False(t, m.Close(ctx, "w1"))
	assert.Equal(t, 0, store.saveCount())

	s2, err := m.Open(ctx, "w2")
	require.NoError(t, err)
	_, err = s2.Apply(func(ws *sheet.Worksheet) error { ws.AddRow(); return nil })
	require.NoError(t, err)
	m.Shutdown(ctx)
	assert.Equal(t, 1, store.saveCount())
	assert.Equal(t, "w2", store.lastSave().ID)
	assert.Equal(t, 0, m.Len())
}

func TestManagerEvictsIdleSessions(t *testing.T) {
	store := newFakeStore(worksheet("w1"), worksheet("w2"), worksheet("w3"))
	m := NewManager(store, realtime.NewHub(), time.Hour)
	ctx := context.Background()
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	s1, err := m.Open(ctx, "w1")
	require.NoError(t, err)
	_, err = s1.Apply(func(ws *sheet.Worksheet) error { ws.AddRow(); return nil })
	require.NoError(t, err)
	_, err = m.Open(ctx, "w2")
	require.NoError(t, err)

	clock = clock.Add(20 * time.Minute)
	_, err = m.Open(ctx, "w3")
	require.NoError(t, err)

	assert.Equal(t, 2, m.EvictIdle(ctx, 15*time.Minute))
	assert.Equal(t, 1, m.Len())
	assert.True(t, s1.Closed())
	require.Equal(t, 1, store.saveCount())
	assert.Equal(t, "w1", store.lastSave().ID)
	assert.Len(t, store.lastSave().Rows, sheet.DefaultRowCount+1)

	_, ok := m.Get("w3")
	assert.True(t, ok)
	m.Shutdown(ctx)
}

func TestManagerKeepsIdleSessionWhenSaveFails(t *testing.T) {
	store := newFakeStore(worksheet("w1"))
	m := NewManager(store, realtime.NewHub(), time.Hour)
	ctx := context.Background()

	s, err := m.Open(ctx, "w1")
	require.NoError(t, err)
	_, err = s.Apply(func(ws *sheet.Worksheet) error { ws.AddRow(); return nil })
	require.NoError(t, err)

	store.mu.Lock()
	store.err = errors.New("disk full")
	store.mu.Unlock()
	assert.Equal(t, 0, m.EvictIdle(ctx, 0))
	assert.Equal(t, 1, m.Len())
	assert.False(t, s.Closed())

	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()
	assert.Equal(t, 1, m.EvictIdle(ctx, 0))
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 1, store.saveCount())
}
