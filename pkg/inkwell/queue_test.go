package inkwell

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/cperrin88/inkwell/pkg/errutils"
	"github.com/cperrin88/inkwell/pkg/font"
	"github.com/cperrin88/inkwell/pkg/operation"
)

// gatedResolver resolves every identifier, holding families listed in gates
// until their channel is closed.
type gatedResolver struct {
	gates   map[string]chan struct{}
	entered chan string
}

func (g *gatedResolver) Resolve(id font.Identifier) (string, bool) {
	if gate, ok := g.gates[id.Family]; ok {
		g.entered <- id.Family
		<-gate
	}
	return id.Key(), true
}

type staticRenderer struct{}

func (staticRenderer) Instantiate(string, float64) (xfont.Face, bool) {
	return basicfont.Face7x13, true
}

func newGatedOp(res *gatedResolver, family string, done func(operation.Result)) *operation.Operation {
	deps := operation.Deps{Resolver: res, Renderer: staticRenderer{}}
	return operation.New(font.Identifier{Family: family, Variant: font.Regular}, deps, operation.Options{Size: 12}, done)
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
}

func TestQueue_FIFO(t *testing.T) {
	gate := make(chan struct{})
	res := &gatedResolver{gates: map[string]chan struct{}{"f00": gate}, entered: make(chan string, 1)}
	q := NewQueue()
	defer q.Close()

	var (
		mu    sync.Mutex
		order []string
		wg    sync.WaitGroup
	)
	families := []string{"f00", "f01", "f02", "f03", "f04", "f05", "f06", "f07"}
	for _, fam := range families {
		wg.Add(1)
		op := newGatedOp(res, fam, func(r operation.Result) {
			mu.Lock()
			order = append(order, r.Identifier.Family)
			mu.Unlock()
			wg.Done()
		})
		require.NoError(t, q.Enqueue(op))
	}

	<-res.entered
	assert.Equal(t, len(families), q.Outstanding())
	close(gate)
	wg.Wait()

	assert.Equal(t, families, order)
	assert.Eventually(t, func() bool { return q.Outstanding() == 0 }, time.Second, 5*time.Millisecond)
}

func TestQueue_CancelledWhileQueuedNeverStarts(t *testing.T) {
	gate := make(chan struct{})
	res := &gatedResolver{gates: map[string]chan struct{}{"first": gate}, entered: make(chan string, 1)}
	q := NewQueue()
	defer q.Close()

	firstDone := make(chan struct{})
	require.NoError(t, q.Enqueue(newGatedOp(res, "first", func(operation.Result) { close(firstDone) })))
	<-res.entered

	var results []operation.Result
	second := newGatedOp(res, "second", func(r operation.Result) { results = append(results, r) })
	require.NoError(t, q.Enqueue(second))
	assert.Equal(t, 2, q.Outstanding())

	second.Cancel()
	require.Len(t, results, 1)
	assert.True(t, results[0].Cancelled)
	assert.Nil(t, results[0].Handle)
	assert.Equal(t, operation.StateCancelled, second.State())
	assert.Equal(t, 1, q.Outstanding())

	close(gate)
	waitFor(t, firstDone)
	assert.Eventually(t, func() bool { return q.Outstanding() == 0 }, time.Second, 5*time.Millisecond)
	assert.Len(t, results, 1)
}

func TestQueue_Close(t *testing.T) {
	gate := make(chan struct{})
	res := &gatedResolver{gates: map[string]chan struct{}{"running": gate}, entered: make(chan string, 1)}
	q := NewQueue()

	var (
		mu      sync.Mutex
		results = map[string][]operation.Result{}
	)
	record := func(r operation.Result) {
		mu.Lock()
		results[r.Identifier.Family] = append(results[r.Identifier.Family], r)
		mu.Unlock()
	}

	require.NoError(t, q.Enqueue(newGatedOp(res, "running", record)))
	<-res.entered
	require.NoError(t, q.Enqueue(newGatedOp(res, "queued-1", record)))
	require.NoError(t, q.Enqueue(newGatedOp(res, "queued-2", record)))

	closed := make(chan struct{})
	go func() {
		q.Close()
		close(closed)
	}()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(results["queued-1"]) == 1 && len(results["queued-2"]) == 1
	}, time.Second, 5*time.Millisecond)

	close(gate)
	waitFor(t, closed)

	mu.Lock()
	defer mu.Unlock()
	for _, fam := range []string{"queued-1", "queued-2"} {
		require.Len(t, results[fam], 1)
		assert.True(t, results[fam][0].Cancelled)
		assert.Nil(t, results[fam][0].Handle)
	}
	assert.Len(t, results["running"], 1)
	assert.Equal(t, 0, q.Outstanding())

	err := q.Enqueue(newGatedOp(res, "late", record))
	assert.ErrorIs(t, err, errutils.ErrQueueClosed)
}
