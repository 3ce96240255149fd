package canvas

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// CommitKind identifies what a commit writes.
type CommitKind string

const (
	CommitPosition CommitKind = "position"
	CommitScale    CommitKind = "scale"
	CommitDelete   CommitKind = "delete"
)

// DefaultCommitTimeout bounds a single store call.
const DefaultCommitTimeout = 10 * time.Second

// Persister is the store the bridge commits gesture results to.
type Persister interface {
	UpdateDevicePosition(ctx context.Context, deviceID string, xPercent, yPercent float64, floorplanID string) error
	UpdateDeviceScale(ctx context.Context, deviceID string, scale float64) error
	DeleteDevice(ctx context.Context, deviceID, floorplanID string) error
}

// Commit is one write issued at the end of a gesture.
type Commit struct {
	Seq         uint64     `json:"seq" msgpack:"seq"`
	Kind        CommitKind `json:"kind" msgpack:"kind"`
	DeviceID    string     `json:"deviceId" msgpack:"deviceId"`
	FloorplanID string     `json:"floorplanId,omitempty" msgpack:"floorplanId,omitempty"`
	XPercent    float64    `json:"xPercent,omitempty" msgpack:"xPercent,omitempty"`
	YPercent    float64    `json:"yPercent,omitempty" msgpack:"yPercent,omitempty"`
	Scale       float64    `json:"scale,omitempty" msgpack:"scale,omitempty"`
}

// CommitResult is the outcome of a commit. Err is nil on success.
type CommitResult struct {
	Commit
	Err        error         `json:"-" msgpack:"-"`
	Error      string        `json:"error,omitempty" msgpack:"error,omitempty"`
	DurationMs int64         `json:"durationMs" msgpack:"durationMs"`
	Duration   time.Duration `json:"-" msgpack:"-"`
}

// Pending tracks a submitted commit.
type Pending struct {
	Commit Commit
	done   chan struct{}
	result CommitResult
}

// Done is closed when the commit has completed.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the commit completes or ctx ends and returns the commit's error.
func (p *Pending) Wait(ctx context.Context) (CommitResult, error) {
	select {
	case <-p.done:
		return p.result, p.result.Err
	case <-ctx.Done():
		return CommitResult{Commit: p.Commit}, ctx.Err()
	}
}

// BridgeOptions configures a Bridge.
type BridgeOptions struct {
	// Serialize runs commits for the same device one after another in issue order.
	Serialize bool
	Timeout   time.Duration
	Logger    zerolog.Logger
	// OnResult is called from the commit goroutine for every commit that
	// completes before Close. It must not touch editor state.
	OnResult func(CommitResult)
}

// Bridge commits gesture results to a Persister without blocking the editor.
// Local state is updated by the caller before Submit and is never rolled back.
type Bridge struct {
	persister Persister
	opts      BridgeOptions
	seq       atomic.Uint64

	mu     sync.Mutex
	queues map[string][]*Pending
	closed bool
	wg     sync.WaitGroup
}

// NewBridge creates a bridge committing to p.
func NewBridge(p Persister, opts BridgeOptions) *Bridge {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultCommitTimeout
	}
	return &Bridge{
		persister: p,
		opts:      opts,
		queues:    make(map[string][]*Pending),
	}
}

// Submit starts a commit and returns immediately.
func (b *Bridge) Submit(c Commit) *Pending {
	c.Seq = b.seq.Add(1)
	p := &Pending{Commit: c, done: make(chan struct{})}

	b.wg.Add(1)
	commitsInFlight.Inc()

	if !b.opts.Serialize {
		go b.run(p)
		return p
	}

	b.mu.Lock()
	q, draining := b.queues[c.DeviceID]
	b.queues[c.DeviceID] = append(q, p)
	b.mu.Unlock()

	if !draining {
		go b.drain(c.DeviceID)
	}
	return p
}

// drain runs the queued commits of one device in FIFO order.
func (b *Bridge) drain(deviceID string) {
	for {
		b.mu.Lock()
		q := b.queues[deviceID]
		if len(q) == 0 {
			delete(b.queues, deviceID)
			b.mu.Unlock()
			return
		}
		p := q[0]
		b.queues[deviceID] = q[1:]
		b.mu.Unlock()

		b.run(p)
	}
}

func (b *Bridge) run(p *Pending) {
	defer b.wg.Done()
	defer commitsInFlight.Dec()

	ctx, cancel := context.WithTimeout(context.Background(), b.opts.Timeout)
	defer cancel()

	start := time.Now()
	err := b.apply(ctx, p.Commit)
	elapsed := time.Since(start)

	res := CommitResult{
		Commit:     p.Commit,
		Err:        err,
		Duration:   elapsed,
		DurationMs: elapsed.Milliseconds(),
	}
	outcome := "ok"
	if err != nil {
		res.Error = err.Error()
		outcome = "error"
		b.opts.Logger.Error().
			Err(err).
			Str("kind", string(p.Commit.Kind)).
			Str("device", p.Commit.DeviceID).
			Uint64("seq", p.Commit.Seq).
			Msg("Failed to commit device change")
	} else {
		b.opts.Logger.Debug().
			Str("kind", string(p.Commit.Kind)).
			Str("device", p.Commit.DeviceID).
			Uint64("seq", p.Commit.Seq).
			Dur("took", elapsed).
			Msg("Committed device change")
	}
	commitsTotal.WithLabelValues(string(p.Commit.Kind), outcome).Inc()
	commitDuration.WithLabelValues(string(p.Commit.Kind)).Observe(elapsed.Seconds())

	p.result = res
	close(p.done)

	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if !closed && b.opts.OnResult != nil {
		b.opts.OnResult(res)
	}
}

func (b *Bridge) apply(ctx context.Context, c Commit) error {
	switch c.Kind {
	case CommitPosition:
		return b.persister.UpdateDevicePosition(ctx, c.DeviceID, c.XPercent, c.YPercent, c.FloorplanID)
	case CommitScale:
		return b.persister.UpdateDeviceScale(ctx, c.DeviceID, c.Scale)
	case CommitDelete:
		return b.persister.DeleteDevice(ctx, c.DeviceID, c.FloorplanID)
	default:
		return fmt.Errorf("unknown commit kind %q", c.Kind)
	}
}

// Close detaches the bridge from its owner. Commits already in flight still
// reach the store but their results are dropped.
func (b *Bridge) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// Flush waits until every submitted commit has completed or ctx ends.
func (b *Bridge) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
