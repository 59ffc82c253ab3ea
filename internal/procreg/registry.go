// Package procreg supervises processes started with the "open" action.
//
// Every tracked child is reaped by its own goroutine so no zombies are left
// behind, and its exit code and end time are recorded. Exited entries are
// kept up to a retention limit so clients can still see how a process ended.
package procreg

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/xdg/consolex/internal/executor"
)

var (
	// ErrNotFound is returned for an unknown process ID.
	ErrNotFound = errors.New("process not found")
	// ErrExited is returned when signalling a process that already exited.
	ErrExited = errors.New("process has exited")
)

// State is the lifecycle state of a tracked process.
type State string

// Process states.
const (
	StateRunning State = "running"
	StateExited  State = "exited"
)

// Info is a point-in-time view of a tracked process.
type Info struct {
	ID        string     `json:"id"`
	PID       int        `json:"pid"`
	Args      []string   `json:"args"`
	State     State      `json:"state"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	ExitCode  *int       `json:"exit_code,omitempty"`
	Stats     *Stats     `json:"stats,omitempty"`
}

// ExitFunc is called after a tracked process has been reaped.
type ExitFunc func(info Info, runtime time.Duration)

type entry struct {
	info Info
	proc executor.Process
	done chan struct{}
}

// Registry tracks detached child processes. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   []string // IDs in start order

	retain int
	listed bool
	stats  StatsFunc
	onExit ExitFunc
	newID  func() string
	now    func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithRetainExited keeps at most n exited processes; the oldest are evicted
// first. n <= 0 drops exited processes as soon as they are reaped.
func WithRetainExited(n int) Option {
	return func(r *Registry) {
		r.retain = n
	}
}

// WithStats sets the function used to sample live stats of running
// processes. Pass nil to disable stats.
func WithStats(fn StatsFunc) Option {
	return func(r *Registry) {
		r.stats = fn
	}
}

// WithOnExit sets a callback invoked after each process is reaped.
func WithOnExit(fn ExitFunc) Option {
	return func(r *Registry) {
		r.onExit = fn
	}
}

// Unlisted makes the registry reap processes without keeping them in
// List or Get.
func Unlisted() Option {
	return func(r *Registry) {
		r.listed = false
	}
}

// New creates a Registry. By default every process is listed, 100 exited
// processes are retained and stats come from gopsutil.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		retain:  100,
		listed:  true,
		stats:   SampleStats,
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Track registers a started process and begins reaping it in the background.
// It returns the ID assigned to the process, or "" when the registry is
// Unlisted and the process cannot be looked up.
func (r *Registry) Track(proc executor.Process, args []string) string {
	var id string
	if r.listed {
		id = r.newID()
	}
	e := &entry{
		info: Info{
			ID:        id,
			PID:       proc.Pid(),
			Args:      slices.Clone(args),
			State:     StateRunning,
			StartedAt: r.now(),
		},
		proc: proc,
		done: make(chan struct{}),
	}

	r.mu.Lock()
	if r.listed {
		r.entries[e.info.ID] = e
		r.order = append(r.order, e.info.ID)
	}
	r.mu.Unlock()

	go r.reap(e)
	return e.info.ID
}

func (r *Registry) reap(e *entry) {
	code, _ := e.proc.Wait()
	ended := r.now()

	r.mu.Lock()
	e.info.State = StateExited
	e.info.EndedAt = &ended
	e.info.ExitCode = &code
	info := e.info
	r.evictLocked()
	r.mu.Unlock()

	close(e.done)

	if r.onExit != nil {
		r.onExit(info, ended.Sub(info.StartedAt))
	}
}

// evictLocked drops the oldest exited entries beyond the retention limit.
func (r *Registry) evictLocked() {
	exited := 0
	for _, id := range r.order {
		if r.entries[id].info.State == StateExited {
			exited++
		}
	}

	excess := exited - max(r.retain, 0)
	if excess <= 0 {
		return
	}

	kept := r.order[:0]
	for _, id := range r.order {
		if excess > 0 && r.entries[id].info.State == StateExited {
			delete(r.entries, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
}

// List returns all listed processes in start order.
func (r *Registry) List() []Info {
	r.mu.Lock()
	infos := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		infos = append(infos, r.entries[id].info)
	}
	r.mu.Unlock()

	for i := range infos {
		r.attachStats(&infos[i])
	}
	return infos
}

// Get returns the process with the given ID.
func (r *Registry) Get(id string) (Info, bool) {
	r.mu.Lock()
	e, ok := r.entries[id]
	var info Info
	if ok {
		info = e.info
	}
	r.mu.Unlock()

	if !ok {
		return Info{}, false
	}
	r.attachStats(&info)
	return info, true
}

// Done returns a channel that is closed once the process has been reaped.
// It returns nil for unknown IDs.
func (r *Registry) Done(id string) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e.done
	}
	return nil
}

// Signal sends sig to the process group of a running process.
func (r *Registry) Signal(id string, sig unix.Signal) (Info, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return Info{}, ErrNotFound
	}
	if e.info.State == StateExited {
		info := e.info
		r.mu.Unlock()
		return info, ErrExited
	}
	info := e.info

	// Held across the signal so reap cannot mark the entry exited between
	// the state check and the kill.
	defer r.mu.Unlock()
	if err := e.proc.Signal(sig); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return info, ErrExited
		}
		return info, err
	}
	return info, nil
}

// Running returns the number of listed processes that have not exited.
func (r *Registry) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, id := range r.order {
		if r.entries[id].info.State == StateRunning {
			n++
		}
	}
	return n
}

func (r *Registry) attachStats(info *Info) {
	if r.stats == nil || info.State != StateRunning {
		return
	}
	if s, err := r.stats(info.PID); err == nil {
		info.Stats = s
	}
}
