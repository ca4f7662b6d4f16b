// Package sandbox holds the per-run system-interface state a whistle
// program sees: a virtual descriptor table over the standard streams, an
// environment snapshot, a monotonic clock and, once instantiation is done,
// the module's linear memory.
//
// A Context is created before the module exists and gets its memory in a
// second step (BindMemory). Every Context carries a fresh Identity and is
// never shared between runs.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"fortio.org/safecast"
	"github.com/google/uuid"
)

// Identity scopes one run. It is random and must not be stored or logged.
type Identity string

// NewIdentity returns a fresh random identity.
func NewIdentity() (Identity, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate identity: %w", err)
	}
	return Identity(id.String()), nil
}

// Standard descriptors.
const (
	Stdin uint32 = iota
	Stdout
	Stderr
)

// Errno values returned to the guest by write.
const (
	ErrnoBadf  int32 = -8
	ErrnoInval int32 = -28
)

var (
	// ErrMemoryFault is raised when the guest hands the host an address
	// range outside its linear memory.
	ErrMemoryFault = errors.New("memory access out of bounds")
	// ErrMemoryUnbound means a call arrived before BindMemory.
	ErrMemoryUnbound = errors.New("linear memory is not bound")
	// ErrMemoryBound means BindMemory was called twice.
	ErrMemoryBound = errors.New("linear memory is already bound")
	// ErrNoContext means a host function ran without a Context on its ctx.
	ErrNoContext = errors.New("no sandbox context")
	// ErrInvalidEnv reports a malformed environment entry.
	ErrInvalidEnv = errors.New("invalid environment entry")
)

// Memory is the part of a linear memory the sandbox needs.
type Memory interface {
	Read(offset, byteCount uint32) ([]byte, bool)
}

// Config describes the streams and environment of a run.
type Config struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Env entries in KEY=VALUE form. They are appended after the host
	// environment when InheritEnv is set; later entries win.
	Env        []string
	InheritEnv bool
}

type descriptor struct {
	name string
	r    io.Reader
	w    io.Writer
}

// Context is the system-interface state of one run. Its methods are safe
// for concurrent use, although a single guest only calls them from one
// goroutine.
type Context struct {
	id    Identity
	start time.Time
	env   []string

	mu  sync.Mutex
	fds map[uint32]*descriptor
	mem Memory
}

// New builds a Context for id. Nil streams are replaced by io.Discard or
// an empty reader.
func New(id Identity, cfg Config) (*Context, error) {
	if id == "" {
		return nil, errors.New("empty identity")
	}
	env, err := snapshotEnv(cfg)
	if err != nil {
		return nil, err
	}
	stdin := cfg.Stdin
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	return &Context{
		id:    id,
		start: time.Now(),
		env:   env,
		fds: map[uint32]*descriptor{
			Stdin:  {name: "stdin", r: stdin},
			Stdout: {name: "stdout", w: stdout},
			Stderr: {name: "stderr", w: stderr},
		},
	}, nil
}

func snapshotEnv(cfg Config) ([]string, error) {
	var entries []string
	if cfg.InheritEnv {
		entries = append(entries, os.Environ()...)
	}
	entries = append(entries, cfg.Env...)

	index := make(map[string]int, len(entries))
	out := make([]string, 0, len(entries))
	for _, kv := range entries {
		key, _, ok := strings.Cut(kv, "=")
		if !ok || key == "" || strings.ContainsRune(kv, 0) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidEnv, kv)
		}
		if i, seen := index[key]; seen {
			out[i] = kv
			continue
		}
		index[key] = len(out)
		out = append(out, kv)
	}
	slices.Sort(out)
	return out, nil
}

// Identity returns the run identity.
func (c *Context) Identity() Identity { return c.id }

// Env returns a copy of the environment snapshot, sorted by key.
func (c *Context) Env() []string { return slices.Clone(c.env) }

// Stdout returns the writer behind descriptor 1.
func (c *Context) Stdout() io.Writer { return c.writer(Stdout) }

// Stderr returns the writer behind descriptor 2.
func (c *Context) Stderr() io.Writer { return c.writer(Stderr) }

// Stdin returns the reader behind descriptor 0.
func (c *Context) Stdin() io.Reader {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d := c.fds[Stdin]; d != nil {
		return d.r
	}
	return nil
}

func (c *Context) writer(fd uint32) io.Writer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d := c.fds[fd]; d != nil {
		return d.w
	}
	return nil
}

// BindMemory attaches the guest's linear memory. It must be called
// exactly once, after instantiation and before the entry point runs.
func (c *Context) BindMemory(m Memory) error {
	if m == nil {
		return errors.New("nil memory")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mem != nil {
		return ErrMemoryBound
	}
	c.mem = m
	return nil
}

// Write copies n bytes at ptr to descriptor fd. It returns the number of
// bytes written, or a negative errno for descriptor problems. A non-nil
// error is a fault the run cannot continue from.
func (c *Context) Write(fd, ptr, n uint32) (int32, error) {
	c.mu.Lock()
	mem := c.mem
	d := c.fds[fd]
	c.mu.Unlock()

	if mem == nil {
		return 0, ErrMemoryUnbound
	}
	buf, ok := mem.Read(ptr, n)
	if !ok {
		return 0, fmt.Errorf("%w: write(%d, %d, %d)", ErrMemoryFault, fd, ptr, n)
	}
	if d == nil || d.w == nil {
		return ErrnoBadf, nil
	}
	written, err := d.w.Write(buf)
	if err != nil {
		return ErrnoInval, nil
	}
	count, err := safecast.Conv[int32](written)
	if err != nil {
		panic(fmt.Errorf("write count overflow: %w", err))
	}
	return count, nil
}

// PrintI32 writes v and a newline to stdout.
func (c *Context) PrintI32(v int32) {
	w := c.Stdout()
	if w == nil {
		return
	}
	_, _ = io.WriteString(w, strconv.FormatInt(int64(v), 10)+"\n")
}

// ClockMs returns the milliseconds elapsed since the Context was created,
// measured on the monotonic clock and saturated at the i32 range.
func (c *Context) ClockMs() int32 {
	ms := time.Since(c.start).Milliseconds()
	v, err := safecast.Conv[int32](ms)
	if err != nil {
		return 1<<31 - 1
	}
	return v
}

// Close drops the descriptor table and memory binding.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fds = nil
	c.mem = nil
}

type ctxKey struct{}

// WithContext returns a context carrying sc for host functions.
func WithContext(ctx context.Context, sc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, sc)
}

// FromContext returns the Context stored by WithContext.
func FromContext(ctx context.Context) (*Context, error) {
	sc, ok := ctx.Value(ctxKey{}).(*Context)
	if !ok || sc == nil {
		return nil, ErrNoContext
	}
	return sc, nil
}
