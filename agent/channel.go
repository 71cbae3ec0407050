package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brensch/snakepit/game"
)

// ErrSpawn wraps every failure to start an external agent.
var ErrSpawn = errors.New("agent: spawn failed")

const (
	DefaultGrace     = 500 * time.Millisecond
	DefaultQueueSize = 64
	inboundBuffer    = 1024
)

type Options struct {
	// Silent discards the agent's stderr instead of logging it.
	Silent bool
	// Grace is how long Close waits for the process to exit on its own
	// before killing it.
	Grace time.Duration
	// QueueSize bounds the outbound message queue.
	QueueSize int
	Logger    *slog.Logger
}

// Channel supervises one external agent process. A writer goroutine drains
// the outbound queue into stdin, a reader goroutine pushes stdout lines onto
// the inbound queue, and a third forwards stderr to the log. Send and
// TryRecv never block.
type Channel struct {
	name   string
	cmd    *exec.Cmd
	logger *slog.Logger
	grace  time.Duration

	mu       sync.Mutex
	closed   bool
	outbound chan string
	inbound  chan string
	done     chan struct{}
	exited   chan struct{}
	dropped  atomic.Int64

	pumps sync.WaitGroup
}

// Spawn starts executable with args and the I/O pumps around it. The
// process runs until Close; ctx only bounds startup.
func Spawn(ctx context.Context, name, executable string, args []string, opts Options) (*Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawn, name, err)
	}
	if opts.Grace <= 0 {
		opts.Grace = DefaultGrace
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("agent", name)

	cmd := exec.Command(executable, args...)
	setProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: stdin pipe: %w", ErrSpawn, name, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: stdout pipe: %w", ErrSpawn, name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: stderr pipe: %w", ErrSpawn, name, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: start %s: %w", ErrSpawn, name, executable, err)
	}

	c := &Channel{
		name:     name,
		cmd:      cmd,
		logger:   logger,
		grace:    opts.Grace,
		outbound: make(chan string, opts.QueueSize),
		inbound:  make(chan string, inboundBuffer),
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}

	c.pumps.Add(2)
	go c.writePump(stdin)
	go c.readPump(stdout)
	go c.errPump(stderr, opts.Silent)

	// Wait must not run before the readers are done with the pipes.
	go func() {
		c.pumps.Wait()
		err := cmd.Wait()
		logger.Debug("agent exited", "pid", cmd.Process.Pid, "err", err)
		close(c.exited)
	}()

	logger.Info("agent started", "pid", cmd.Process.Pid, "exe", executable)
	return c, nil
}

func (c *Channel) writePump(w io.WriteCloser) {
	defer w.Close()
	for msg := range c.outbound {
		if _, err := io.WriteString(w, msg); err != nil {
			// Broken pipe: keep draining so Send never sees a stuck queue.
			for range c.outbound {
			}
			return
		}
	}
}

func (c *Channel) readPump(r io.Reader) {
	defer c.pumps.Done()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case c.inbound <- strings.TrimSpace(sc.Text()):
		case <-c.done:
			// Keep reading to EOF so the process never blocks on a full pipe.
			for sc.Scan() {
			}
			return
		}
	}
}

func (c *Channel) errPump(r io.Reader, silent bool) {
	defer c.pumps.Done()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if !silent {
			c.logger.Info(sc.Text(), "stream", "stderr")
		}
	}
}

// Send queues msg for the writer pump. A full queue drops the whole message
// and reports false; messages are never split.
func (c *Channel) Send(msg string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.outbound <- msg:
		return true
	default:
		n := c.dropped.Add(1)
		c.logger.Warn("agent outbound queue full, message dropped", "dropped", n)
		return false
	}
}

// TryRecv pops at most one line from the agent and parses it as a
// direction. It reports false when nothing is queued or the line is not a
// direction token.
func (c *Channel) TryRecv() (game.Direction, bool) {
	select {
	case line := <-c.inbound:
		d, ok := game.ParseDirection(line)
		if !ok {
			c.logger.Debug("ignoring agent reply", "line", line)
		}
		return d, ok
	default:
		return 0, false
	}
}

// Exited reports whether the process has terminated.
func (c *Channel) Exited() bool {
	select {
	case <-c.exited:
		return true
	default:
		return false
	}
}

func (c *Channel) Dropped() int64 { return c.dropped.Load() }

// Close ends the agent. Stdin is closed so a well behaved agent can exit;
// after the grace period the whole process group is killed. Close is safe to
// call more than once.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		<-c.exited
		return nil
	}
	c.closed = true
	close(c.outbound)
	close(c.done)
	c.mu.Unlock()

	timer := time.NewTimer(c.grace)
	defer timer.Stop()
	select {
	case <-c.exited:
		return nil
	case <-timer.C:
	}

	c.logger.Warn("agent did not exit in time, killing", "grace", c.grace)
	err := killProcessGroup(c.cmd)
	<-c.exited
	if err != nil {
		return fmt.Errorf("kill agent %s: %w", c.name, err)
	}
	return nil
}
