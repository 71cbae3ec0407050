package agent

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/brensch/snakepit/game"
)

func spawnScript(t *testing.T, script string, opts Options) *Channel {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	ch, err := Spawn(context.Background(), "test", "/bin/sh", []string{"-c", script}, opts)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	t.Cleanup(func() { ch.Close() })
	return ch
}

func recvWithin(ch *Channel, d time.Duration) (game.Direction, bool) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if dir, ok := ch.TryRecv(); ok {
			return dir, true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return 0, false
}

func TestChannel_EchoesDirection(t *testing.T) {
	ch := spawnScript(t, `while read line; do echo "$line"; done`, Options{})

	if _, ok := ch.TryRecv(); ok {
		t.Fatalf("reply before any message was sent")
	}
	if !ch.Send("East\n") {
		t.Fatalf("send refused")
	}
	d, ok := recvWithin(ch, 5*time.Second)
	if !ok || d != game.East {
		t.Fatalf("got=(%v,%v) want=(east,true)", d, ok)
	}
}

func TestChannel_IgnoresMalformedReplies(t *testing.T) {
	ch := spawnScript(t, `echo banana; echo; echo " W "; cat >/dev/null`, Options{})

	d, ok := recvWithin(ch, 5*time.Second)
	if !ok || d != game.West {
		t.Fatalf("got=(%v,%v) want=(west,true)", d, ok)
	}
}

func TestChannel_CloseKillsUnresponsiveAgent(t *testing.T) {
	ch := spawnScript(t, `trap '' TERM; sleep 30; sleep 30`, Options{Grace: 50 * time.Millisecond})

	start := time.Now()
	if err := ch.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("close took %v", elapsed)
	}
	if !ch.Exited() {
		t.Fatalf("process still running after close")
	}
	if ch.Send("1\n") {
		t.Fatalf("send accepted after close")
	}
}

func TestChannel_CloseLetsAgentExitOnEOF(t *testing.T) {
	ch := spawnScript(t, `cat >/dev/null`, Options{Grace: 10 * time.Second})

	start := time.Now()
	if err := ch.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("agent was not allowed to exit on its own, took %v", elapsed)
	}
}

func TestChannel_FullQueueDropsWholeMessages(t *testing.T) {
	// The agent never reads, so the pipe and then the queue fill up.
	ch := spawnScript(t, `sleep 30`, Options{QueueSize: 1, Grace: 50 * time.Millisecond})

	big := strings.Repeat("x", 1<<16) + "\n"
	sent := 0
	for i := 0; i < 16; i++ {
		if ch.Send(big) {
			sent++
		}
	}
	if ch.Dropped() == 0 {
		t.Fatalf("expected drops, sent=%d", sent)
	}
	if int64(sent)+ch.Dropped() != 16 {
		t.Fatalf("sent=%d dropped=%d want total 16", sent, ch.Dropped())
	}
}

func TestChannel_ForwardsStderr(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ch := spawnScript(t, `echo hello-from-agent >&2; cat >/dev/null`, Options{Logger: logger})
	ch.Close()
	if !strings.Contains(buf.String(), "hello-from-agent") {
		t.Fatalf("stderr not logged:\n%s", buf.String())
	}

	buf.Reset()
	quiet := spawnScript(t, `echo hush >&2; cat >/dev/null`, Options{Logger: logger, Silent: true})
	quiet.Close()
	if strings.Contains(buf.String(), "hush") {
		t.Fatalf("silent agent stderr logged:\n%s", buf.String())
	}
}

func TestSpawn_MissingExecutable(t *testing.T) {
	_, err := Spawn(context.Background(), "ghost", "/definitely/not/here", nil, Options{})
	if !errors.Is(err, ErrSpawn) {
		t.Fatalf("err=%v want ErrSpawn", err)
	}
}

func TestSpawnAll_FailsFast(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	chans, err := SpawnAll(context.Background(), []Command{
		{Name: "ok", Executable: "/bin/sh", Args: []string{"-c", "cat >/dev/null"}},
		{Name: "bad", Executable: "/definitely/not/here"},
	})
	if !errors.Is(err, ErrSpawn) || chans != nil {
		t.Fatalf("chans=%v err=%v", chans, err)
	}
}
