// Package replay writes and reads the flat replay log.
//
// Format, one record per line:
//
//	<width> <height> <food lifetime> <food value> <player count>
//	<id> <name>                          (one line per player)
//	<lifetime> <x> <y> ...               (food line, per resolved turn)
//	<id> <x> <y> [<x> <y>]*,...          (snake line, per resolved turn)
//
// Files ending in .zst are zstd compressed.
package replay

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/brensch/snakepit/game"
)

type PlayerInfo struct {
	ID   game.PlayerID
	Name string
}

type Header struct {
	Width, Height int
	FoodLifetime  int
	FoodValue     int
	Players       []PlayerInfo
}

// Writer appends one food line and one snake line per resolved turn. It is
// safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	closer io.Closer
	enc    *zstd.Encoder
	w      *bufio.Writer
	path   string
}

// FileName is <dir>/<timestamp>-<gameID>.rpl, with .zst appended when
// compressed.
func FileName(dir, gameID string, now time.Time, compress bool) string {
	name := fmt.Sprintf("%s-%s.rpl", now.UTC().Format("2006-01-02T15-04-05"), gameID)
	if compress {
		name += ".zst"
	}
	return filepath.Join(dir, name)
}

// Create opens a new replay file under dir and writes the header.
func Create(dir, gameID string, compress bool, h Header) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create replay dir: %w", err)
	}
	path := FileName(dir, gameID, time.Now(), compress)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	w, err := NewWriter(f, compress, h)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.path = path
	return w, nil
}

// NewWriter writes the header to dst. If dst is an io.Closer it is closed
// by Close.
func NewWriter(dst io.Writer, compress bool, h Header) (*Writer, error) {
	rw := &Writer{}
	if c, ok := dst.(io.Closer); ok {
		rw.closer = c
	}
	out := dst
	if compress {
		enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		rw.enc = enc
		out = enc
	}
	rw.w = bufio.NewWriterSize(out, 64*1024)

	fmt.Fprintf(rw.w, "%d %d %d %d %d\n", h.Width, h.Height, h.FoodLifetime, h.FoodValue, len(h.Players))
	for _, p := range h.Players {
		fmt.Fprintf(rw.w, "%d %s\n", p.ID, p.Name)
	}
	if err := rw.w.Flush(); err != nil {
		return nil, fmt.Errorf("write replay header: %w", err)
	}
	return rw, nil
}

// HeaderFor builds the header for a game about to start.
func HeaderFor(grid game.Grid, lifetime, value int, players []*game.Player) Header {
	h := Header{Width: grid.Width, Height: grid.Height, FoodLifetime: lifetime, FoodValue: value}
	for _, p := range players {
		h.Players = append(h.Players, PlayerInfo{ID: p.ID, Name: p.Name})
	}
	return h
}

func (w *Writer) Path() string { return w.path }

// Record writes one resolved turn.
func (w *Writer) Record(s game.Snapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return errors.New("replay writer closed")
	}

	buf := make([]byte, 0, 256)
	for i, f := range s.Food {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendInt(buf, int64(f.Lifetime), 10)
		buf = appendPoint(buf, f.Pos)
	}
	buf = append(buf, '\n')

	for _, p := range s.Players {
		if len(p.Body) == 0 {
			continue
		}
		buf = strconv.AppendInt(buf, int64(p.ID), 10)
		for _, c := range p.Body {
			buf = appendPoint(buf, c)
		}
		buf = append(buf, ',')
	}
	buf = append(buf, '\n')

	if _, err := w.w.Write(buf); err != nil {
		return fmt.Errorf("write replay turn %d: %w", s.Turn, err)
	}
	return w.w.Flush()
}

func appendPoint(buf []byte, p game.Point) []byte {
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(p.X), 10)
	buf = append(buf, ' ')
	return strconv.AppendInt(buf, int64(p.Y), 10)
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	var errs []error
	errs = append(errs, w.w.Flush())
	if w.enc != nil {
		errs = append(errs, w.enc.Close())
	}
	if w.closer != nil {
		errs = append(errs, w.closer.Close())
	}
	w.w = nil
	return errors.Join(errs...)
}
