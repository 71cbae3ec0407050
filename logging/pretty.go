package logging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"sync"
	"time"
)

// PrettyHandler writes each record as an indented JSON object. Groups nest
// as objects. It is meant for reading logs by eye, not for throughput.
type PrettyHandler struct {
	out       *lockedWriter
	level     slog.Leveler
	addSource bool

	// attrs holds WithAttrs values already nested under their groups.
	attrs  map[string]any
	groups []string
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	h := &PrettyHandler{out: &lockedWriter{w: w}, level: slog.LevelInfo, attrs: map[string]any{}}
	if opts != nil {
		if opts.Level != nil {
			h.level = opts.Level
		}
		h.addSource = opts.AddSource
	}
	return h
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	payload := cloneTree(h.attrs)
	when := r.Time
	if when.IsZero() {
		when = time.Now()
	}
	payload["time"] = when.Format(time.RFC3339Nano)
	payload["level"] = r.Level.String()
	payload["msg"] = r.Message
	if h.addSource && r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		payload["source"] = f.File + ":" + strconv.Itoa(f.Line)
	}

	dst := groupMap(payload, h.groups)
	r.Attrs(func(a slog.Attr) bool {
		put(dst, a)
		return true
	})

	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		b, _ = json.Marshal(map[string]string{
			"time": when.Format(time.RFC3339Nano), "level": r.Level.String(), "msg": r.Message,
		})
	}
	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	_, err = h.out.w.Write(append(b, '\n'))
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = cloneTree(h.attrs)
	dst := groupMap(clone.attrs, h.groups)
	for _, a := range attrs {
		put(dst, a)
	}
	return &clone
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func groupMap(root map[string]any, groups []string) map[string]any {
	dst := root
	for _, g := range groups {
		m, ok := dst[g].(map[string]any)
		if !ok {
			m = map[string]any{}
			dst[g] = m
		}
		dst = m
	}
	return dst
}

func put(dst map[string]any, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		group := v.Group()
		if len(group) == 0 {
			return
		}
		target := dst
		if a.Key != "" {
			target = groupMap(dst, []string{a.Key})
		}
		for _, ga := range group {
			put(target, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	switch v.Kind() {
	case slog.KindDuration:
		dst[a.Key] = v.Duration().String()
	case slog.KindTime:
		dst[a.Key] = v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			dst[a.Key] = err.Error()
		} else {
			dst[a.Key] = v.Any()
		}
	default:
		dst[a.Key] = v.Any()
	}
}

func cloneTree(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+4)
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			out[k] = cloneTree(sub)
		} else {
			out[k] = v
		}
	}
	return out
}
