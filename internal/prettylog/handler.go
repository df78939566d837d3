// The code in this package is derivative of https://gitlab.com/greyxor/slogor.
// Mount of this source code is governed by a MIT license that can be found
// at https://gitlab.com/greyxor/slogor/-/blob/main/LICENSE?ref_type=heads.

// Package prettylog provides a color, single-line slog.Handler for local
// development, in place of the default JSON/text handlers meant for
// machine consumption.
package prettylog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/kestrel-route/kestrel/internal/ansi"
)

const (
	maxBufferSize     = 16 << 10
	initialBufferSize = 1024
)

var _ slog.Handler = (*Handler)(nil)

var logBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, initialBufferSize)
		return &b
	},
}

var timeFormat = fmt.Sprintf("%s %s", time.DateOnly, time.TimeOnly)

func freeBuf(b *[]byte) {
	if cap(*b) <= maxBufferSize {
		*b = (*b)[:0]
		logBufPool.Put(b)
	}
}

type groupOrAttrs struct {
	attr  slog.Attr
	group string
}

// Handler formats records as "[KESTREL] <time> | <level> | <message> | k=v ...",
// coloring the level and a handful of router-specific attribute keys
// (pattern, reason, dimension, leaf). Writes are synchronized so a handler
// can be shared across goroutines the way [Router] itself is.
type Handler struct {
	W   io.Writer
	Lvl slog.Leveler
	mu  *sync.Mutex
	goa []groupOrAttrs
}

// New returns a Handler writing to w at the given minimum level.
func New(w io.Writer, level slog.Level) *Handler {
	return &Handler{W: w, Lvl: level, mu: &sync.Mutex{}}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.Lvl.Level()
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	bufp := logBufPool.Get().(*[]byte)
	buf := *bufp

	defer func() {
		*bufp = buf
		freeBuf(bufp)
	}()

	buf = append(buf, "[KESTREL] "...)

	if !record.Time.IsZero() {
		buf = append(buf, ansi.Faint...)
		buf = append(buf, record.Time.Format(timeFormat)...)
		buf = append(buf, ansi.NormalIntensity...)
		buf = append(buf, " "...)
	}

	buf = append(buf, "| "...)
	buf = append(buf, levelColor(record.Level)...)
	buf = append(buf, record.Level.String()...)
	buf = append(buf, ansi.Reset...)
	buf = append(buf, " | "...)
	buf = append(buf, record.Message...)
	buf = append(buf, " | "...)

	lastGroup := ""
	for _, goa := range h.goa {
		if goa.group != "" {
			lastGroup += goa.group + "."
			continue
		}
		attr := goa.attr
		if lastGroup != "" {
			attr.Key = lastGroup + attr.Key
		}
		buf = appendAttr(buf, attr)
	}

	if record.NumAttrs() > 0 {
		record.Attrs(func(attr slog.Attr) bool {
			if lastGroup != "" {
				attr.Key = lastGroup + attr.Key
			}
			buf = appendAttr(buf, attr)
			return true
		})
	}

	if len(buf) > 0 && buf[len(buf)-1] == ' ' {
		buf[len(buf)-1] = '\n'
	} else {
		buf = append(buf, '\n')
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.W.Write(buf); err != nil {
		return fmt.Errorf("prettylog: write: %w", err)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]groupOrAttrs, len(attrs))
	for i, attr := range attrs {
		newAttrs[i] = groupOrAttrs{attr: attr}
	}
	return &Handler{W: h.W, Lvl: h.Lvl, mu: h.mu, goa: append(h.goa, newAttrs...)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{W: h.W, Lvl: h.Lvl, mu: h.mu, goa: append(h.goa, groupOrAttrs{group: name})}
}

func appendAttr(buf []byte, attr slog.Attr) []byte {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return buf
	}

	buf = append(buf, ansi.Faint...)
	buf = append(buf, ansi.Bold...)
	buf = append(buf, attr.Key...)
	buf = append(buf, "="...)
	buf = append(buf, ansi.NormalIntensity...)

	switch attr.Key {
	case "reason":
		buf = append(buf, ansi.FgRed...)
	case "pattern":
		buf = append(buf, ansi.FgYellow...)
	case "dimension":
		buf = append(buf, ansi.FgCyan...)
	case "leaf":
		buf = append(buf, ansi.FgMagenta...)
	default:
		buf = append(buf, ansi.FgCyan...)
	}
	buf = append(buf, attr.Value.String()...)
	buf = append(buf, ansi.Reset...)
	buf = append(buf, " "...)

	return buf
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansi.FgRed
	case level >= slog.LevelWarn:
		return ansi.FgYellow
	case level >= slog.LevelInfo:
		return ansi.FgGreen
	default:
		return ansi.FgMagenta
	}
}
