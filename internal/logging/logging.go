/*
Copyright The Provisioner Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package logging

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
)

// DebugEnabledFunc is a function type that determines if debug logging is enabled
// We use a function because we want to check the setting at log time, not when the logger is created
type DebugEnabledFunc func() bool

// DebugCheckHandler checks settings.Debug at log time
type DebugCheckHandler struct {
	handler      slog.Handler
	debugEnabled DebugEnabledFunc
}

// Enabled implements slog.Handler.Enabled
func (h *DebugCheckHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level == slog.LevelDebug {
		if h.debugEnabled == nil {
			return false
		}
		return h.debugEnabled()
	}
	return true
}

// Handle implements slog.Handler.Handle
func (h *DebugCheckHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.WithAttrs
func (h *DebugCheckHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &DebugCheckHandler{
		handler:      h.handler.WithAttrs(attrs),
		debugEnabled: h.debugEnabled,
	}
}

// WithGroup implements slog.Handler.WithGroup
func (h *DebugCheckHandler) WithGroup(name string) slog.Handler {
	return &DebugCheckHandler{
		handler:      h.handler.WithGroup(name),
		debugEnabled: h.debugEnabled,
	}
}

// NewHandler creates the text handler used by the provisioner: no timestamps,
// debug records gated by debugEnabled at log time.
func NewHandler(out io.Writer, debugEnabled DebugEnabledFunc) slog.Handler {
	baseHandler := slog.NewTextHandler(out, &slog.HandlerOptions{
		// Filtering happens in DebugCheckHandler.
		Level: slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})

	return &DebugCheckHandler{
		handler:      baseHandler,
		debugEnabled: debugEnabled,
	}
}

// NewLogger creates a new logger with dynamic debug checking
func NewLogger(out io.Writer, debugEnabled DebugEnabledFunc) *slog.Logger {
	return slog.New(NewHandler(out, debugEnabled))
}

// LoggerSetterGetter is an interface that can set and get a logger
type LoggerSetterGetter interface {
	// SetLogger sets a new slog.Handler
	SetLogger(newHandler slog.Handler)
	// Logger returns the slog.Logger created from the slog.Handler
	Logger() *slog.Logger
}

// LogHolder is embedded by long-lived types that log. The zero value discards.
type LogHolder struct {
	logger atomic.Pointer[slog.Logger]
}

// Logger returns the logger for the LogHolder, or a discarding logger if none was set.
func (l *LogHolder) Logger() *slog.Logger {
	if lg := l.logger.Load(); lg != nil {
		return lg
	}
	return slog.New(slog.DiscardHandler)
}

// SetLogger sets the logger for the LogHolder. A nil handler discards.
func (l *LogHolder) SetLogger(newHandler slog.Handler) {
	if newHandler == nil {
		l.logger.Store(slog.New(slog.DiscardHandler))
		return
	}
	l.logger.Store(slog.New(newHandler))
}

var _ LoggerSetterGetter = &LogHolder{}
