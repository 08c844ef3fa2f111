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

// Package notify delivers operator-facing messages. Delivery is fire and
// forget: a Notifier never blocks its caller and never reports failure.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Category classifies a message for display.
type Category int

const (
	CategoryInfo Category = iota
	CategoryWarning
	CategoryError
)

func (c Category) String() string {
	switch c {
	case CategoryWarning:
		return "warning"
	case CategoryError:
		return "error"
	default:
		return "info"
	}
}

// Message is one notification.
type Message struct {
	Text     string
	Category Category
	// Priority orders messages in sinks that can only show one. Higher wins.
	Priority int
	// Duration is how long a sink should keep the message visible.
	Duration time.Duration
}

// DefaultDuration is used for messages created with Info.
const DefaultDuration = 3 * time.Second

// Info returns an info message with default priority and duration.
func Info(text string) Message {
	return Message{Text: text, Category: CategoryInfo, Priority: 1, Duration: DefaultDuration}
}

// Notifier accepts messages.
type Notifier interface {
	Notify(Message)
}

// Func adapts a function to a Notifier.
type Func func(Message)

func (f Func) Notify(m Message) { f(m) }

// Discard drops every message.
var Discard Notifier = Func(func(Message) {})

// Writer prints messages to an io.Writer, one per line.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter returns a Notifier printing to out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Notify(m Message) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if m.Category == CategoryInfo {
		fmt.Fprintln(w.out, m.Text)
		return
	}
	fmt.Fprintf(w.out, "%s: %s\n", m.Category, m.Text)
}

// Logger forwards messages to a slog.Logger at a level matching the category.
type Logger struct {
	Log *slog.Logger
}

func (l Logger) Notify(m Message) {
	if l.Log == nil {
		return
	}
	level := slog.LevelInfo
	switch m.Category {
	case CategoryWarning:
		level = slog.LevelWarn
	case CategoryError:
		level = slog.LevelError
	}
	l.Log.Log(context.Background(), level, m.Text, "priority", m.Priority, "duration", m.Duration)
}

// Queue buffers messages for a consumer running elsewhere, such as a UI loop.
// Messages sent while the buffer is full are dropped and counted.
type Queue struct {
	ch      chan Message
	mu      sync.Mutex
	dropped int
}

// NewQueue creates a Queue holding up to size pending messages.
func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{ch: make(chan Message, size)}
}

func (q *Queue) Notify(m Message) {
	select {
	case q.ch <- m:
	default:
		q.mu.Lock()
		q.dropped++
		q.mu.Unlock()
	}
}

// C is the channel consumers receive from.
func (q *Queue) C() <-chan Message { return q.ch }

// Drain returns every pending message without blocking.
func (q *Queue) Drain() []Message {
	var out []Message
	for {
		select {
		case m := <-q.ch:
			out = append(out, m)
		default:
			return out
		}
	}
}

// Forward delivers queued messages to n from a separate goroutine until the
// returned stop func is called. stop delivers whatever is still pending and
// waits for the goroutine to exit.
func (q *Queue) Forward(n Notifier) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		for {
			select {
			case m := <-q.ch:
				n.Notify(m)
			case <-done:
				for _, m := range q.Drain() {
					n.Notify(m)
				}
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-exited
		})
	}
}

// Dropped reports how many messages were discarded because the queue was full.
func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Multi fans a message out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(msg Message) {
	for _, n := range m {
		if n != nil {
			n.Notify(msg)
		}
	}
}
