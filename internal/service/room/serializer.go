package room

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

type job struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

type mailbox struct {
	jobs    chan job
	pending int
}

// serializer runs the jobs of each room one at a time, in submission order, on a goroutine owned
// by that room. The goroutine exits once the room's mailbox is empty.
type serializer struct {
	mu     sync.Mutex
	rooms  map[string]*mailbox
	logger *slog.Logger
}

func newSerializer(logger *slog.Logger) *serializer {
	return &serializer{
		rooms:  make(map[string]*mailbox),
		logger: logger,
	}
}

// do queues fn behind every job already submitted for code and waits for its result.
// If ctx ends first, do returns early and fn still runs.
func (s *serializer) do(ctx context.Context, code string, fn func(ctx context.Context) error) error {
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}

	s.mu.Lock()
	mb, ok := s.rooms[code]
	if !ok {
		mb = &mailbox{jobs: make(chan job, 64)}
		s.rooms[code] = mb
		go s.run(code, mb)
	}
	mb.pending++
	s.mu.Unlock()

	mb.jobs <- j

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *serializer) run(code string, mb *mailbox) {
	for j := range mb.jobs {
		j.done <- s.exec(code, j)

		s.mu.Lock()
		mb.pending--
		if mb.pending == 0 {
			delete(s.rooms, code)
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}
}

func (s *serializer) exec(code string, j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(j.ctx, "room job panicked", "code", code, "panic", r)
			err = fmt.Errorf("room job panicked: %v", r)
		}
	}()

	return j.fn(j.ctx)
}
