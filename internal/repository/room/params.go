package room

import "github.com/sharetube/listen/internal/domain"

type CreateRoomParams struct {
	Room domain.Room
}

// UpdateFunc mutates a room in place and reports whether the result has to be written back.
// It may run more than once when a concurrent writer wins the race.
type UpdateFunc func(r *domain.Room) (bool, error)
