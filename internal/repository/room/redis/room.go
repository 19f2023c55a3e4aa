package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/listen/internal/domain"
	"github.com/sharetube/listen/internal/repository/room"
)

func (r repo) CreateRoom(ctx context.Context, params *room.CreateRoomParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)

	data, err := json.Marshal(params.Room)
	if err != nil {
		return fmt.Errorf("failed to encode room: %w", err)
	}

	ok, err := r.rc.SetNX(ctx, r.getRoomKey(params.Room.Code), data, r.roomExp).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("failed to create room: %w", err)
	}

	if !ok {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomAlreadyExists)
		return room.ErrRoomAlreadyExists
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, code string) (domain.Room, error) {
	r.logger.DebugContext(ctx, "called", "code", code)

	data, err := r.rc.Get(ctx, r.getRoomKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Room{}, room.ErrRoomNotFound
		}

		r.logger.DebugContext(ctx, "returned", "error", err)
		return domain.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	return r.decodeRoom(data)
}

// UpdateRoom runs fn against the stored room inside an optimistic transaction and retries when the
// key changes between read and write. Errors from fn abort the update without writing.
func (r repo) UpdateRoom(ctx context.Context, code string, fn room.UpdateFunc) (domain.Room, error) {
	r.logger.DebugContext(ctx, "called", "code", code)

	key := r.getRoomKey(code)

	var result domain.Room
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return room.ErrRoomNotFound
			}

			return fmt.Errorf("failed to get room: %w", err)
		}

		rm, err := r.decodeRoom(data)
		if err != nil {
			return err
		}

		changed, err := fn(&rm)
		if err != nil {
			return err
		}

		result = rm
		if !changed {
			return nil
		}

		encoded, err := json.Marshal(rm)
		if err != nil {
			return fmt.Errorf("failed to encode room: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, r.roomExp)
			return nil
		})

		return err
	}

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		err := r.rc.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}

		if errors.Is(err, redis.TxFailedErr) {
			r.logger.DebugContext(ctx, "optimistic lock failed, retrying", "code", code, "attempt", attempt)
			continue
		}

		r.logger.DebugContext(ctx, "returned", "error", err)
		return domain.Room{}, err
	}

	return domain.Room{}, room.ErrTooManyRetries
}
