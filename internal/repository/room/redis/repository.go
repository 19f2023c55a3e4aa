package redis

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 10

type repo struct {
	rc         *redis.Client
	roomExp    time.Duration
	maxRetries int
	logger     *slog.Logger
}

func NewRepo(rc *redis.Client, roomExp time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:         rc,
		roomExp:    roomExp,
		maxRetries: maxUpdateRetries,
		logger:     logger,
	}
}
