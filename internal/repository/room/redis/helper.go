package redis

import (
	"encoding/json"
	"fmt"

	"github.com/sharetube/listen/internal/domain"
)

func (r repo) getRoomKey(code string) string {
	return "room:" + code
}

func (r repo) decodeRoom(data []byte) (domain.Room, error) {
	var rm domain.Room
	if err := json.Unmarshal(data, &rm); err != nil {
		return domain.Room{}, fmt.Errorf("failed to decode room: %w", err)
	}

	return rm, nil
}
