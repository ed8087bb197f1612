package voice

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chartvoice/backend/internal/shared"
	"github.com/redis/go-redis/v9"
)

const sessionTTL = 24 * time.Hour

type SessionStatus string

const (
	StatusActive SessionStatus = "active"
	StatusEnded  SessionStatus = "ended"
	StatusError  SessionStatus = "error"
)

// SessionInfo is the registry entry for one voice session, kept in Redis so
// an operator can see what is live across instances.
type SessionInfo struct {
	ID           string        `json:"id"`
	Language     string        `json:"language"`
	Status       SessionStatus `json:"status"`
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      *time.Time    `json:"ended_at,omitempty"`
	FramesSent   int64         `json:"frames_sent"`
	ChunksPlayed int64         `json:"chunks_played"`
}

func (s *SessionInfo) redisKey() string {
	return "voice:session:" + s.ID
}

type Store struct {
	redis *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) Create(ctx context.Context, info *SessionInfo) error {
	if info.ID == "" {
		info.ID = shared.NewID("voice_")
	}
	info.Status = StatusActive
	info.StartedAt = time.Now()

	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, info.redisKey(), data, sessionTTL).Err()
}

func (s *Store) Get(ctx context.Context, id string) (*SessionInfo, error) {
	data, err := s.redis.Get(ctx, "voice:session:"+id).Bytes()
	if err == redis.Nil {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var info SessionInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *Store) Update(ctx context.Context, info *SessionInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, info.redisKey(), data, sessionTTL).Err()
}

// End marks the session finished and records its final counters.
func (s *Store) End(ctx context.Context, id string, status SessionStatus, framesSent, chunksPlayed int64) error {
	info, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now()
	info.Status = status
	info.EndedAt = &now
	info.FramesSent = framesSent
	info.ChunksPlayed = chunksPlayed
	return s.Update(ctx, info)
}

func (s *Store) ListActive(ctx context.Context) ([]*SessionInfo, error) {
	keys, err := s.redis.Keys(ctx, "voice:session:voice_*").Result()
	if err != nil {
		return nil, err
	}

	var sessions []*SessionInfo
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var info SessionInfo
		if err := json.Unmarshal(data, &info); err != nil {
			continue
		}
		if info.Status == StatusActive {
			sessions = append(sessions, &info)
		}
	}
	return sessions, nil
}
