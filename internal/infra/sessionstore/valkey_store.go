package sessionstore

import (
	"context"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/atmosai/atmosai/internal/domain/auth"
)

// ValkeyStore records live sessions in a Valkey-compatible database so that
// logout revokes them across every instance.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "session"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// Save records a session ID with the owning user and a TTL matching the
// token expiry.
func (s *ValkeyStore) Save(ctx context.Context, sessionID string, userID int64, ttl time.Duration) error {
	builder := s.client.B().Set().Key(s.key(sessionID)).Value(strconv.FormatInt(userID, 10))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

// Get reports whether the session is still live and which user owns it.
func (s *ValkeyStore) Get(ctx context.Context, sessionID string) (int64, bool, error) {
	if sessionID == "" {
		return 0, false, nil
	}
	cmd := s.client.B().Get().Key(s.key(sessionID)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	userID, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return userID, true, nil
}

// Delete revokes the session.
func (s *ValkeyStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	cmd := s.client.B().Del().Key(s.key(sessionID)).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

var _ auth.SessionStore = (*ValkeyStore)(nil)
