package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_Save(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, "")
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	s := &Session{Token: "abc", UserID: "u1", Username: "alice", ExpiresAt: now.Add(time.Hour)}
	payload, err := json.Marshal(s)
	require.NoError(t, err)

	mock.ExpectSet("todo:session:abc", string(payload), time.Hour).SetVal("OK")

	require.NoError(t, store.Save(context.Background(), s))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_SaveExpired(t *testing.T) {
	client, _ := redismock.NewClientMock()
	store := NewRedisStore(client, "")

	err := store.Save(context.Background(), &Session{Token: "abc", ExpiresAt: time.Now().Add(-time.Second)})
	assert.Error(t, err)
}

func TestRedisStore_Get(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, "app:")

	s := Session{Token: "abc", UserID: "u1", Username: "alice", ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	payload, err := json.Marshal(s)
	require.NoError(t, err)

	mock.ExpectGet("app:abc").SetVal(string(payload))
	mock.ExpectGet("app:missing").RedisNil()
	mock.ExpectGet("app:broken").SetErr(errors.New("connection refused"))

	got, err := store.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, s.UserID, got.UserID)
	assert.True(t, s.ExpiresAt.Equal(got.ExpiresAt))

	_, err = store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.Get(context.Background(), "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Delete(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, "")

	mock.ExpectDel("todo:session:abc").SetVal(1)

	require.NoError(t, store.Delete(context.Background(), "abc"))
	require.NoError(t, mock.ExpectationsWereMet())
}
