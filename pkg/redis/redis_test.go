package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOperations(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := Wrap(db)
	ctx := context.Background()

	mock.ExpectSet("geocode:paris", "payload", time.Hour).SetVal("OK")
	mock.ExpectGet("geocode:paris").SetVal("payload")
	mock.ExpectGet("geocode:nowhere").RedisNil()
	mock.ExpectDel("geocode:paris").SetVal(1)
	mock.ExpectPing().SetErr(errors.New("connection refused"))

	require.NoError(t, client.SetWithExpiration(ctx, "geocode:paris", "payload", time.Hour))

	value, err := client.GetString(ctx, "geocode:paris")
	require.NoError(t, err)
	assert.Equal(t, "payload", value)

	_, err = client.GetString(ctx, "geocode:nowhere")
	assert.True(t, IsNil(err))

	require.NoError(t, client.Delete(ctx, "geocode:paris"))
	assert.Error(t, client.Ping(ctx))

	assert.NoError(t, mock.ExpectationsWereMet())
}
