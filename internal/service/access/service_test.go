package access

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisrepo "github.com/ganarapp/sorteo/internal/repository/redis"
)

const codeTTL = 10 * time.Minute

func TestIssueCode(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := New(redisrepo.NewAccessCodeStore(db, codeTTL))

	mock.Regexp().ExpectSet(
		redisrepo.KeyAccessCode("573001234567"),
		`^\d{6}$`,
		codeTTL,
	).SetVal("OK")

	code, err := svc.IssueCode(context.Background(), "+57 300 123-4567")
	require.NoError(t, err)
	assert.Regexp(t, `^\d{6}$`, code)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidate(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := New(redisrepo.NewAccessCodeStore(db, codeTTL))

	key := redisrepo.KeyAccessCode("3001234567")

	mock.ExpectGet(key).SetVal("123456")
	ok, err := svc.Validate(context.Background(), "3001234567", "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectGet(key).SetVal("123456")
	ok, err = svc.Validate(context.Background(), "3001234567", "654321")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidate_ExpiredCodeIsFalseNotError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := New(redisrepo.NewAccessCodeStore(db, codeTTL))

	mock.ExpectGet(redisrepo.KeyAccessCode("3001234567")).RedisNil()

	ok, err := svc.Validate(context.Background(), "3001234567", "123456")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}
