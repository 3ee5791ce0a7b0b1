package users_test

import (
	"encoding/json"
	"testing"
	"time"

	deskerrors "github.com/jrsteele09/contract-desk/internal/errors"
	"github.com/jrsteele09/contract-desk/users"
	fakeuserrepo "github.com/jrsteele09/contract-desk/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestPlaceholder(t *testing.T) {
	u := users.Placeholder("jane.kim@example.com")
	require.Equal(t, int64(1), u.ID)
	require.Equal(t, "jane.kim", u.Name)
	require.Equal(t, "jane.kim@example.com", u.Email)
}

func TestDisplayName(t *testing.T) {
	require.Equal(t, "Jane", (&users.User{Name: "Jane", Email: "j@example.com"}).DisplayName())
	require.Equal(t, "j@example.com", (&users.User{Email: "j@example.com"}).DisplayName())

	var nilUser *users.User
	require.Equal(t, "", nilUser.DisplayName())
}

func TestValidatePassword(t *testing.T) {
	require.Error(t, users.ValidatePassword("short"))
	require.NoError(t, users.ValidatePassword("longenough"))
}

func TestValidateEmail(t *testing.T) {
	require.NoError(t, users.ValidateEmail("a@example.com"))
	require.Error(t, users.ValidateEmail(""))
	require.Error(t, users.ValidateEmail("not-an-email"))
	require.Error(t, users.ValidateEmail("Jane <a@example.com>"))
}

func TestPasswordHash(t *testing.T) {
	hash, err := users.HashPassword("password123")
	require.NoError(t, err)
	require.True(t, users.CheckPasswordHash("password123", hash))
	require.False(t, users.CheckPasswordHash("wrong", hash))
}

func TestFakeUserRepo(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()

	acc := &users.Account{User: users.User{Email: "A@Example.com", Name: "A"}}
	require.NoError(t, repo.Create(acc))
	require.Equal(t, int64(1), acc.ID)

	err := repo.Create(&users.Account{User: users.User{Email: "a@example.com"}})
	require.ErrorIs(t, err, deskerrors.ErrUserExists)

	got, err := repo.GetByEmail("a@example.com")
	require.NoError(t, err)
	require.Equal(t, "A", got.Name)
	require.Equal(t, "user", got.Role)

	v, err := repo.BumpTokenVersion(acc.ID)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	got, err = repo.GetByID(acc.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.TokenVersion)

	_, err = repo.GetByID(99)
	require.ErrorIs(t, err, deskerrors.ErrUserNotFound)
	_, err = repo.BumpTokenVersion(99)
	require.ErrorIs(t, err, deskerrors.ErrUserNotFound)
	require.ErrorIs(t, repo.Update(&users.Account{User: users.User{ID: 99}}), deskerrors.ErrUserNotFound)
}

func TestUserDecodesServerTimestamp(t *testing.T) {
	var u users.User
	raw := `{"id":7,"email":"agent@example.com","name":"Agent Kim","role":"user","created_at":"2024-06-01T12:34:56.123456"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	require.Equal(t, int64(7), u.ID)
	require.Equal(t, "2024-06-01T12:34:56.123456", u.CreatedAt)
}

func TestTimestampHasNoZone(t *testing.T) {
	at := time.Date(2024, 6, 1, 21, 34, 56, 123456000, time.FixedZone("KST", 9*60*60))
	require.Equal(t, "2024-06-01T12:34:56.123456", users.Timestamp(at))
}
