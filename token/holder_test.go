package token_test

import (
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/contract-desk/token"
	"github.com/jrsteele09/contract-desk/token/jwt"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestHolderStartsEmpty(t *testing.T) {
	h := token.NewHolder()

	tok, ok := h.Get()
	require.False(t, ok)
	require.Nil(t, tok)
	require.Equal(t, "", h.AccessToken())
	require.False(t, h.Present())
}

func TestHolderSetAndClear(t *testing.T) {
	h := token.NewHolder()

	h.Set(&oauth2.Token{AccessToken: "T1"})
	require.Equal(t, "T1", h.AccessToken())

	h.SetAccessToken("T2")
	require.Equal(t, "T2", h.AccessToken())

	h.Set(nil)
	require.False(t, h.Present())

	h.SetAccessToken("T3")
	h.Clear()
	require.False(t, h.Present())

	h.SetAccessToken("T4")
	h.SetAccessToken("")
	require.False(t, h.Present())
}

func TestHolderGetReturnsCopy(t *testing.T) {
	h := token.NewHolder()
	h.SetAccessToken("T1")

	tok, ok := h.Get()
	require.True(t, ok)
	tok.AccessToken = "mutated"

	require.Equal(t, "T1", h.AccessToken())
}

func TestHolderFillsExpiryFromJWT(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	creator := jwt.NewCreator([]byte("secret"), jwt.WithNowTime(func() time.Time { return now }))
	raw, err := creator.CreateAccessToken("7", 0, time.Minute)
	require.NoError(t, err)

	h := token.NewHolder()
	h.SetAccessToken(raw)

	tok, ok := h.Get()
	require.True(t, ok)
	require.Equal(t, now.Add(time.Minute).Unix(), tok.Expiry.Unix())
}

func TestHolderConcurrentWriters(t *testing.T) {
	h := token.NewHolder()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.SetAccessToken("T")
			_ = h.AccessToken()
		}()
	}
	wg.Wait()
	require.Equal(t, "T", h.AccessToken())
}

func TestHolderSetAccessTokenAtDropsStaleWrites(t *testing.T) {
	h := token.NewHolder()
	epoch := h.Epoch()

	h.Clear()
	require.NotEqual(t, epoch, h.Epoch())

	require.False(t, h.SetAccessTokenAt(epoch, "late"))
	require.False(t, h.Present())

	require.True(t, h.SetAccessTokenAt(h.Epoch(), "fresh"))
	require.Equal(t, "fresh", h.AccessToken())
}

func TestHolderSetDoesNotStartEpoch(t *testing.T) {
	h := token.NewHolder()
	epoch := h.Epoch()

	h.SetAccessToken("T1")
	require.Equal(t, epoch, h.Epoch())
	require.True(t, h.SetAccessTokenAt(epoch, "T2"))
	require.Equal(t, "T2", h.AccessToken())
}
