package clients_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/contract-desk/clients"
	fakeclientrepo "github.com/jrsteele09/contract-desk/clients/fakerepo"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func setupService(t *testing.T) *clients.Service {
	t.Helper()
	s, err := clients.NewService(fakeclientrepo.NewFakeClientRepo(), clients.WithNowTime(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return s
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		client clients.Client
		err    error
	}{
		{"ok", clients.Client{Name: "홍길동", Phone: "010-1234-5678"}, nil},
		{"ok with email", clients.Client{Name: "홍길동", Phone: "010-1234-5678", Email: "hong@example.com"}, nil},
		{"missing name", clients.Client{Phone: "010"}, clients.ErrNameRequired},
		{"missing phone", clients.Client{Name: "홍길동"}, clients.ErrPhoneRequired},
		{"bad phone", clients.Client{Name: "홍길동", Phone: "call me"}, clients.ErrInvalidPhone},
		{"bad email", clients.Client{Name: "홍길동", Phone: "010", Email: "hong@"}, clients.ErrInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.client.Validate()
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestSaveAssignsIDAndTimestamps(t *testing.T) {
	s := setupService(t)

	c, err := s.Save(&clients.Client{Name: "  김철수 ", Phone: "010-2222-3333"})
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)
	require.Equal(t, "김철수", c.Name)
	require.Equal(t, fixedNow, c.CreatedAt)

	c.Memo = "prefers mornings"
	updated, err := s.Save(c)
	require.NoError(t, err)
	require.Equal(t, fixedNow, updated.CreatedAt)

	got, err := s.Get(c.ID)
	require.NoError(t, err)
	require.Equal(t, "prefers mornings", got.Memo)
}

func TestSaveRejectsInvalid(t *testing.T) {
	s := setupService(t)
	_, err := s.Save(&clients.Client{Name: "No Phone"})
	require.ErrorIs(t, err, clients.ErrPhoneRequired)

	all, err := s.Search("")
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestSearch(t *testing.T) {
	s := setupService(t)
	for _, c := range []clients.Client{
		{Name: "박영희", Phone: "010-1111-2222", Email: "park@example.com"},
		{Name: "이민수", Phone: "010 3333 4444"},
	} {
		c := c
		_, err := s.Save(&c)
		require.NoError(t, err)
	}

	found, err := s.Search("33334444")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "이민수", found[0].Name)

	found, err = s.Search("PARK@")
	require.NoError(t, err)
	require.Len(t, found, 1)

	// Decomposed Hangul still matches the composed stored name.
	found, err = s.Search(norm.NFD.String("영희"))
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = s.Search("")
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, "박영희", found[0].Name)
}

func TestDelete(t *testing.T) {
	s := setupService(t)
	c, err := s.Save(&clients.Client{Name: "삭제", Phone: "010"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(c.ID))
	_, err = s.Get(c.ID)
	require.Error(t, err)
	require.Error(t, s.Delete(c.ID))
}
