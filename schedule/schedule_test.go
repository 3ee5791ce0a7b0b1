package schedule_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/contract-desk/schedule"
	fakeeventrepo "github.com/jrsteele09/contract-desk/schedule/fakerepo"
	"github.com/stretchr/testify/require"
)

func at(day, hour int) time.Time {
	return time.Date(2024, 6, day, hour, 0, 0, 0, time.UTC)
}

func setupService(t *testing.T) *schedule.Service {
	t.Helper()
	s, err := schedule.NewService(fakeeventrepo.NewFakeEventRepo())
	require.NoError(t, err)
	return s
}

func TestValidate(t *testing.T) {
	require.ErrorIs(t, (&schedule.Event{Start: at(1, 9)}).Validate(), schedule.ErrTitleRequired)
	require.ErrorIs(t, (&schedule.Event{Title: "x"}).Validate(), schedule.ErrStartRequired)
	require.ErrorIs(t, (&schedule.Event{Title: "x", Start: at(2, 9), End: at(1, 9)}).Validate(), schedule.ErrEndBeforeStart)

	e := &schedule.Event{Title: " 잔금일 ", Start: at(3, 10)}
	require.NoError(t, e.Validate())
	require.Equal(t, "잔금일", e.Title)
	require.Equal(t, e.Start, e.End)
}

func TestSaveAndMonth(t *testing.T) {
	s := setupService(t)

	first, err := s.Save(&schedule.Event{Title: "계약", Start: at(10, 14), End: at(10, 15)})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	_, err = s.Save(&schedule.Event{Title: "현장 방문", Start: at(2, 9), End: at(2, 10)})
	require.NoError(t, err)
	_, err = s.Save(&schedule.Event{Title: "다음 달", Start: time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	events, err := s.Month(at(15, 0))
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "현장 방문", events[0].Title)
}

func TestMoveKeepsDuration(t *testing.T) {
	s := setupService(t)
	e, err := s.Save(&schedule.Event{Title: "상담", Start: at(5, 9), End: at(5, 11)})
	require.NoError(t, err)

	moved, err := s.Move(e.ID, at(6, 13))
	require.NoError(t, err)
	require.Equal(t, at(6, 15), moved.End)

	_, err = s.Move("missing", at(1, 1))
	require.Error(t, err)
}

func TestDelete(t *testing.T) {
	s := setupService(t)
	e, err := s.Save(&schedule.Event{Title: "x", Start: at(1, 1)})
	require.NoError(t, err)
	require.NoError(t, s.Delete(e.ID))
	require.Error(t, s.Delete(e.ID))
}
