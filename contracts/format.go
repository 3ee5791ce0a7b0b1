package contracts

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Undetermined is shown for missing dates and amounts.
const Undetermined = "미정"

const displayDateLayout = "2006.01.02"

var acceptedDateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

var koreanPrinter = message.NewPrinter(language.Korean)

// ParseDate parses the ISO forms the server emits. The zero time means invalid.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FormatDate renders YYYY.MM.DD, or 미정 when missing or unparsable.
func FormatDate(s string) string {
	t := ParseDate(s)
	if t.IsZero() {
		return Undetermined
	}
	return t.Format(displayDateLayout)
}

// Won renders an amount with Korean digit grouping and the 원 suffix.
func Won(amount int64) string {
	return koreanPrinter.Sprintf("%d원", amount)
}

// FormatPrice summarizes the amounts relevant to the contract type.
func FormatPrice(c *Contract) string {
	const none = "금액 " + Undetermined
	switch c.Type {
	case TypeSale:
		if c.SalePrice > 0 {
			return Won(c.SalePrice)
		}
	case TypeJeonse:
		if c.Deposit > 0 {
			return "보증금 " + Won(c.Deposit)
		}
	case TypeWolse:
		switch {
		case c.Deposit > 0 && c.MonthlyRent > 0:
			return fmt.Sprintf("보증금 %s / 월세 %s", Won(c.Deposit), Won(c.MonthlyRent))
		case c.Deposit > 0:
			return "보증금 " + Won(c.Deposit)
		case c.MonthlyRent > 0:
			return "월세 " + Won(c.MonthlyRent)
		}
	}
	return none
}

// Period renders "start ~ end", preferring the top-level dates over the schedule.
func Period(c *Contract) string {
	if c.ContractDate == "" && c.HandoverDate == "" && c.Schedule == nil {
		return Undetermined
	}
	start, end := c.periodDates()
	return FormatDate(start) + " ~ " + FormatDate(end)
}

var typeLabels = map[Type]string{
	TypeSale:   "매매",
	TypeJeonse: "전세",
	TypeWolse:  "월세",
}

func TypeLabel(t Type) string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	return string(t)
}

// Badge is a status label plus a presentation variant.
type Badge struct {
	Label   string
	Variant string
}

var statusBadges = map[Status]Badge{
	StatusDraft:     {Label: "작성중", Variant: "secondary"},
	StatusActive:    {Label: "진행중", Variant: "default"},
	StatusExpired:   {Label: "종료", Variant: "outline"},
	StatusCancelled: {Label: "해지", Variant: "destructive"},
}

func StatusBadge(s Status) Badge {
	if b, ok := statusBadges[s]; ok {
		return b
	}
	return Badge{Label: string(s), Variant: "secondary"}
}

// AutoStatus derives a status from the contract period, compared by day.
// Zero times are treated as unknown dates.
func AutoStatus(start, end, now time.Time) Status {
	today := truncateDay(now)
	switch {
	case start.IsZero() && end.IsZero():
		return StatusDraft
	case !end.IsZero() && today.After(truncateDay(end)):
		return StatusExpired
	case !start.IsZero() && today.Before(truncateDay(start)):
		return StatusDraft
	}
	return StatusActive
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
