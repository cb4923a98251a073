package roster

import "testing"

func TestMonthDatesContiguous(t *testing.T) {
	cases := []struct {
		year, month, want int
	}{
		{2026, 2, 28}, // non-leap February (boundary B1)
		{2024, 2, 29}, // leap February (boundary B1)
		{2026, 1, 31},
		{2026, 4, 30},
	}
	for _, c := range cases {
		dates := MonthDates(c.year, c.month)
		if len(dates) != c.want {
			t.Fatalf("MonthDates(%d,%d) = %d dates, want %d", c.year, c.month, len(dates), c.want)
		}
		if dates[0].Day != 1 {
			t.Fatalf("first date of month should be day 1, got %v", dates[0])
		}
		for i := 1; i < len(dates); i++ {
			if dates[i] != dates[i-1].AddDays(1) {
				t.Fatalf("dates not contiguous at index %d: %v -> %v", i, dates[i-1], dates[i])
			}
		}
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2026, 8, 1)
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(b) != `"2026-08-01"` {
		t.Fatalf("MarshalJSON = %s, want \"2026-08-01\"", b)
	}
	var got Date
	if err := got.UnmarshalJSON(b); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if got != d {
		t.Fatalf("round trip = %v, want %v", got, d)
	}
}

func TestISOWeekMondayStart(t *testing.T) {
	// 2026-08-03 is a Monday; its ISO week should differ from 2026-08-02 (Sunday).
	mon := NewDate(2026, 8, 3)
	sun := NewDate(2026, 8, 2)
	_, mondayWeek := mon.ISOWeek()
	_, sundayWeek := sun.ISOWeek()
	if mondayWeek == sundayWeek {
		t.Fatalf("expected Monday %v to start a new ISO week from Sunday %v", mon, sun)
	}
}
