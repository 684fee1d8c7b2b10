package slots

import (
	"testing"
	"time"
	_ "time/tzdata"

	"medslot/pkg/model"
)

// 2030-01-07 is a Monday.
var monday = time.Date(2030, time.January, 7, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2030, time.January, 7, hour, minute, 0, 0, time.UTC)
}

func TestGenerate_MondayWithOneBooking(t *testing.T) {
	seq, err := Generate(monday, "09:00", "17:00", 30, []time.Time{at(10, 0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := Collect(seq)
	if len(got) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(got))
	}
	if !got[0].Start.Equal(at(9, 0)) {
		t.Errorf("first slot starts at %s, want 09:00", got[0].Start)
	}
	if !got[15].Start.Equal(at(16, 30)) {
		t.Errorf("last slot starts at %s, want 16:30", got[15].Start)
	}

	for _, s := range got {
		wantAvailable := !s.Start.Equal(at(10, 0))
		if s.Available != wantAvailable {
			t.Errorf("slot %s available = %v, want %v", s.Start.Format("15:04"), s.Available, wantAvailable)
		}
	}
}

func TestGenerate_ContiguousAndBounded(t *testing.T) {
	tests := []struct {
		name     string
		opening  model.TimeOfDay
		closing  model.TimeOfDay
		duration int
	}{
		{"half hours", "09:00", "17:00", 30},
		{"uneven tail", "08:15", "12:00", 45},
		{"long slots", "00:00", "24:00", 480},
		{"short slots", "13:00", "13:30", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := Generate(monday, tt.opening, tt.closing, tt.duration, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := Collect(seq)
			if len(got) == 0 {
				t.Fatal("expected slots")
			}

			openMin, _ := tt.opening.Minutes()
			closeMin, _ := tt.closing.Minutes()
			opening := monday.Add(time.Duration(openMin) * time.Minute)
			closing := monday.Add(time.Duration(closeMin) * time.Minute)

			for i, s := range got {
				if s.Start.Before(opening) {
					t.Errorf("slot %d starts before opening", i)
				}
				if s.End.After(closing) {
					t.Errorf("slot %d ends after closing", i)
				}
				if s.End.Sub(s.Start) != time.Duration(tt.duration)*time.Minute {
					t.Errorf("slot %d has length %s", i, s.End.Sub(s.Start))
				}
				if i > 0 && !got[i-1].End.Equal(s.Start) {
					t.Errorf("slot %d does not start where slot %d ends", i, i-1)
				}
			}
		})
	}
}

func TestGenerate_EmptyWindows(t *testing.T) {
	tests := []struct {
		name     string
		opening  model.TimeOfDay
		closing  model.TimeOfDay
		duration int
	}{
		{"zero length", "09:00", "09:00", 30},
		{"shorter than duration", "09:00", "09:20", 30},
		{"inverted", "17:00", "09:00", 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := Generate(monday, tt.opening, tt.closing, tt.duration, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := Collect(seq); len(got) != 0 {
				t.Errorf("expected no slots, got %d", len(got))
			}
		})
	}
}

func TestGenerate_InvalidInput(t *testing.T) {
	if _, err := Generate(monday, "09:00", "17:00", 0, nil); err == nil {
		t.Error("expected error for zero duration")
	}
	if _, err := Generate(monday, "9am", "17:00", 30, nil); err == nil {
		t.Error("expected error for malformed opening")
	}
	if _, err := Generate(monday, "09:00", "25:00", 30, nil); err == nil {
		t.Error("expected error for malformed closing")
	}
}

func TestGenerate_Restartable(t *testing.T) {
	seq, err := Generate(monday, "09:00", "11:00", 30, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := Collect(seq)
	second := Collect(seq)
	if len(first) != 4 || len(second) != 4 {
		t.Fatalf("expected 4 slots on both passes, got %d and %d", len(first), len(second))
	}

	count := 0
	for range seq {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("early break yielded %d slots", count)
	}
}

func TestGenerate_BookedMatchesToTheMinute(t *testing.T) {
	booked := []time.Time{at(9, 30).Add(42 * time.Second)}
	seq, _ := Generate(monday, "09:00", "10:30", 30, booked)

	got := Collect(seq)
	if !got[0].Available || got[1].Available || !got[2].Available {
		t.Errorf("unexpected availability: %+v", got)
	}
}

func TestGenerate_ProviderLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	date := time.Date(2030, time.January, 7, 0, 0, 0, 0, loc)

	// 07:00 UTC is 10:00 local.
	seq, _ := Generate(date, "09:00", "11:00", 60, []time.Time{at(7, 0)})
	got := Collect(seq)

	if len(got) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(got))
	}
	if got[0].Start.Hour() != 9 || got[0].Start.Location() != loc {
		t.Errorf("first slot = %s", got[0].Start)
	}
	if !got[0].Available || got[1].Available {
		t.Errorf("unexpected availability: %+v", got)
	}
}

func TestGenerate_DaylightSavingTransitions(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	tests := []struct {
		name      string
		date      time.Time
		opening   model.TimeOfDay
		closing   model.TimeOfDay
		wantSlots int
	}{
		// 02:00 does not exist on this day: 01:00 EST to 05:00 EDT is three hours.
		{"spring forward", time.Date(2030, time.March, 10, 0, 0, 0, 0, loc), "01:00", "05:00", 3},
		{"fall back", time.Date(2030, time.November, 3, 0, 0, 0, 0, loc), "00:00", "04:00", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := Generate(tt.date, tt.opening, tt.closing, 60, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := Collect(seq)
			if len(got) != tt.wantSlots {
				t.Fatalf("expected %d slots, got %d: %+v", tt.wantSlots, len(got), got)
			}

			seen := map[int64]bool{}
			for i, s := range got {
				if s.End.Sub(s.Start) != time.Hour {
					t.Errorf("slot %d has length %s", i, s.End.Sub(s.Start))
				}
				if i > 0 && !got[i-1].End.Equal(s.Start) {
					t.Errorf("slot %d does not start where slot %d ends", i, i-1)
				}
				if seen[s.Start.Unix()] {
					t.Errorf("slot %d repeats start %s", i, s.Start)
				}
				seen[s.Start.Unix()] = true
			}
		})
	}
}

func TestBlockStarted(t *testing.T) {
	seq, _ := Generate(monday, "09:00", "11:00", 30, []time.Time{at(10, 30)})

	got := Collect(BlockStarted(seq, at(9, 30)))
	want := []bool{false, false, true, false}
	for i, s := range got {
		if s.Available != want[i] {
			t.Errorf("slot %s available = %v, want %v", s.Start.Format("15:04"), s.Available, want[i])
		}
	}
}

func TestBlockOverlapping(t *testing.T) {
	seq, _ := Generate(monday, "09:00", "12:00", 30, nil)
	appointments := []model.Appointment{
		{AppointmentDate: at(9, 45), DurationMinutes: 60},
	}

	got := Collect(BlockOverlapping(seq, appointments))
	want := []bool{true, false, false, false, true, true}
	for i, s := range got {
		if s.Available != want[i] {
			t.Errorf("slot %s available = %v, want %v", s.Start.Format("15:04"), s.Available, want[i])
		}
	}
}
