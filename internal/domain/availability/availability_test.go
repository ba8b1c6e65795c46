package availability

import (
	"testing"
	"time"
)

var base = time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)

func TestFromOffer_FloorsToMinutes(t *testing.T) {
	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"exact 30", base.Add(30 * time.Minute), 30},
		{"one ms short", base.Add(30*time.Minute - time.Millisecond), 29},
		{"sub-minute", base.Add(59 * time.Second), 0},
		{"sub-ms remainder ignored", base.Add(time.Minute + 999*time.Microsecond), 1},
		{"zero", base, 0},
		{"negative floors down", base.Add(-30 * time.Second), -1},
		{"negative whole", base.Add(-2 * time.Minute), -2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := FromOffer(base, tc.end)
			if s.LengthMinutes != tc.want {
				t.Errorf("got %d, want %d", s.LengthMinutes, tc.want)
			}
			if !s.Time.Equal(base) {
				t.Errorf("start changed: %v", s.Time)
			}
		})
	}
}

func TestIsAvailable(t *testing.T) {
	slot := Slot{Time: base, LengthMinutes: 30}
	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{"future exact", Query{CurrentTime: base.Add(-time.Hour), AppointmentLengthMinutes: 30}, true},
		{"starts exactly now", Query{CurrentTime: base, AppointmentLengthMinutes: 30}, false},
		{"past", Query{CurrentTime: base.Add(time.Minute), AppointmentLengthMinutes: 30}, false},
		{"longer slot wanted", Query{CurrentTime: base.Add(-time.Hour), AppointmentLengthMinutes: 45}, false},
		{"shorter slot wanted", Query{CurrentTime: base.Add(-time.Hour), AppointmentLengthMinutes: 15}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsAvailable(tc.q, slot); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestContainsAvailability(t *testing.T) {
	slots := []Slot{
		{Time: base, LengthMinutes: 15},
		{Time: base.Add(time.Hour), LengthMinutes: 45},
	}
	q := Query{CurrentTime: base.Add(-time.Hour), AppointmentLengthMinutes: 45}
	if !ContainsAvailability(slots, q) {
		t.Error("expected a 45 minute match")
	}
	q.AppointmentLengthMinutes = 30
	if ContainsAvailability(slots, q) {
		t.Error("30 minutes must not match 15 or 45 minute slots")
	}
	if ContainsAvailability(nil, q) {
		t.Error("empty list must not match")
	}
}

func TestNarrow_FiltersAndSorts(t *testing.T) {
	slots := []Slot{
		{Time: base.Add(3 * time.Hour), LengthMinutes: 30},
		{Time: base.Add(-time.Hour), LengthMinutes: 30},
		{Time: base.Add(time.Hour), LengthMinutes: 30},
		{Time: base.Add(2 * time.Hour), LengthMinutes: 60},
		{Time: base, LengthMinutes: 30},
	}
	got := Narrow(slots, Query{CurrentTime: base, AppointmentLengthMinutes: 30})
	if len(got) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(got))
	}
	if !got[0].Time.Equal(base.Add(time.Hour)) || !got[1].Time.Equal(base.Add(3*time.Hour)) {
		t.Errorf("unexpected order: %v", got)
	}
	if !slots[0].Time.Equal(base.Add(3 * time.Hour)) {
		t.Error("input must not be reordered")
	}
}

func TestAfter_StrictAndUnsorted(t *testing.T) {
	slots := []Slot{
		{Time: base.Add(2 * time.Hour), LengthMinutes: 30},
		{Time: base, LengthMinutes: 30},
		{Time: base.Add(time.Hour), LengthMinutes: 15},
	}
	got := After(slots, base)
	if len(got) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(got))
	}
	if !got[0].Time.Equal(base.Add(2*time.Hour)) || !got[1].Time.Equal(base.Add(time.Hour)) {
		t.Errorf("original order not kept: %v", got)
	}
	if After(nil, base) == nil {
		t.Error("expected empty, non-nil slice")
	}
}
