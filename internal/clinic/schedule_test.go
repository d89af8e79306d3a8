package clinic

import (
	"testing"
	"time"
)

func TestDefaultScheduleBlocks(t *testing.T) {
	s := DefaultSchedule()

	if len(s.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(s.Blocks))
	}

	wantStarts := []string{"08:00:00", "10:00:00", "13:00:00", "15:00:00"}
	for i, b := range s.Blocks {
		if b.Start != wantStarts[i] {
			t.Errorf("block %d: start = %q, want %q", i, b.Start, wantStarts[i])
		}
	}

	_, offset := time.Now().In(s.Location).Zone()
	if offset != 8*60*60 {
		t.Errorf("schedule zone offset = %d, want %d", offset, 8*60*60)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2025-03-15", want: "2025-03-15"},
		{in: "03/15/2025", want: "2025-03-15"},
		{in: " 2025-03-15 ", want: "2025-03-15"},
		{in: "15/03/2025", wantErr: true}, // day-first is not accepted
		{in: "March 15", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDate(%q): expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if FormatDate(got) != tt.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.in, FormatDate(got), tt.want)
		}
	}
}

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "08:00", want: "08:00:00"},
		{in: "13:00:00", want: "13:00:00"},
		{in: "2:00 PM", want: "14:00:00"},
		{in: "2:00PM", want: "14:00:00"},
		{in: "9:30 am", want: "09:30:00"},
		{in: "10:00 AM", want: "10:00:00"},
		{in: "not a time", wantErr: true},
		{in: "", wantErr: true},
		{in: "25:00", wantErr: true},
	}

	for _, tt := range tests {
		got, err := NormalizeTime(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NormalizeTime(%q): expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeTime(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeTime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBlockFor_NoSnapping(t *testing.T) {
	s := DefaultSchedule()

	if _, ok := s.BlockFor("14:00:00"); ok {
		t.Error("14:00:00 must not match any block")
	}
	if _, ok := s.BlockFor("08:00:00"); !ok {
		t.Error("08:00:00 must match the first block")
	}
}

func TestSchedulePast(t *testing.T) {
	s := DefaultSchedule()
	date, _ := ParseDate("2025-03-10")

	// 12:30 clinic time: morning blocks elapsed, afternoon blocks not.
	now := time.Date(2025, 3, 10, 12, 30, 0, 0, s.Location)

	wantPast := map[string]bool{
		"08:00:00": true,
		"10:00:00": true,
		"13:00:00": false,
		"15:00:00": false,
	}
	for _, b := range s.Blocks {
		if got := s.Past(date, b, now); got != wantPast[b.Start] {
			t.Errorf("Past(%s) = %v, want %v", b.Start, got, wantPast[b.Start])
		}
	}
}

func TestSchedulePast_EndBoundary(t *testing.T) {
	s := DefaultSchedule()
	date, _ := ParseDate("2025-03-10")
	block := s.Blocks[0] // 08:00-10:00

	exactlyEnd := time.Date(2025, 3, 10, 10, 0, 0, 0, s.Location)
	if !s.Past(date, block, exactlyEnd) {
		t.Error("block ending exactly now must count as past")
	}

	justBefore := exactlyEnd.Add(-time.Second)
	if s.Past(date, block, justBefore) {
		t.Error("block must not be past one second before its end")
	}
}

func TestSchedulePast_FixedOffsetIndependentOfWallClock(t *testing.T) {
	s := DefaultSchedule()
	date, _ := ParseDate("2025-03-10")
	block := s.Blocks[3] // 15:00-17:00

	// 09:05 UTC is 17:05 in the clinic zone, so the last block has elapsed
	// even though the UTC wall clock reads morning.
	now := time.Date(2025, 3, 10, 9, 5, 0, 0, time.UTC)
	if !s.Past(date, block, now) {
		t.Error("pastness must be evaluated in the fixed clinic zone, not UTC")
	}

	// 08:55 UTC is 16:55 clinic time: still inside the block.
	now = time.Date(2025, 3, 10, 8, 55, 0, 0, time.UTC)
	if s.Past(date, block, now) {
		t.Error("block still in progress in clinic time must not be past")
	}
}
