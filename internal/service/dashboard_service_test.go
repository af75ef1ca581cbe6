package service

import (
	"testing"
	"time"

	"runsight_backend/internal/model"
)

func TestWeekStart(t *testing.T) {
	tests := []struct {
		day  string
		want string
	}{
		{"2025-06-30", "2025-06-30"}, // 周一
		{"2025-07-01", "2025-06-30"},
		{"2025-07-06", "2025-06-30"}, // 周日归上周一
		{"2025-07-07", "2025-07-07"},
	}
	for _, tc := range tests {
		d, _ := time.Parse("2006-01-02", tc.day)
		if got := weekStart(d).Format("2006-01-02"); got != tc.want {
			t.Errorf("weekStart(%s) = %s, want %s", tc.day, got, tc.want)
		}
	}
}

func TestWeeklyMileage(t *testing.T) {
	today, _ := time.Parse("2006-01-02", "2025-07-02") // 周三，本周一 2025-06-30

	records := []model.DailyRecord{
		rec("2025-06-30", 5, nil, nil),
		rec("2025-07-01", 3.5, nil, nil),
		rec("2025-07-02", 0, nil, nil), // 零跑量不计入次数
		rec("2025-06-24", 10, nil, nil),
		rec("2024-01-01", 50, nil, nil), // 窗口外
	}

	got := weeklyMileage(records, today, 4)
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}

	last := got[3]
	if last.WeekStart != "2025-06-30" {
		t.Errorf("last.WeekStart = %s, want 2025-06-30", last.WeekStart)
	}
	if !almostEqual(last.Miles, 8.5) {
		t.Errorf("last.Miles = %v, want 8.5", last.Miles)
	}
	if last.Runs != 2 {
		t.Errorf("last.Runs = %d, want 2", last.Runs)
	}

	prev := got[2]
	if prev.WeekStart != "2025-06-23" {
		t.Errorf("prev.WeekStart = %s, want 2025-06-23", prev.WeekStart)
	}
	if !almostEqual(prev.Miles, 10) {
		t.Errorf("prev.Miles = %v, want 10", prev.Miles)
	}

	// 前两周没有记录
	if got[0].Miles != 0 || got[1].Miles != 0 {
		t.Errorf("empty weeks should have zero miles: %+v", got[:2])
	}
}
