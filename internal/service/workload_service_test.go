package service

import (
	"math"
	"testing"
	"time"

	"runsight_backend/internal/model"
)

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

func intPtr(v int) *int { return &v }

func rec(date string, distance float64, sleep, readiness *int) model.DailyRecord {
	d, _ := time.Parse("2006-01-02", date)
	return model.DailyRecord{
		Date:           d,
		Distance:       distance,
		SleepScore:     sleep,
		ReadinessScore: readiness,
	}
}

func fixedClock(s string) func() time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return func() time.Time { return d.Add(10 * time.Hour) }
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// --- CalculateACWR ---

func TestCalculateACWR_InsufficientRecords(t *testing.T) {
	s := NewWorkloadService()
	today := mustDay(t, "2025-06-30")

	if got := s.CalculateACWR(nil, today); got != nil {
		t.Errorf("nil records: got %+v, want nil", got)
	}

	var six []model.DailyRecord
	for i := 1; i <= 6; i++ {
		six = append(six, rec(today.AddDate(0, 0, -i).Format("2006-01-02"), 5, nil, nil))
	}
	if got := s.CalculateACWR(six, today); got != nil {
		t.Errorf("6 records: got %+v, want nil", got)
	}
}

func TestCalculateACWR_EmptyChronicWindow(t *testing.T) {
	s := NewWorkloadService()
	today := mustDay(t, "2025-06-30")

	// 七条记录，但全部在慢性窗口之外
	var old []model.DailyRecord
	for i := 0; i < 7; i++ {
		old = append(old, rec(today.AddDate(0, 0, -40-i).Format("2006-01-02"), 10, nil, nil))
	}
	if got := s.CalculateACWR(old, today); got != nil {
		t.Errorf("all records outside chronic window: got %+v, want nil", got)
	}
}

func TestCalculateACWR_ZeroChronicAverage(t *testing.T) {
	s := NewWorkloadService()
	today := mustDay(t, "2025-06-30")

	var rest []model.DailyRecord
	for i := 1; i <= 10; i++ {
		rest = append(rest, rec(today.AddDate(0, 0, -i).Format("2006-01-02"), 0, intPtr(80), nil))
	}
	if got := s.CalculateACWR(rest, today); got != nil {
		t.Errorf("zero-distance window: got %+v, want nil (undefined ratio)", got)
	}
}

func TestCalculateACWR_FixedDivisorsWithSparseRecords(t *testing.T) {
	s := NewWorkloadService()
	today := mustDay(t, "2025-06-30")

	// 急性窗口内只有 3 天有记录（各 7 英里），慢性窗口内另有 4 天各 7 英里。
	// 均值必须除以固定的 7/28，缺的日子按零计。
	records := []model.DailyRecord{
		rec("2025-06-29", 7, nil, nil),
		rec("2025-06-28", 7, nil, nil),
		rec("2025-06-27", 7, nil, nil),
		rec("2025-06-20", 7, nil, nil),
		rec("2025-06-18", 7, nil, nil),
		rec("2025-06-15", 7, nil, nil),
		rec("2025-06-10", 7, nil, nil),
	}

	got := s.CalculateACWR(records, today)
	if got == nil {
		t.Fatal("got nil, want result")
	}
	if !almostEqual(got.AcuteAvg, 3.0) {
		t.Errorf("AcuteAvg = %v, want 3.0 (21 miles / fixed 7 days)", got.AcuteAvg)
	}
	if !almostEqual(got.ChronicAvg, 1.75) {
		t.Errorf("ChronicAvg = %v, want 1.75 (49 miles / fixed 28 days)", got.ChronicAvg)
	}
	wantRatio := 3.0 / 1.75
	if !almostEqual(got.Ratio, wantRatio) {
		t.Errorf("Ratio = %v, want %v", got.Ratio, wantRatio)
	}
	if got.RiskLevel != model.RiskHigh {
		t.Errorf("RiskLevel = %q, want high (ratio %.3f)", got.RiskLevel, got.Ratio)
	}
	if got.Recommendation == "" {
		t.Error("Recommendation should not be empty")
	}
}

func TestCalculateACWR_WindowEdgesInclusive(t *testing.T) {
	s := NewWorkloadService()
	today := mustDay(t, "2025-06-30")

	// today-7 恰好落在急性窗口内，today-28 恰好落在慢性窗口内，
	// 更早的记录只用来凑满最少条数。
	records := []model.DailyRecord{
		rec("2025-06-23", 7, nil, nil),  // today-7
		rec("2025-06-02", 28, nil, nil), // today-28
		rec("2025-04-01", 99, nil, nil),
		rec("2025-04-02", 99, nil, nil),
		rec("2025-04-03", 99, nil, nil),
		rec("2025-04-04", 99, nil, nil),
		rec("2025-04-05", 99, nil, nil),
	}

	got := s.CalculateACWR(records, today)
	if got == nil {
		t.Fatal("got nil, want result")
	}
	if !almostEqual(got.AcuteAvg, 1.0) {
		t.Errorf("AcuteAvg = %v, want 1.0 (today-7 included)", got.AcuteAvg)
	}
	if !almostEqual(got.ChronicAvg, 1.25) {
		t.Errorf("ChronicAvg = %v, want 1.25 (today-28 included)", got.ChronicAvg)
	}
	// ratio 恰好 0.8：边界归 optimal
	if !almostEqual(got.Ratio, 0.8) {
		t.Errorf("Ratio = %v, want exactly 0.8", got.Ratio)
	}
	if got.RiskLevel != model.RiskOptimal {
		t.Errorf("RiskLevel at ratio 0.8 = %q, want optimal", got.RiskLevel)
	}
}

func TestRiskLevelForRatio_Boundaries(t *testing.T) {
	tests := []struct {
		ratio float64
		want  model.RiskLevel
	}{
		{0.0, model.RiskLow},
		{0.79, model.RiskLow},
		{0.8, model.RiskOptimal},
		{1.0, model.RiskOptimal},
		{1.3, model.RiskOptimal},
		{1.31, model.RiskModerate},
		{1.49, model.RiskModerate},
		{1.5, model.RiskHigh},
		{3.0, model.RiskHigh},
	}
	for _, tc := range tests {
		if got := riskLevelForRatio(tc.ratio); got != tc.want {
			t.Errorf("riskLevelForRatio(%v) = %q, want %q", tc.ratio, got, tc.want)
		}
	}
}

// --- CalculateRecoveryScore ---

func TestCalculateRecoveryScore(t *testing.T) {
	s := NewWorkloadService()

	tests := []struct {
		name       string
		sleep      *int
		readiness  *int
		wantScore  int
		wantSource model.RecoverySource
		wantNil    bool
	}{
		{"both present - weighted blend", intPtr(80), intPtr(90), 86, model.SourceCombined, false},
		{"both present - rounding half up", intPtr(81), intPtr(90), 86, model.SourceCombined, false}, // 86.4 → 86
		{"sleep only - passthrough", intPtr(80), nil, 80, model.SourceSleep, false},
		{"readiness only - passthrough", nil, intPtr(73), 73, model.SourceReadiness, false},
		{"both absent - unavailable", nil, nil, 0, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := s.CalculateRecoveryScore(tc.sleep, tc.readiness)
			if tc.wantNil {
				if got != nil {
					t.Fatalf("got %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("got nil, want result")
			}
			if got.Score != tc.wantScore {
				t.Errorf("Score = %d, want %d", got.Score, tc.wantScore)
			}
			if got.Source != tc.wantSource {
				t.Errorf("Source = %q, want %q", got.Source, tc.wantSource)
			}
		})
	}
}

// --- IsOptimalRunDay ---

func TestIsOptimalRunDay(t *testing.T) {
	s := NewWorkloadService()

	tests := []struct {
		name      string
		sleep     *int
		readiness *int
		want      string // "true", "false", "nil"
	}{
		{"both high - optimal", intPtr(90), intPtr(85), "true"},
		{"sleep at optimal boundary", intPtr(85), intPtr(80), "true"},
		{"sleep low - not optimal despite high readiness", intPtr(60), intPtr(90), "false"},
		{"readiness low, high sleep - ordered branches give false", intPtr(90), intPtr(50), "false"},
		{"sleep just below low cutoff", intPtr(69), intPtr(70), "false"},
		{"middle band - indeterminate", intPtr(78), intPtr(72), "nil"},
		{"sleep missing, readiness fine - indeterminate", nil, intPtr(90), "nil"},
		{"sleep missing, readiness low - false", nil, intPtr(60), "false"},
		{"both missing - indeterminate", nil, nil, "nil"},
		{"sleep 84 blocks optimal branch", intPtr(84), intPtr(95), "nil"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := s.IsOptimalRunDay(tc.sleep, tc.readiness)
			switch tc.want {
			case "nil":
				if got != nil {
					t.Errorf("got %v, want nil", *got)
				}
			case "true":
				if got == nil || !*got {
					t.Errorf("got %v, want true", got)
				}
			case "false":
				if got == nil || *got {
					t.Errorf("got %v, want false", got)
				}
			}
		})
	}
}

// --- DailyRecommendation / level table ---

func TestLevelForScore_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		want  model.RecoveryLevel
	}{
		{100, model.RecoveryExcellent},
		{85, model.RecoveryExcellent},
		{84, model.RecoveryGood},
		{70, model.RecoveryGood},
		{69, model.RecoveryFair},
		{50, model.RecoveryFair},
		{49, model.RecoveryUnknown},
		{0, model.RecoveryUnknown},
	}
	for _, tc := range tests {
		if got := levelForScore(tc.score); got.Level != tc.want {
			t.Errorf("levelForScore(%d) = %q, want %q", tc.score, got.Level, tc.want)
		}
	}
}

func TestDailyRecommendation(t *testing.T) {
	s := NewWorkloadService()
	records := []model.DailyRecord{
		rec("2025-06-10", 5, intPtr(90), intPtr(92)), // score 91 → excellent
		rec("2025-06-11", 0, intPtr(45), intPtr(40)), // score 42 → unknown 档
		rec("2025-06-12", 3, nil, nil),               // 无恢复分
	}

	t.Run("excellent day", func(t *testing.T) {
		got := s.DailyRecommendation(records, mustDay(t, "2025-06-10"))
		if !got.HasData {
			t.Fatal("HasData = false, want true")
		}
		if got.Level != model.RecoveryExcellent {
			t.Errorf("Level = %q, want excellent", got.Level)
		}
		if got.Recovery == nil || got.Recovery.Score != 91 {
			t.Errorf("Recovery = %+v, want score 91", got.Recovery)
		}
		if got.Intensity != "high" {
			t.Errorf("Intensity = %q, want high", got.Intensity)
		}
	})

	t.Run("poor score falls back to unknown tuple", func(t *testing.T) {
		got := s.DailyRecommendation(records, mustDay(t, "2025-06-11"))
		if got.Level != model.RecoveryUnknown {
			t.Errorf("Level = %q, want unknown", got.Level)
		}
		if got.Intensity != "rest" {
			t.Errorf("Intensity = %q, want rest", got.Intensity)
		}
	})

	t.Run("record without scores uses unknown tuple", func(t *testing.T) {
		got := s.DailyRecommendation(records, mustDay(t, "2025-06-12"))
		if !got.HasData {
			t.Error("HasData = false, want true (record exists)")
		}
		if got.Recovery != nil {
			t.Errorf("Recovery = %+v, want nil", got.Recovery)
		}
		if got.Level != model.RecoveryUnknown {
			t.Errorf("Level = %q, want unknown", got.Level)
		}
	})

	t.Run("missing day gets no-data response", func(t *testing.T) {
		got := s.DailyRecommendation(records, mustDay(t, "2025-06-13"))
		if got.HasData {
			t.Error("HasData = true, want false")
		}
		if got.Text != noDataText {
			t.Errorf("Text = %q, want %q", got.Text, noDataText)
		}
		if got.Date != "2025-06-13" {
			t.Errorf("Date = %q, want 2025-06-13", got.Date)
		}
	})
}

// --- CalendarRecommendations ---

func TestCalendarRecommendations_FourteenDayRange(t *testing.T) {
	s := NewWorkloadService()
	records := []model.DailyRecord{
		rec("2025-06-03", 4, intPtr(88), intPtr(84)),
		rec("2025-06-08", 6, intPtr(75), intPtr(72)),
	}

	got := s.CalendarRecommendations(records, mustDay(t, "2025-06-01"), mustDay(t, "2025-06-14"))
	if len(got) != 14 {
		t.Fatalf("len = %d, want 14", len(got))
	}
	for i, day := range got {
		wantDate := mustDay(t, "2025-06-01").AddDate(0, 0, i).Format("2006-01-02")
		if day.Date != wantDate {
			t.Errorf("entry %d: Date = %q, want %q (ascending order)", i, day.Date, wantDate)
		}
	}

	withData := 0
	for _, day := range got {
		if day.HasData {
			withData++
		} else if day.Text != noDataText {
			t.Errorf("day %s without record: Text = %q, want no-data text", day.Date, day.Text)
		}
	}
	if withData != 2 {
		t.Errorf("days with data = %d, want 2", withData)
	}
}

func TestCalendarRecommendations_SingleDay(t *testing.T) {
	s := NewWorkloadService()
	d := mustDay(t, "2025-06-05")
	got := s.CalendarRecommendations(nil, d, d)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
}

// --- FullAnalysis ---

func TestFullAnalysis_EmptyInput(t *testing.T) {
	s := NewWorkloadService()
	if got := s.FullAnalysis(nil, mustDay(t, "2025-06-30")); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
	if got := s.FullAnalysis([]model.DailyRecord{}, mustDay(t, "2025-06-30")); got != nil {
		t.Errorf("empty slice: got %+v, want nil", got)
	}
}

func TestFullAnalysis_AvgRecoveryUsesLastSevenByPosition(t *testing.T) {
	s := NewWorkloadService()
	today := mustDay(t, "2025-06-30")

	// 前 3 条是高分记录，后 7 条（按切片位置）分数固定为 60。
	// 最后一条故意给更早的日期：平均值必须按位置取，不看日历。
	records := []model.DailyRecord{
		rec("2025-06-01", 5, intPtr(100), intPtr(100)),
		rec("2025-06-02", 5, intPtr(100), intPtr(100)),
		rec("2025-06-03", 5, intPtr(100), intPtr(100)),
	}
	for i := 0; i < 6; i++ {
		records = append(records, rec(mustDay(t, "2025-06-10").AddDate(0, 0, i).Format("2006-01-02"), 5, intPtr(60), intPtr(60)))
	}
	records = append(records, rec("2025-05-20", 5, intPtr(60), intPtr(60)))

	got := s.FullAnalysis(records, today)
	if got == nil {
		t.Fatal("got nil, want result")
	}
	if got.AvgRecovery == nil {
		t.Fatal("AvgRecovery = nil, want 60")
	}
	if *got.AvgRecovery != 60 {
		t.Errorf("AvgRecovery = %d, want 60 (high scores outside the positional window)", *got.AvgRecovery)
	}
	if got.AvgRecoveryLevel != model.RecoveryFair {
		t.Errorf("AvgRecoveryLevel = %q, want fair", got.AvgRecoveryLevel)
	}
}

func TestFullAnalysis_SkipsUncomputableRecords(t *testing.T) {
	s := NewWorkloadService()
	today := mustDay(t, "2025-06-30")

	records := []model.DailyRecord{
		rec("2025-06-25", 5, intPtr(80), nil),
		rec("2025-06-26", 5, nil, nil),
		rec("2025-06-27", 5, nil, intPtr(90)),
	}
	got := s.FullAnalysis(records, today)
	if got == nil {
		t.Fatal("got nil, want result")
	}
	// (80 + 90) / 2 = 85
	if got.AvgRecovery == nil || *got.AvgRecovery != 85 {
		t.Errorf("AvgRecovery = %v, want 85", got.AvgRecovery)
	}
	if got.AvgRecoveryLevel != model.RecoveryExcellent {
		t.Errorf("AvgRecoveryLevel = %q, want excellent", got.AvgRecoveryLevel)
	}
}

func TestFullAnalysis_TodayFieldsOnlyWithTodayRecord(t *testing.T) {
	s := NewWorkloadService()
	today := mustDay(t, "2025-06-30")

	without := []model.DailyRecord{
		rec("2025-06-28", 5, intPtr(80), intPtr(80)),
	}
	got := s.FullAnalysis(without, today)
	if got == nil {
		t.Fatal("got nil, want result")
	}
	if got.TodayRecovery != nil || got.TodayRecommendation != nil {
		t.Error("today fields set without a record for today")
	}

	with := append(without, rec("2025-06-30", 3, intPtr(90), intPtr(88)))
	got = s.FullAnalysis(with, today)
	if got == nil {
		t.Fatal("got nil, want result")
	}
	if got.TodayRecovery == nil || got.TodayRecovery.Score != 89 {
		t.Errorf("TodayRecovery = %+v, want score 89", got.TodayRecovery)
	}
	if got.TodayRecommendation == nil || got.TodayRecommendation.Level != model.RecoveryExcellent {
		t.Errorf("TodayRecommendation = %+v, want excellent", got.TodayRecommendation)
	}
}

// --- clock injection ---

func TestToday_UsesInjectedClock(t *testing.T) {
	s := NewWorkloadService()
	s.Now = fixedClock("2025-06-30")

	got := s.Today(time.UTC)
	want := mustDay(t, "2025-06-30")
	if !got.Equal(want) {
		t.Errorf("Today = %v, want %v", got, want)
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("Today not truncated to midnight: %v", got)
	}
}
