package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"runsight_backend/internal/config"
	"runsight_backend/internal/model"
)

func TestMetersToMiles(t *testing.T) {
	tests := []struct {
		meters float64
		want   float64
	}{
		{1609.344, 1.0},
		{0, 0},
		{8046.72, 5.0},
		{5000, 3.106855961},
	}
	for _, tc := range tests {
		if got := metersToMiles(tc.meters); !almostEqual2(got, tc.want, 1e-6) {
			t.Errorf("metersToMiles(%v) = %v, want %v", tc.meters, got, tc.want)
		}
	}
}

func almostEqual2(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}

func TestIsRunSport(t *testing.T) {
	runs := []string{"Run", "TrailRun", "VirtualRun"}
	for _, s := range runs {
		if !isRunSport(s) {
			t.Errorf("isRunSport(%q) = false, want true", s)
		}
	}
	others := []string{"Ride", "Swim", "Walk", "WeightTraining", ""}
	for _, s := range others {
		if isRunSport(s) {
			t.Errorf("isRunSport(%q) = true, want false", s)
		}
	}
}

func TestStravaActivityDay(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2025-06-15T06:30:00Z", "2025-06-15", false},
		{"2025-06-15T23:59:59Z", "2025-06-15", false},
		{"2025-01-01T00:00:00Z", "2025-01-01", false},
		{"not-a-date", "", true},
	}
	for _, tc := range tests {
		got, err := stravaActivityDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("stravaActivityDay(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("stravaActivityDay(%q): %v", tc.in, err)
			continue
		}
		if got.Format("2006-01-02") != tc.want {
			t.Errorf("stravaActivityDay(%q) = %s, want %s", tc.in, got.Format("2006-01-02"), tc.want)
		}
		if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
			t.Errorf("stravaActivityDay(%q) not truncated to midnight: %v", tc.in, got)
		}
	}
}

func TestParseProvider(t *testing.T) {
	if p, err := ParseProvider("strava"); err != nil || p != model.ProviderStrava {
		t.Errorf("ParseProvider(strava) = %v, %v", p, err)
	}
	if p, err := ParseProvider("oura"); err != nil || p != model.ProviderOura {
		t.Errorf("ParseProvider(oura) = %v, %v", p, err)
	}
	if _, err := ParseProvider("garmin"); err == nil {
		t.Error("ParseProvider(garmin): expected error")
	}
	if _, err := ParseProvider(""); err == nil {
		t.Error("ParseProvider(\"\"): expected error")
	}
}

func TestDayRunMileage(t *testing.T) {
	activities := []model.Activity{
		{SportType: "Run", DistanceMeters: 5000},
		{SportType: "Ride", DistanceMeters: 40000},
		{SportType: "TrailRun", DistanceMeters: 3000},
	}
	want := (5000.0 + 3000.0) / 1609.344
	if got := dayRunMileage(activities); !almostEqual2(got, want, 1e-9) {
		t.Errorf("dayRunMileage = %v, want %v", got, want)
	}
	if got := dayRunMileage(nil); got != 0 {
		t.Errorf("dayRunMileage(nil) = %v, want 0", got)
	}
}

// --- SyncProvider 编排，替身仓库 + 假 Strava 服务 ---

type stubRecordStore struct {
	distances map[string]float64
}

func (s *stubRecordStore) UpsertDistance(userID uint, date time.Time, miles float64, syncedAt time.Time) error {
	s.distances[date.Format("2006-01-02")] = miles
	return nil
}

func (s *stubRecordStore) UpsertScores(userID uint, date time.Time, sleep, readiness *int, syncedAt time.Time) error {
	return nil
}

type stubActivityStore struct {
	byStravaID map[int64]model.Activity
}

func (s *stubActivityStore) Upsert(a *model.Activity) error {
	s.byStravaID[a.StravaID] = *a
	return nil
}

func (s *stubActivityStore) FindByUserAndRange(userID uint, start, end time.Time) ([]model.Activity, error) {
	var out []model.Activity
	for _, a := range s.byStravaID {
		if a.UserID == userID && !a.StartDateLocal.Before(start) && a.StartDateLocal.Before(end) {
			out = append(out, a)
		}
	}
	return out, nil
}

type stubSleepStore struct{}

func (stubSleepStore) Upsert(*model.SleepSummary) error { return nil }

type stubStateStore struct {
	states map[model.SyncProvider]*model.SyncState
}

func (s *stubStateStore) FindOrCreate(userID uint, provider model.SyncProvider) (*model.SyncState, error) {
	if state, ok := s.states[provider]; ok {
		return state, nil
	}
	state := &model.SyncState{UserID: userID, Provider: provider, Status: model.SyncStatusNever}
	s.states[provider] = state
	return state, nil
}

func (s *stubStateStore) MarkRunning(userID uint, provider model.SyncProvider) (bool, error) {
	state := s.states[provider]
	if state.Status == model.SyncStatusRunning {
		return false, nil
	}
	state.Status = model.SyncStatusRunning
	return true, nil
}

func (s *stubStateStore) MarkSucceeded(userID uint, provider model.SyncProvider, cursor string, at time.Time) error {
	state := s.states[provider]
	state.Status = model.SyncStatusOK
	state.Cursor = cursor
	state.LastSyncedAt = &at
	state.LastError = ""
	return nil
}

func (s *stubStateStore) MarkFailed(userID uint, provider model.SyncProvider, syncErr error) error {
	state := s.states[provider]
	state.Status = model.SyncStatusFailed
	if syncErr != nil {
		state.LastError = syncErr.Error()
	}
	return nil
}

func (s *stubStateStore) FindAllByUser(userID uint) ([]model.SyncState, error) {
	var out []model.SyncState
	for _, state := range s.states {
		out = append(out, *state)
	}
	return out, nil
}

type stubUserStore struct{}

func (stubUserStore) FindByID(id uint) (*model.User, error) { return nil, nil }
func (stubUserStore) FindAllActive() ([]model.User, error)  { return nil, nil }

type stubInvalidator struct {
	calls []uint
}

func (s *stubInvalidator) Invalidate(ctx context.Context, userID uint) {
	s.calls = append(s.calls, userID)
}

// stravaServer 假 Strava：token 换发 + 固定活动列表，不理会 after 游标
func stravaServer(t *testing.T, activities []map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "test-token",
				"expires_at":   time.Now().Add(time.Hour).Unix(),
			})
		case "/api/v3/athlete/activities":
			if r.URL.Query().Get("page") == "1" {
				json.NewEncoder(w).Encode(activities)
			} else {
				json.NewEncoder(w).Encode([]map[string]interface{}{})
			}
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestSyncService(strava *StravaClient) (*SyncService, *stubRecordStore, *stubStateStore, *stubInvalidator) {
	records := &stubRecordStore{distances: map[string]float64{}}
	states := &stubStateStore{states: map[model.SyncProvider]*model.SyncState{}}
	inv := &stubInvalidator{}
	svc := NewSyncService(
		records,
		&stubActivityStore{byStravaID: map[int64]model.Activity{}},
		stubSleepStore{},
		states,
		stubUserStore{},
		inv,
		strava,
		NewOuraClient(config.OuraConfig{}),
	)
	svc.Now = func() time.Time {
		return time.Date(2025, 6, 12, 8, 0, 0, 0, time.UTC)
	}
	return svc, records, states, inv
}

func TestSyncProviderStravaRecomputesDailyTotals(t *testing.T) {
	activities := []map[string]interface{}{
		{
			"id": 101, "name": "Morning run", "sport_type": "Run",
			"distance": 5000.0, "moving_time": 1800,
			"start_date": "2025-06-10T06:00:00Z", "start_date_local": "2025-06-10T07:00:00Z",
		},
		{
			"id": 102, "name": "Evening run", "sport_type": "Run",
			"distance": 3000.0, "moving_time": 1100,
			"start_date": "2025-06-10T17:00:00Z", "start_date_local": "2025-06-10T18:00:00Z",
		},
		{
			"id": 103, "name": "Commute", "sport_type": "Ride",
			"distance": 12000.0, "moving_time": 2400,
			"start_date": "2025-06-10T08:00:00Z", "start_date_local": "2025-06-10T09:00:00Z",
		},
	}
	srv := stravaServer(t, activities)
	defer srv.Close()

	strava := NewStravaClient(config.StravaConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "refresh",
		BaseURL:      srv.URL,
	})
	svc, records, states, inv := newTestSyncService(strava)
	user := &model.User{BaseModel: model.BaseModel{ID: 1}}

	// 连续同步两次：同一天的里程按活动表重算，不会翻倍
	for i := 0; i < 2; i++ {
		if err := svc.SyncProvider(context.Background(), user, model.ProviderStrava); err != nil {
			t.Fatalf("sync #%d: %v", i+1, err)
		}
	}

	want := (5000.0 + 3000.0) / 1609.344
	got, ok := records.distances["2025-06-10"]
	if !ok {
		t.Fatal("no daily record written for 2025-06-10")
	}
	if !almostEqual2(got, want, 1e-9) {
		t.Errorf("daily mileage after repeated sync = %v, want %v", got, want)
	}

	if states.states[model.ProviderStrava].Status != model.SyncStatusOK {
		t.Errorf("status = %s, want ok", states.states[model.ProviderStrava].Status)
	}

	// 每次成功同步后都要让仪表盘缓存失效
	if len(inv.calls) != 2 {
		t.Fatalf("dashboard invalidated %d times, want 2", len(inv.calls))
	}
	for _, id := range inv.calls {
		if id != 1 {
			t.Errorf("invalidated user %d, want 1", id)
		}
	}
}

func TestSyncProviderUnconfiguredLeavesCacheAlone(t *testing.T) {
	strava := NewStravaClient(config.StravaConfig{})
	svc, _, states, inv := newTestSyncService(strava)
	user := &model.User{BaseModel: model.BaseModel{ID: 1}}

	err := svc.SyncProvider(context.Background(), user, model.ProviderStrava)
	if err == nil {
		t.Fatal("expected error for unconfigured provider")
	}

	if states.states[model.ProviderStrava].Status != model.SyncStatusFailed {
		t.Errorf("status = %s, want failed", states.states[model.ProviderStrava].Status)
	}
	if len(inv.calls) != 0 {
		t.Errorf("dashboard invalidated %d times on failed sync, want 0", len(inv.calls))
	}
}
