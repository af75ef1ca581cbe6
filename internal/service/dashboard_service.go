package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"runsight_backend/internal/model"
	"runsight_backend/internal/repository"
	"runsight_backend/internal/util"
	"runsight_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	dashboardKeyPrefix = "dashboard:"
	dashboardCacheTTL  = 5 * time.Minute
	weeklyMileageWeeks = 12
)

// Dashboard 仪表盘聚合数据
type Dashboard struct {
	Analysis      *model.FullAnalysis         `json:"analysis"`
	Today         *model.DailyRecord          `json:"today,omitempty"`
	Calendar      []model.DailyRecommendation `json:"calendar"`
	WeeklyMileage []model.WeeklyMileage       `json:"weeklyMileage"`
	SyncStates    []model.SyncState           `json:"syncStates"`
	GeneratedAt   time.Time                   `json:"generatedAt"`
}

type DashboardService struct {
	RecordRepo *repository.DailyRecordRepository
	StateRepo  *repository.SyncStateRepository
	Workload   *WorkloadService
	Redis      *redis.Client
}

func NewDashboardService(
	recordRepo *repository.DailyRecordRepository,
	stateRepo *repository.SyncStateRepository,
	workload *WorkloadService,
	rdb *redis.Client,
) *DashboardService {
	return &DashboardService{
		RecordRepo: recordRepo,
		StateRepo:  stateRepo,
		Workload:   workload,
		Redis:      rdb,
	}
}

func dashboardKey(userID uint) string {
	return fmt.Sprintf("%s%d", dashboardKeyPrefix, userID)
}

// Get 取仪表盘，优先走 Redis 缓存
func (s *DashboardService) Get(ctx context.Context, user *model.User) (*Dashboard, error) {
	key := dashboardKey(user.ID)

	if s.Redis != nil {
		val, err := s.Redis.Get(ctx, key).Result()
		if err == nil {
			var cached Dashboard
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return &cached, nil
			}
		} else if err != redis.Nil {
			logger.Log.Warn("Dashboard cache read failed", zap.Error(err))
		}
	}

	dashboard, err := s.build(ctx, user)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if data, err := json.Marshal(dashboard); err == nil {
			if err := s.Redis.Set(ctx, key, data, dashboardCacheTTL).Err(); err != nil {
				logger.Log.Warn("Dashboard cache write failed", zap.Error(err))
			}
		}
	}

	return dashboard, nil
}

// Invalidate 记录变更后清缓存
func (s *DashboardService) Invalidate(ctx context.Context, userID uint) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, dashboardKey(userID)).Err(); err != nil {
		logger.Log.Warn("Dashboard cache invalidation failed",
			zap.Uint("userID", userID),
			zap.Error(err))
	}
}

func (s *DashboardService) build(ctx context.Context, user *model.User) (*Dashboard, error) {
	today := s.Workload.Today(user.Location())

	records, err := s.RecordRepo.FindAllByUser(user.ID)
	if err != nil {
		return nil, err
	}

	states, err := s.StateRepo.FindAllByUser(user.ID)
	if err != nil {
		return nil, err
	}

	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	dashboard := &Dashboard{
		Analysis:      s.Workload.FullAnalysis(records, today),
		Calendar:      s.Workload.CalendarRecommendations(records, monthStart, monthEnd),
		WeeklyMileage: weeklyMileage(records, today, weeklyMileageWeeks),
		SyncStates:    states,
		GeneratedAt:   s.Workload.Now(),
	}

	for i := range records {
		if records[i].Day().Equal(today) {
			dashboard.Today = &records[i]
			break
		}
	}

	return dashboard, nil
}

// weeklyMileage 最近 weeks 周的周跑量，周一为一周起点，升序
func weeklyMileage(records []model.DailyRecord, today time.Time, weeks int) []model.WeeklyMileage {
	currentWeekStart := weekStart(today)
	firstWeekStart := currentWeekStart.AddDate(0, 0, -7*(weeks-1))

	totals := make(map[string]*model.WeeklyMileage, weeks)
	out := make([]model.WeeklyMileage, 0, weeks)
	for w := 0; w < weeks; w++ {
		start := firstWeekStart.AddDate(0, 0, 7*w)
		key := start.Format(util.DateFormat)
		entry := model.WeeklyMileage{WeekStart: key}
		out = append(out, entry)
		totals[key] = &out[len(out)-1]
	}

	for i := range records {
		key := weekStart(records[i].Day()).Format(util.DateFormat)
		if entry, ok := totals[key]; ok {
			entry.Miles += records[i].Distance
			if records[i].Distance > 0 {
				entry.Runs++
			}
		}
	}

	return out
}

// weekStart 所在周的周一
func weekStart(day time.Time) time.Time {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
