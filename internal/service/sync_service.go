package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"runsight_backend/internal/model"
	"runsight_backend/internal/util"
	"runsight_backend/pkg/logger"
	"runsight_backend/pkg/monitoring"

	"go.uber.org/zap"
)

const (
	metersPerMile = 1609.344

	// 首次同步的回看天数，覆盖慢性窗口并留余量
	initialLookbackDays = 42
)

// 同步只用到各仓库的一小部分方法，按接口收窄，方便替身测试
type syncRecordStore interface {
	UpsertDistance(userID uint, date time.Time, miles float64, syncedAt time.Time) error
	UpsertScores(userID uint, date time.Time, sleep, readiness *int, syncedAt time.Time) error
}

type syncActivityStore interface {
	Upsert(activity *model.Activity) error
	FindByUserAndRange(userID uint, start, end time.Time) ([]model.Activity, error)
}

type syncSleepStore interface {
	Upsert(summary *model.SleepSummary) error
}

type syncStateStore interface {
	FindOrCreate(userID uint, provider model.SyncProvider) (*model.SyncState, error)
	MarkRunning(userID uint, provider model.SyncProvider) (bool, error)
	MarkSucceeded(userID uint, provider model.SyncProvider, cursor string, at time.Time) error
	MarkFailed(userID uint, provider model.SyncProvider, syncErr error) error
	FindAllByUser(userID uint) ([]model.SyncState, error)
}

type syncUserStore interface {
	FindByID(id uint) (*model.User, error)
	FindAllActive() ([]model.User, error)
}

type dashboardInvalidator interface {
	Invalidate(ctx context.Context, userID uint)
}

// SyncService 从 Strava / Oura 拉取数据并落到每日记录
type SyncService struct {
	RecordRepo   syncRecordStore
	ActivityRepo syncActivityStore
	SleepRepo    syncSleepStore
	StateRepo    syncStateStore
	UserRepo     syncUserStore
	Dashboard    dashboardInvalidator
	Strava       *StravaClient
	Oura         *OuraClient
	Now          func() time.Time
}

func NewSyncService(
	recordRepo syncRecordStore,
	activityRepo syncActivityStore,
	sleepRepo syncSleepStore,
	stateRepo syncStateStore,
	userRepo syncUserStore,
	dashboard dashboardInvalidator,
	strava *StravaClient,
	oura *OuraClient,
) *SyncService {
	return &SyncService{
		RecordRepo:   recordRepo,
		ActivityRepo: activityRepo,
		SleepRepo:    sleepRepo,
		StateRepo:    stateRepo,
		UserRepo:     userRepo,
		Dashboard:    dashboard,
		Strava:       strava,
		Oura:         oura,
		Now:          time.Now,
	}
}

func metersToMiles(meters float64) float64 {
	return meters / metersPerMile
}

// isRunSport 只有跑步类活动计入跑量
func isRunSport(sportType string) bool {
	switch sportType {
	case "Run", "TrailRun", "VirtualRun":
		return true
	}
	return false
}

// dayRunMileage 按当前活动表重算一天的跑量（英里），只累计跑步类活动
func dayRunMileage(activities []model.Activity) float64 {
	total := 0.0
	for i := range activities {
		if isRunSport(activities[i].SportType) {
			total += metersToMiles(activities[i].DistanceMeters)
		}
	}
	return total
}

// stravaActivityDay 从 start_date_local 取自然日。Strava 的 local 时间带 Z 后缀，
// 但语义是当地时间，直接取日期部分即可。
func stravaActivityDay(startDateLocal string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, startDateLocal)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// SyncProvider 同步单个数据源，并落盘同步状态。running 状态互斥。
func (s *SyncService) SyncProvider(ctx context.Context, user *model.User, provider model.SyncProvider) error {
	state, err := s.StateRepo.FindOrCreate(user.ID, provider)
	if err != nil {
		return err
	}

	acquired, err := s.StateRepo.MarkRunning(user.ID, provider)
	if err != nil {
		return err
	}
	if !acquired {
		return util.ErrSyncRunning
	}

	start := s.Now()
	var cursor string
	switch provider {
	case model.ProviderStrava:
		cursor, err = s.syncStrava(ctx, user, state)
	case model.ProviderOura:
		cursor, err = s.syncOura(ctx, user, state)
	default:
		err = util.ErrUnknownProvider
	}

	monitoring.SyncDuration.WithLabelValues(string(provider)).Observe(time.Since(start).Seconds())

	if err != nil {
		monitoring.SyncRunCounter.WithLabelValues(string(provider), "failed").Inc()
		if markErr := s.StateRepo.MarkFailed(user.ID, provider, err); markErr != nil {
			logger.Log.Error("Failed to record sync failure",
				zap.Uint("userID", user.ID),
				zap.String("provider", string(provider)),
				zap.Error(markErr))
		}
		return err
	}

	monitoring.SyncRunCounter.WithLabelValues(string(provider), "ok").Inc()
	if err := s.StateRepo.MarkSucceeded(user.ID, provider, cursor, s.Now()); err != nil {
		return err
	}

	// 同步写入了新记录，缓存的仪表盘已经过期
	if s.Dashboard != nil {
		s.Dashboard.Invalidate(ctx, user.ID)
	}
	return nil
}

// syncStrava 拉取游标之后的活动，按自然日汇总跑量写入每日记录。
// 返回新的游标（最近活动的 start_date unix 秒）。
func (s *SyncService) syncStrava(ctx context.Context, user *model.User, state *model.SyncState) (string, error) {
	if !s.Strava.Configured() {
		return "", util.ErrProviderNotSet
	}

	after := s.Now().AddDate(0, 0, -initialLookbackDays).Unix()
	if state.Cursor != "" {
		if parsed, err := strconv.ParseInt(state.Cursor, 10, 64); err == nil {
			after = parsed
		}
	}

	activities, err := s.Strava.ActivitiesAfter(ctx, after)
	if err != nil {
		return "", err
	}

	maxStart := after
	touchedDays := map[string]time.Time{}

	for _, act := range activities {
		if !isRunSport(act.SportType) {
			continue
		}

		day, err := stravaActivityDay(act.StartDateLocal)
		if err != nil {
			logger.Log.Warn("Skipping activity with bad start date",
				zap.Int64("stravaID", act.ID),
				zap.String("startDateLocal", act.StartDateLocal))
			continue
		}

		startLocal, _ := time.Parse(time.RFC3339, act.StartDateLocal)
		if err := s.ActivityRepo.Upsert(&model.Activity{
			UserID:         user.ID,
			StravaID:       act.ID,
			Name:           act.Name,
			SportType:      act.SportType,
			StartDateLocal: startLocal,
			DistanceMeters: act.Distance,
			MovingTimeSec:  act.MovingTime,
		}); err != nil {
			return "", err
		}

		touchedDays[day.Format(util.DateFormat)] = day

		if startUTC, err := time.Parse(time.RFC3339, act.StartDate); err == nil && startUTC.Unix() > maxStart {
			maxStart = startUTC.Unix()
		}
	}

	// 汇总按天重新算，而不是增量累加：同一天重复同步不会把里程翻倍
	syncedAt := s.Now()
	for _, day := range touchedDays {
		dayActivities, err := s.ActivityRepo.FindByUserAndRange(user.ID, day, day.AddDate(0, 0, 1))
		if err != nil {
			return "", err
		}
		if err := s.RecordRepo.UpsertDistance(user.ID, day, dayRunMileage(dayActivities), syncedAt); err != nil {
			return "", err
		}
	}

	logger.Log.Info("Strava sync completed",
		zap.Uint("userID", user.ID),
		zap.Int("activities", len(activities)),
		zap.Int("days", len(touchedDays)))

	return strconv.FormatInt(maxStart, 10), nil
}

// syncOura 拉取每日睡眠与准备度评分并合并写入。返回新的游标（最近已同步日期）。
func (s *SyncService) syncOura(ctx context.Context, user *model.User, state *model.SyncState) (string, error) {
	if !s.Oura.Configured() {
		return "", util.ErrProviderNotSet
	}

	endDay := s.Now().Format(util.DateFormat)
	startDay := s.Now().AddDate(0, 0, -initialLookbackDays).Format(util.DateFormat)
	if state.Cursor != "" {
		startDay = state.Cursor
	}

	sleep, err := s.Oura.DailySleep(ctx, startDay, endDay)
	if err != nil {
		return "", err
	}
	readiness, err := s.Oura.DailyReadiness(ctx, startDay, endDay)
	if err != nil {
		return "", err
	}

	type scorePair struct {
		sleep     *int
		readiness *int
	}
	byDay := map[string]*scorePair{}
	for i := range sleep {
		if byDay[sleep[i].Day] == nil {
			byDay[sleep[i].Day] = &scorePair{}
		}
		byDay[sleep[i].Day].sleep = sleep[i].Score
	}
	for i := range readiness {
		if byDay[readiness[i].Day] == nil {
			byDay[readiness[i].Day] = &scorePair{}
		}
		byDay[readiness[i].Day].readiness = readiness[i].Score
	}

	syncedAt := s.Now()
	maxDay := state.Cursor
	for dayStr, pair := range byDay {
		day, err := util.ParseDate(dayStr)
		if err != nil {
			logger.Log.Warn("Skipping Oura entry with bad day",
				zap.Uint("userID", user.ID),
				zap.String("day", dayStr))
			continue
		}

		if err := s.SleepRepo.Upsert(&model.SleepSummary{
			UserID:         user.ID,
			Day:            day,
			SleepScore:     pair.sleep,
			ReadinessScore: pair.readiness,
		}); err != nil {
			return "", err
		}
		if err := s.RecordRepo.UpsertScores(user.ID, day, pair.sleep, pair.readiness, syncedAt); err != nil {
			return "", err
		}

		if dayStr > maxDay {
			maxDay = dayStr
		}
	}

	logger.Log.Info("Oura sync completed",
		zap.Uint("userID", user.ID),
		zap.Int("days", len(byDay)))

	return maxDay, nil
}

// SyncAllUsers 夜间定时任务入口：对所有启用账号逐个同步两个数据源
func (s *SyncService) SyncAllUsers(ctx context.Context) {
	users, err := s.UserRepo.FindAllActive()
	if err != nil {
		logger.Log.Error("Scheduled sync: failed to list users", zap.Error(err))
		return
	}

	for i := range users {
		user := &users[i]
		for _, provider := range []model.SyncProvider{model.ProviderStrava, model.ProviderOura} {
			if err := s.SyncProvider(ctx, user, provider); err != nil {
				if err == util.ErrProviderNotSet || err == util.ErrSyncRunning {
					continue
				}
				logger.Log.Error("Scheduled sync failed",
					zap.Uint("userID", user.ID),
					zap.String("provider", string(provider)),
					zap.Error(err))
			}
		}
	}
}

// Status 查询用户两个数据源的同步状态
func (s *SyncService) Status(userID uint) ([]model.SyncState, error) {
	states, err := s.StateRepo.FindAllByUser(userID)
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		for _, provider := range []model.SyncProvider{model.ProviderOura, model.ProviderStrava} {
			state, err := s.StateRepo.FindOrCreate(userID, provider)
			if err != nil {
				return nil, err
			}
			states = append(states, *state)
		}
	}
	return states, nil
}

// ParseProvider 解析请求里的 provider 参数
func ParseProvider(raw string) (model.SyncProvider, error) {
	switch raw {
	case string(model.ProviderStrava):
		return model.ProviderStrava, nil
	case string(model.ProviderOura):
		return model.ProviderOura, nil
	}
	return "", fmt.Errorf("%w: %q", util.ErrUnknownProvider, raw)
}
