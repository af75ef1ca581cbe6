package service

import (
	"context"
	"errors"

	"runsight_backend/internal/model"
	"runsight_backend/internal/repository"
	"runsight_backend/internal/util"

	"gorm.io/gorm"
)

// RecordInput 手动录入/修改一天的数据
type RecordInput struct {
	Distance       float64 `json:"distance" binding:"min=0"`
	SleepScore     *int    `json:"sleepScore"`
	ReadinessScore *int    `json:"readinessScore"`
}

type RecordService struct {
	RecordRepo *repository.DailyRecordRepository
	Dashboard  *DashboardService
}

func NewRecordService(recordRepo *repository.DailyRecordRepository, dashboard *DashboardService) *RecordService {
	return &RecordService{
		RecordRepo: recordRepo,
		Dashboard:  dashboard,
	}
}

func validScore(score *int) bool {
	return score == nil || (*score >= 0 && *score <= 100)
}

// GetRange [start, end] 区间的记录，按日期升序
func (s *RecordService) GetRange(userID uint, startStr, endStr string) ([]model.DailyRecord, error) {
	start, err := util.ParseDate(startStr)
	if err != nil {
		return nil, err
	}
	end, err := util.ParseDate(endStr)
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, util.ErrInvalidDateRange
	}
	return s.RecordRepo.FindRange(userID, start, end)
}

// Upsert 写入或覆盖一天的记录，成功后使仪表盘缓存失效
func (s *RecordService) Upsert(ctx context.Context, userID uint, dateStr string, input RecordInput) (*model.DailyRecord, error) {
	date, err := util.ParseDate(dateStr)
	if err != nil {
		return nil, err
	}
	if input.Distance < 0 {
		return nil, errors.New("distance must not be negative")
	}
	if !validScore(input.SleepScore) || !validScore(input.ReadinessScore) {
		return nil, errors.New("scores must be between 0 and 100")
	}

	record := &model.DailyRecord{
		UserID:         userID,
		Date:           date,
		Distance:       input.Distance,
		SleepScore:     input.SleepScore,
		ReadinessScore: input.ReadinessScore,
	}
	if err := s.RecordRepo.Upsert(record); err != nil {
		return nil, err
	}

	s.Dashboard.Invalidate(ctx, userID)
	return record, nil
}

func (s *RecordService) Delete(ctx context.Context, userID uint, dateStr string) error {
	date, err := util.ParseDate(dateStr)
	if err != nil {
		return err
	}
	if err := s.RecordRepo.Delete(userID, date); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrRecordNotFound
		}
		return err
	}
	s.Dashboard.Invalidate(ctx, userID)
	return nil
}

