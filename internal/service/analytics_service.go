package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AnalyticsService struct {
	accounts AccountStore
	bookings BookingStore
	logger   *zap.Logger
	now      Clock
}

func NewAnalyticsService(accounts AccountStore, bookings BookingStore, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		accounts: accounts,
		bookings: bookings,
		logger:   logger,
		now:      time.Now,
	}
}

// MyStudents сводка по студентам тьютора: число занятий, последнее занятие,
// сумма по ставке тьютора и активность за последние 30 дней
func (s *AnalyticsService) MyStudents(ctx context.Context, actor model.Actor, search string) ([]*model.StudentEngagement, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var rate float64
	tutor, err := s.accounts.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, failure(s.logger, "get tutor", err)
	}
	if tutor != nil {
		rate = tutor.HourlyRate
	}

	bookings, err := s.bookings.ListForAnalytics(ctx, actor.ID, strings.TrimSpace(search))
	if err != nil {
		return nil, failure(s.logger, "list analytics bookings", err)
	}

	return aggregateStudents(bookings, rate, s.now()), nil
}

// aggregateStudents группирует занятия (новые сверху) по студенту в порядке первого появления
func aggregateStudents(bookings []*model.Booking, rate float64, now time.Time) []*model.StudentEngagement {
	minutes := make(map[uuid.UUID]int)
	byStudent := make(map[uuid.UUID]*model.StudentEngagement)
	result := make([]*model.StudentEngagement, 0)

	for _, b := range bookings {
		row, ok := byStudent[b.StudentID]
		if !ok {
			row = &model.StudentEngagement{
				ID:              b.StudentID,
				LastSessionDate: b.Date,
			}
			if b.Student != nil {
				row.Name = b.Student.Name
				row.Image = b.Student.Image
				row.Institution = b.Student.Institution
				row.Major = b.Student.Major
			}
			byStudent[b.StudentID] = row
			result = append(result, row)
		}
		row.TotalSessions++
		minutes[b.StudentID] += b.Duration
	}

	for _, row := range result {
		row.TotalSpent = int64(math.Round(float64(minutes[row.ID]) / 60 * rate))
		row.Status = model.EngagementInactive
		if now.Sub(row.LastSessionDate) <= model.ActiveWindow {
			row.Status = model.EngagementActive
		}
	}

	return result
}
