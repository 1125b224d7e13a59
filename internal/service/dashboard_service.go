package service

import (
	"context"
	"time"

	"go-order-ws/internal/model"
	"go-order-ws/internal/repository"
)

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
	GetRecentMovements(ctx context.Context, limit int) ([]model.StockMovement, error)
}

type dashboardService struct {
	movements repository.StockMovementRepository
	now       func() time.Time
}

func NewDashboardService(movements repository.StockMovementRepository) DashboardService {
	return &dashboardService{movements: movements, now: time.Now}
}

func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -days)
	return s.movements.GetStockMovement(ctx, startDate, endDate)
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	return s.movements.GetDashboardStats(ctx)
}

func (s *dashboardService) GetRecentMovements(ctx context.Context, limit int) ([]model.StockMovement, error) {
	return s.movements.FindAll(ctx, limit)
}
