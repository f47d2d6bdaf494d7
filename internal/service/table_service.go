package service

import (
	"context"
	"time"

	"dinehub/internal/domain"
	"dinehub/internal/fanout"
	"dinehub/internal/logger"
	"dinehub/internal/repository"
)

type TableServiceInterface interface {
	Bind(ctx context.Context, tc domain.TenantContext, tableID, orderID string) (*domain.RestaurantTable, error)
	Free(ctx context.Context, tc domain.TenantContext, tableID string) (*domain.RestaurantTable, error)
	AssignStatus(ctx context.Context, tc domain.TenantContext, tableID string, status domain.TableStatus) (*domain.RestaurantTable, error)
	List(ctx context.Context, tc domain.TenantContext) ([]domain.RestaurantTable, error)
}

// TableService is the occupancy tracker: one active order per table, bind
// and free driven by the order lifecycle, plus the manual status override.
type TableService struct {
	tables repository.Tables
	pub    fanout.Publisher
	lg     *logger.Logger
}

func NewTableService(tables repository.Tables, pub fanout.Publisher, lg *logger.Logger) *TableService {
	return &TableService{tables: tables, pub: pub, lg: lg}
}

func (s *TableService) Bind(ctx context.Context, tc domain.TenantContext, tableID, orderID string) (*domain.RestaurantTable, error) {
	t, err := s.tables.Bind(ctx, tc.TenantID, tableID, orderID)
	if err != nil {
		return nil, err
	}
	s.publishUpdated(tc, t)
	return t, nil
}

func (s *TableService) Free(ctx context.Context, tc domain.TenantContext, tableID string) (*domain.RestaurantTable, error) {
	t, err := s.tables.Free(ctx, tc.TenantID, tableID)
	if err != nil {
		return nil, err
	}
	s.publishUpdated(tc, t)
	return t, nil
}

func (s *TableService) AssignStatus(ctx context.Context, tc domain.TenantContext, tableID string, status domain.TableStatus) (*domain.RestaurantTable, error) {
	if !status.Known() {
		return nil, domain.Validationf("unknown table status %q", status)
	}
	t, err := s.tables.SetStatus(ctx, tc.TenantID, tableID, status)
	if err != nil {
		return nil, err
	}
	s.publishUpdated(tc, t)
	return t, nil
}

func (s *TableService) List(ctx context.Context, tc domain.TenantContext) ([]domain.RestaurantTable, error) {
	return s.tables.List(ctx, tc.TenantID)
}

func (s *TableService) publishUpdated(tc domain.TenantContext, t *domain.RestaurantTable) {
	s.pub.Publish(domain.TableUpdatedEvent{
		EventMeta: domain.EventMeta{TenantID: tc.TenantID, ActorID: tc.UserID, OccurredAt: time.Now().UTC()},
		Table:     t.View(),
	})
}
