package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
	"github.com/ericfisherdev/rivianctl/internal/domain/port/driven"
)

// AccountService lists the account's orders and the vehicles attached to them.
type AccountService struct {
	client driven.AccountClient
}

// NewAccountService creates an AccountService.
func NewAccountService(client driven.AccountClient) *AccountService {
	return &AccountService{client: client}
}

// ListOrders returns the account's vehicle orders.
func (s *AccountService) ListOrders(ctx context.Context, session model.AuthenticatedContext) ([]model.VehicleOrder, error) {
	orders, err := s.client.VehicleOrders(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("list vehicle orders: %w", err)
	}
	slog.Debug("vehicle orders fetched", "count", len(orders))
	return orders, nil
}

// ListVehicles fetches the vehicle behind each order, in order.
func (s *AccountService) ListVehicles(ctx context.Context, session model.AuthenticatedContext, orders []model.VehicleOrder) ([]model.VehicleDetails, error) {
	vehicles := make([]model.VehicleDetails, 0, len(orders))
	for _, order := range orders {
		details, err := s.client.OrderDetails(ctx, session, order.ID)
		if err != nil {
			return nil, fmt.Errorf("order details for %s: %w", order.ID, err)
		}
		vehicles = append(vehicles, *details)
	}
	return vehicles, nil
}

// ResolveVehicle picks the vehicle to query. An empty wantID selects the
// first vehicle; otherwise wantID must belong to the account.
func ResolveVehicle(vehicles []model.VehicleDetails, wantID string) (string, error) {
	for _, v := range vehicles {
		if wantID == "" && v.VehicleID != "" {
			return v.VehicleID, nil
		}
		if wantID != "" && v.VehicleID == wantID {
			return wantID, nil
		}
	}
	if wantID == "" {
		return "", fmt.Errorf("no vehicles on this account: %w", model.ErrVehicleNotFound)
	}
	return "", fmt.Errorf("vehicle id %s: %w", wantID, model.ErrVehicleNotFound)
}
