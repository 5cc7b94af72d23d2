package driven

import (
	"context"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
)

// AccountClient defines the driven port for order and vehicle ownership queries.
type AccountClient interface {
	VehicleOrders(ctx context.Context, session model.AuthenticatedContext) ([]model.VehicleOrder, error)
	OrderDetails(ctx context.Context, session model.AuthenticatedContext, orderID string) (*model.VehicleDetails, error)
}
