package driven

import (
	"context"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
)

// TelemetrySource defines the driven port for reading live vehicle state.
type TelemetrySource interface {
	// FetchSnapshot returns a fresh snapshot for the vehicle. Non-success
	// statuses are reported as *model.TransportError; a response without
	// vehicle state as *model.MalformedResponseError.
	FetchSnapshot(ctx context.Context, session model.AuthenticatedContext, vehicleID string, tier model.FieldSetTier) (*model.VehicleSnapshot, error)
}
