package rivian

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
)

// minimalSignals are the value signals requested for the poll loop.
var minimalSignals = []string{
	"powerState",
	"driveMode",
	"gearStatus",
	"vehicleMileage",
	"batteryLevel",
	"distanceToEmpty",
	"chargerStatus",
	"chargerState",
	"batteryLimit",
	"timeToEndOfCharge",
}

// fullSignals are the value signals requested for the full state report.
var fullSignals = []string{
	"alarmSoundStatus", "timeToEndOfCharge",
	"doorFrontLeftLocked", "doorFrontLeftClosed", "doorFrontRightLocked", "doorFrontRightClosed",
	"doorRearLeftLocked", "doorRearLeftClosed", "doorRearRightLocked", "doorRearRightClosed",
	"windowFrontLeftClosed", "windowFrontRightClosed", "windowRearLeftClosed", "windowRearRightClosed",
	"windowFrontLeftCalibrated", "windowFrontRightCalibrated", "windowRearLeftCalibrated", "windowRearRightCalibrated",
	"closureFrunkLocked", "closureFrunkClosed", "gearGuardLocked",
	"closureLiftgateLocked", "closureLiftgateClosed",
	"closureSideBinLeftLocked", "closureSideBinLeftClosed", "closureSideBinRightLocked", "closureSideBinRightClosed",
	"closureTailgateLocked", "closureTailgateClosed", "closureTonneauLocked", "closureTonneauClosed",
	"wiperFluidState", "powerState", "batteryHvThermalEventPropagation", "vehicleMileage", "brakeFluidLow", "gearStatus",
	"tirePressureStatusFrontLeft", "tirePressureStatusValidFrontLeft",
	"tirePressureStatusFrontRight", "tirePressureStatusValidFrontRight",
	"tirePressureStatusRearLeft", "tirePressureStatusValidRearLeft",
	"tirePressureStatusRearRight", "tirePressureStatusValidRearRight",
	"batteryLevel", "chargerState", "batteryLimit", "remoteChargingAvailable", "batteryHvThermalEvent",
	"rangeThreshold", "distanceToEmpty",
	"otaAvailableVersion", "otaAvailableVersionWeek", "otaAvailableVersionYear",
	"otaCurrentVersion", "otaCurrentVersionNumber", "otaCurrentVersionWeek", "otaCurrentVersionYear",
	"otaDownloadProgress", "otaInstallDuration", "otaInstallProgress", "otaInstallReady",
	"otaInstallTime", "otaInstallType", "otaStatus", "otaCurrentStatus",
	"cabinClimateInteriorTemperature", "cabinPreconditioningStatus", "cabinPreconditioningType",
	"petModeStatus", "petModeTemperatureStatus", "cabinClimateDriverTemperature",
	"gearGuardVideoStatus", "gearGuardVideoMode", "gearGuardVideoTermsAccepted",
	"defrostDefogStatus", "steeringWheelHeat",
	"seatFrontLeftHeat", "seatFrontRightHeat", "seatRearLeftHeat", "seatRearRightHeat",
	"chargerStatus", "seatFrontLeftVent", "seatFrontRightVent", "chargerDerateStatus", "driveMode",
}

// vehicleStateQuery builds the GetVehicleState query for a tier.
func vehicleStateQuery(tier model.FieldSetTier) string {
	signals := minimalSignals
	valueFields := "value"
	if tier == model.TierFull {
		signals = fullSignals
		valueFields = "timeStamp value"
	}

	var b strings.Builder
	b.WriteString("query GetVehicleState($vehicleID: String!) { vehicleState(id: $vehicleID) { ")
	b.WriteString("cloudConnection { lastSync } ")
	b.WriteString("gnssLocation { latitude longitude timeStamp } ")
	for _, name := range signals {
		b.WriteString(name)
		b.WriteString(" { ")
		b.WriteString(valueFields)
		b.WriteString(" } ")
	}
	b.WriteString("} }")
	return b.String()
}

type vehicleStateResponse struct {
	Data struct {
		VehicleState map[string]json.RawMessage `json:"vehicleState"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

type valueSignal struct {
	Value     any    `json:"value"`
	TimeStamp string `json:"timeStamp"`
}

type locationSignal struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	TimeStamp string   `json:"timeStamp"`
}

type cloudConnection struct {
	LastSync string `json:"lastSync"`
}

// FetchSnapshot reads the vehicle's current state.
func (c *Client) FetchSnapshot(ctx context.Context, session model.AuthenticatedContext, vehicleID string, tier model.FieldSetTier) (*model.VehicleSnapshot, error) {
	resp, err := c.post(ctx, gatewayPath, graphqlRequest{
		OperationName: "GetVehicleState",
		Query:         vehicleStateQuery(tier),
		Variables:     map[string]any{"vehicleID": vehicleID},
	}, c.gatewayHeaders(session))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &model.TransportError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	var parsed vehicleStateResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, &model.MalformedResponseError{Reason: "vehicleState: " + err.Error()}
	}
	if parsed.Data.VehicleState == nil {
		reason := "vehicleState missing"
		if msg := firstError(parsed.Errors); msg != "" {
			reason += ": " + msg
		}
		return nil, &model.MalformedResponseError{Reason: reason}
	}

	return decodeSnapshot(parsed.Data.VehicleState)
}

// decodeSnapshot converts the vehicleState object into a snapshot. Null
// signals are omitted.
func decodeSnapshot(fields map[string]json.RawMessage) (*model.VehicleSnapshot, error) {
	snap := &model.VehicleSnapshot{Signals: make(map[string]model.Signal, len(fields))}

	for name, raw := range fields {
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}

		switch name {
		case "__typename":
			continue
		case "cloudConnection":
			var cc cloudConnection
			if err := json.Unmarshal(raw, &cc); err != nil {
				return nil, &model.MalformedResponseError{Reason: "cloudConnection: " + err.Error()}
			}
			snap.LastSync = parseTimestamp(cc.LastSync)
		case "gnssLocation":
			var loc locationSignal
			if err := json.Unmarshal(raw, &loc); err != nil {
				return nil, &model.MalformedResponseError{Reason: "gnssLocation: " + err.Error()}
			}
			if loc.Latitude != nil && loc.Longitude != nil {
				snap.Location = &model.Location{
					Latitude:  *loc.Latitude,
					Longitude: *loc.Longitude,
					TimeStamp: parseTimestamp(loc.TimeStamp),
				}
			}
		default:
			var sig valueSignal
			if err := json.Unmarshal(raw, &sig); err != nil {
				return nil, &model.MalformedResponseError{Reason: name + ": " + err.Error()}
			}
			if sig.Value == nil {
				continue
			}
			snap.Signals[name] = model.Signal{Value: sig.Value, TimeStamp: parseTimestamp(sig.TimeStamp)}
		}
	}

	return snap, nil
}

// parseTimestamp parses an RFC 3339 timestamp, returning the zero time for
// empty or unparseable input.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
