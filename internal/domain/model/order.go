package model

// VehicleOrder is one row of the account's vehicle order list.
type VehicleOrder struct {
	ID                       string
	OrderDate                string
	State                    string
	ConfigurationStatus      string
	FulfillmentSummaryStatus string
	Items                    []string
	IsConsumerFlowComplete   bool
}

// ConfigOption is one selected configuration option of an ordered vehicle.
type ConfigOption struct {
	Group  string
	Option string
}

// VehicleDetails describes the vehicle attached to an order.
type VehicleDetails struct {
	VehicleID string
	VIN       string
	ModelYear int
	Make      string
	Model     string
	Options   []ConfigOption
}
