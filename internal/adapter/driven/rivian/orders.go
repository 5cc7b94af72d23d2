package rivian

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
)

const vehicleOrdersQuery = `query vehicleOrders { orders(input: {orderTypes: [PRE_ORDER, VEHICLE], pageInfo: {from: 0, size: 10000}}) { __typename data { __typename id orderDate state configurationStatus fulfillmentSummaryStatus items { __typename sku } consumerStatuses { __typename isConsumerFlowComplete } } } }`

const orderQuery = `query order($id: String!) { order(id: $id) { vin state vehicle { vehicleId vin modelYear model make } items { sku configuration { options { optionId optionName groupId groupName } } } } }`

type vehicleOrdersResponse struct {
	Data struct {
		Orders *struct {
			Data []struct {
				ID                       string `json:"id"`
				OrderDate                string `json:"orderDate"`
				State                    string `json:"state"`
				ConfigurationStatus      string `json:"configurationStatus"`
				FulfillmentSummaryStatus string `json:"fulfillmentSummaryStatus"`
				Items                    []struct {
					SKU string `json:"sku"`
				} `json:"items"`
				ConsumerStatuses struct {
					IsConsumerFlowComplete bool `json:"isConsumerFlowComplete"`
				} `json:"consumerStatuses"`
			} `json:"data"`
		} `json:"orders"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

type orderResponse struct {
	Data struct {
		Order *struct {
			Vehicle *struct {
				VehicleID string `json:"vehicleId"`
				VIN       string `json:"vin"`
				ModelYear int    `json:"modelYear"`
				Model     string `json:"model"`
				Make      string `json:"make"`
			} `json:"vehicle"`
			Items []struct {
				Configuration *struct {
					Options []struct {
						OptionName string `json:"optionName"`
						GroupName  string `json:"groupName"`
					} `json:"options"`
				} `json:"configuration"`
			} `json:"items"`
		} `json:"order"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// VehicleOrders lists the account's pre-orders and vehicle orders.
func (c *Client) VehicleOrders(ctx context.Context, session model.AuthenticatedContext) ([]model.VehicleOrder, error) {
	resp, err := c.post(ctx, gatewayPath, graphqlRequest{
		OperationName: "vehicleOrders",
		Query:         vehicleOrdersQuery,
		Variables:     map[string]any{},
	}, c.gatewayHeaders(session))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &model.TransportError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	var parsed vehicleOrdersResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, &model.MalformedResponseError{Reason: "orders: " + err.Error()}
	}
	if parsed.Data.Orders == nil {
		reason := "orders missing"
		if msg := firstError(parsed.Errors); msg != "" {
			reason += ": " + msg
		}
		return nil, &model.MalformedResponseError{Reason: reason}
	}

	orders := make([]model.VehicleOrder, 0, len(parsed.Data.Orders.Data))
	for _, o := range parsed.Data.Orders.Data {
		items := make([]string, 0, len(o.Items))
		for _, item := range o.Items {
			items = append(items, item.SKU)
		}
		orders = append(orders, model.VehicleOrder{
			ID:                       o.ID,
			OrderDate:                o.OrderDate,
			State:                    o.State,
			ConfigurationStatus:      o.ConfigurationStatus,
			FulfillmentSummaryStatus: o.FulfillmentSummaryStatus,
			Items:                    items,
			IsConsumerFlowComplete:   o.ConsumerStatuses.IsConsumerFlowComplete,
		})
	}

	return orders, nil
}

// OrderDetails returns the vehicle attached to an order and its selected
// configuration options.
func (c *Client) OrderDetails(ctx context.Context, session model.AuthenticatedContext, orderID string) (*model.VehicleDetails, error) {
	resp, err := c.post(ctx, ordersPath, graphqlRequest{
		OperationName: "order",
		Query:         orderQuery,
		Variables:     map[string]any{"id": orderID},
	}, c.transactionHeaders(session))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &model.TransportError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	var parsed orderResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, &model.MalformedResponseError{Reason: "order: " + err.Error()}
	}
	order := parsed.Data.Order
	if order == nil || order.Vehicle == nil {
		reason := "order vehicle missing"
		if msg := firstError(parsed.Errors); msg != "" {
			reason += ": " + msg
		}
		return nil, &model.MalformedResponseError{Reason: reason}
	}

	details := &model.VehicleDetails{
		VehicleID: order.Vehicle.VehicleID,
		VIN:       order.Vehicle.VIN,
		ModelYear: order.Vehicle.ModelYear,
		Make:      order.Vehicle.Make,
		Model:     order.Vehicle.Model,
	}
	for _, item := range order.Items {
		if item.Configuration == nil {
			continue
		}
		for _, opt := range item.Configuration.Options {
			details.Options = append(details.Options, model.ConfigOption{Group: opt.GroupName, Option: opt.OptionName})
		}
	}

	return details, nil
}
