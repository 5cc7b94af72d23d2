package rivian_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rivianAdapter "github.com/ericfisherdev/rivianctl/internal/adapter/driven/rivian"
	"github.com/ericfisherdev/rivianctl/internal/domain/model"
)

// gqlHandler answers one GraphQL operation with a status code and a JSON body.
type gqlHandler func(t *testing.T, op string, vars map[string]any, r *http.Request) (int, any)

// newTestClient starts an httptest server routing every request to handle.
func newTestClient(t *testing.T, handle gqlHandler) *rivianAdapter.Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OperationName string         `json:"operationName"`
			Query         string         `json:"query"`
			Variables     map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "com.rivian.ios.consumer-apollo-ios", r.Header.Get("Apollographql-Client-Name"))

		status, body := handle(t, req.OperationName, req.Variables, r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if s, ok := body.(string); ok {
			_, _ = w.Write([]byte(s))
			return
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)

	return rivianAdapter.NewClientWithHTTPClient(server.Client(), server.URL)
}

var testSession = model.AuthenticatedContext{
	Credentials: model.CredentialBundle{AccessToken: "a", RefreshToken: "r", UserSessionToken: "u-sess"},
	AntiForgery: model.AntiForgeryPair{CSRFToken: "csrf", AppSessionToken: "a-sess"},
}

func TestCreateAntiForgeryPair_Success(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, op string, _ map[string]any, r *http.Request) (int, any) {
		assert.Equal(t, "CreateCSRFToken", op)
		assert.Equal(t, "/gateway/graphql", r.URL.Path)
		return http.StatusOK, map[string]any{
			"data": map[string]any{
				"createCsrfToken": map[string]any{"csrfToken": "c1", "appSessionToken": "s1"},
			},
		}
	})

	pair, err := client.CreateAntiForgeryPair(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.AntiForgeryPair{CSRFToken: "c1", AppSessionToken: "s1"}, pair)
}

func TestCreateAntiForgeryPair_Non200(t *testing.T) {
	client := newTestClient(t, func(_ *testing.T, _ string, _ map[string]any, _ *http.Request) (int, any) {
		return http.StatusServiceUnavailable, "upstream down"
	})

	_, err := client.CreateAntiForgeryPair(context.Background())

	var transportErr *model.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusServiceUnavailable, transportErr.StatusCode)
	assert.Equal(t, "upstream down", transportErr.Body)
}

func TestCreateAntiForgeryPair_MissingTokens(t *testing.T) {
	client := newTestClient(t, func(_ *testing.T, _ string, _ map[string]any, _ *http.Request) (int, any) {
		return http.StatusOK, map[string]any{
			"data":   nil,
			"errors": []any{map[string]any{"message": "rate limited"}},
		}
	})

	_, err := client.CreateAntiForgeryPair(context.Background())

	var malformed *model.MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Reason, "rate limited")
}

func TestLogin_DirectSuccess(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, op string, vars map[string]any, r *http.Request) (int, any) {
		assert.Equal(t, "Login", op)
		assert.Equal(t, "me@example.com", vars["email"])
		assert.Equal(t, "hunter2", vars["password"])
		assert.Equal(t, "csrf", r.Header.Get("Csrf-Token"))
		assert.Equal(t, "a-sess", r.Header.Get("A-Sess"))
		assert.True(t, strings.HasPrefix(r.Header.Get("Dc-Cid"), "m-ios-"))
		return http.StatusOK, map[string]any{
			"data": map[string]any{
				"login": map[string]any{
					"__typename":       "MobileLoginResponse",
					"accessToken":      "a",
					"refreshToken":     "r",
					"userSessionToken": "u",
				},
			},
		}
	})

	result, err := client.Login(context.Background(), testSession.AntiForgery, "me@example.com", "hunter2")
	require.NoError(t, err)

	success, ok := result.(model.LoginSuccess)
	require.True(t, ok, "expected LoginSuccess, got %T", result)
	assert.Equal(t, model.CredentialBundle{AccessToken: "a", RefreshToken: "r", UserSessionToken: "u"}, success.Bundle)
}

func TestLogin_OTPRequired(t *testing.T) {
	client := newTestClient(t, func(_ *testing.T, _ string, _ map[string]any, _ *http.Request) (int, any) {
		return http.StatusOK, map[string]any{
			"data": map[string]any{
				"login": map[string]any{"__typename": "MobileMFALoginResponse", "otpToken": "otp-123"},
			},
		}
	})

	result, err := client.Login(context.Background(), testSession.AntiForgery, "me@example.com", "pw")
	require.NoError(t, err)

	otp, ok := result.(model.OTPRequired)
	require.True(t, ok, "expected OTPRequired, got %T", result)
	assert.Equal(t, "otp-123", otp.Challenge.OTPToken)
}

func TestLogin_UntypedResponseResolvedByFields(t *testing.T) {
	client := newTestClient(t, func(_ *testing.T, _ string, _ map[string]any, _ *http.Request) (int, any) {
		return http.StatusOK, map[string]any{
			"data": map[string]any{"login": map[string]any{"otpToken": "otp-9"}},
		}
	})

	result, err := client.Login(context.Background(), testSession.AntiForgery, "me@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, model.OTPRequired{Challenge: model.OTPChallenge{OTPToken: "otp-9"}}, result)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       any
		wantStatus int
	}{
		{"unauthorized", http.StatusUnauthorized, `{"errors":[{"message":"bad credentials"}]}`, http.StatusUnauthorized},
		{"null login", http.StatusOK, map[string]any{"data": map[string]any{"login": nil}}, http.StatusOK},
		{"unrecognized shape", http.StatusOK, map[string]any{"data": map[string]any{"login": map[string]any{"__typename": "Weird"}}}, http.StatusOK},
		{"partial bundle", http.StatusOK, map[string]any{"data": map[string]any{"login": map[string]any{"__typename": "MobileLoginResponse", "accessToken": "a"}}}, http.StatusOK},
		{"not json", http.StatusOK, "<html>", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(_ *testing.T, _ string, _ map[string]any, _ *http.Request) (int, any) {
				return tt.status, tt.body
			})

			result, err := client.Login(context.Background(), testSession.AntiForgery, "me@example.com", "pw")
			assert.Nil(t, result)

			var authErr *model.AuthenticationError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.wantStatus, authErr.StatusCode)
			assert.NotEmpty(t, authErr.Body)
		})
	}
}

func TestLoginWithOTP_Success(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, op string, vars map[string]any, _ *http.Request) (int, any) {
		assert.Equal(t, "LoginWithOTP", op)
		assert.Equal(t, "123456", vars["otpCode"])
		assert.Equal(t, "otp-123", vars["otpToken"])
		return http.StatusOK, map[string]any{
			"data": map[string]any{
				"loginWithOTP": map[string]any{
					"__typename":       "MobileLoginResponse",
					"accessToken":      "a",
					"refreshToken":     "r",
					"userSessionToken": "u",
				},
			},
		}
	})

	bundle, err := client.LoginWithOTP(context.Background(), testSession.AntiForgery, "me@example.com", "123456", "otp-123")
	require.NoError(t, err)
	assert.Equal(t, model.CredentialBundle{AccessToken: "a", RefreshToken: "r", UserSessionToken: "u"}, bundle)
}

func TestLoginWithOTP_Mismatch(t *testing.T) {
	client := newTestClient(t, func(_ *testing.T, _ string, _ map[string]any, _ *http.Request) (int, any) {
		return http.StatusOK, map[string]any{
			"data":   map[string]any{"loginWithOTP": nil},
			"errors": []any{map[string]any{"message": "invalid otp"}},
		}
	})

	_, err := client.LoginWithOTP(context.Background(), testSession.AntiForgery, "me@example.com", "000000", "otp-123")

	var authErr *model.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Body, "invalid otp")
}

func TestLoginWithOTP_UnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client := rivianAdapter.NewClientWithHTTPClient(server.Client(), server.URL)
	server.Close()

	_, err := client.LoginWithOTP(context.Background(), testSession.AntiForgery, "me@example.com", "123456", "otp-123")

	var authErr *model.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Zero(t, authErr.StatusCode)
	var urlErr *url.Error
	assert.ErrorAs(t, err, &urlErr, "cause stays reachable")
}

func TestFetchSnapshot_Minimal(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, op string, vars map[string]any, r *http.Request) (int, any) {
		assert.Equal(t, "GetVehicleState", op)
		assert.Equal(t, "veh-1", vars["vehicleID"])
		assert.Equal(t, "u-sess", r.Header.Get("U-Sess"))
		assert.Equal(t, "csrf", r.Header.Get("Csrf-Token"))
		return http.StatusOK, `{"data":{"vehicleState":{
			"cloudConnection":{"lastSync":"2024-05-01T10:00:00.000Z"},
			"powerState":{"value":"ready"},
			"driveMode":{"value":"everyday"},
			"gearStatus":{"value":"park"},
			"vehicleMileage":{"value":16090.0},
			"batteryLevel":{"value":80.44},
			"distanceToEmpty":{"value":400},
			"gnssLocation":{"latitude":37.1,"longitude":-122.2,"timeStamp":"2024-05-01T09:59:00Z"},
			"chargerStatus":null,
			"batteryLimit":{"value":null}
		}}}`
	})

	snap, err := client.FetchSnapshot(context.Background(), testSession, "veh-1", model.TierMinimal)
	require.NoError(t, err)

	power, ok := snap.String(model.SignalPowerState)
	require.True(t, ok)
	assert.Equal(t, "ready", power)

	mileage, ok := snap.Float(model.SignalVehicleMileage)
	require.True(t, ok)
	assert.InDelta(t, 16090.0, mileage, 1e-9)

	assert.False(t, snap.Has(model.SignalChargerStatus), "null signals are omitted")
	assert.False(t, snap.Has(model.SignalBatteryLimit), "null values are omitted")
	require.NotNil(t, snap.Location)
	assert.InDelta(t, 37.1, snap.Location.Latitude, 1e-9)
	assert.Equal(t, 2024, snap.LastSync.Year())
}

func TestFetchSnapshot_FullTierParsesTimestamps(t *testing.T) {
	client := newTestClient(t, func(_ *testing.T, _ string, _ map[string]any, _ *http.Request) (int, any) {
		return http.StatusOK, map[string]any{
			"data": map[string]any{
				"vehicleState": map[string]any{
					"__typename":          "VehicleState",
					"powerState":          map[string]any{"__typename": "TimeStampedString", "value": "sleep", "timeStamp": "2024-05-01T08:00:00Z"},
					"doorFrontLeftLocked": map[string]any{"value": "locked", "timeStamp": "2024-05-01T08:00:00Z"},
				},
			},
		}
	})

	snap, err := client.FetchSnapshot(context.Background(), testSession, "veh-1", model.TierFull)
	require.NoError(t, err)
	assert.Equal(t, 8, snap.Signals[model.SignalPowerState].TimeStamp.Hour())
	locked, _ := snap.String("doorFrontLeftLocked")
	assert.Equal(t, "locked", locked)
}

func TestFetchSnapshot_Errors(t *testing.T) {
	t.Run("non-200 is a transport error", func(t *testing.T) {
		client := newTestClient(t, func(_ *testing.T, _ string, _ map[string]any, _ *http.Request) (int, any) {
			return http.StatusBadGateway, "bad gateway"
		})

		_, err := client.FetchSnapshot(context.Background(), testSession, "veh-1", model.TierMinimal)
		var transportErr *model.TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
	})

	t.Run("missing vehicle state is malformed", func(t *testing.T) {
		client := newTestClient(t, func(_ *testing.T, _ string, _ map[string]any, _ *http.Request) (int, any) {
			return http.StatusOK, map[string]any{
				"data":   map[string]any{"vehicleState": nil},
				"errors": []any{map[string]any{"message": "vehicle offline"}},
			}
		})

		_, err := client.FetchSnapshot(context.Background(), testSession, "veh-1", model.TierMinimal)
		var malformed *model.MalformedResponseError
		require.ErrorAs(t, err, &malformed)
		assert.Contains(t, malformed.Reason, "vehicle offline")
	})
}

func TestVehicleOrders(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, op string, _ map[string]any, _ *http.Request) (int, any) {
		assert.Equal(t, "vehicleOrders", op)
		return http.StatusOK, map[string]any{
			"data": map[string]any{
				"orders": map[string]any{
					"data": []any{
						map[string]any{
							"id":                       "ORD-0001",
							"orderDate":                "2022-01-05T12:00:00Z",
							"state":                    "COMPLETE",
							"configurationStatus":      "LOCKED",
							"fulfillmentSummaryStatus": "DELIVERED",
							"items":                    []any{map[string]any{"sku": "R1T"}},
							"consumerStatuses":         map[string]any{"isConsumerFlowComplete": true},
						},
					},
				},
			},
		}
	})

	orders, err := client.VehicleOrders(context.Background(), testSession)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ORD-0001", orders[0].ID)
	assert.Equal(t, []string{"R1T"}, orders[0].Items)
	assert.True(t, orders[0].IsConsumerFlowComplete)
}

func TestOrderDetails(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, op string, vars map[string]any, r *http.Request) (int, any) {
		assert.Equal(t, "order", op)
		assert.Equal(t, "/orders/graphql", r.URL.Path)
		assert.Equal(t, "ORD-0001", vars["id"])
		assert.Equal(t, "t2d", r.Header.Get("App-Id"))
		assert.True(t, strings.HasPrefix(r.Header.Get("Dc-Cid"), "t2d--"))
		return http.StatusOK, map[string]any{
			"data": map[string]any{
				"order": map[string]any{
					"vehicle": map[string]any{
						"vehicleId": "veh-1", "vin": "7FCTGAAA1NN000001", "modelYear": 2022, "make": "Rivian", "model": "R1T",
					},
					"items": []any{
						map[string]any{"configuration": nil},
						map[string]any{"configuration": map[string]any{"options": []any{
							map[string]any{"groupName": "Paint", "optionName": "Glacier White"},
						}}},
					},
				},
			},
		}
	})

	details, err := client.OrderDetails(context.Background(), testSession, "ORD-0001")
	require.NoError(t, err)
	assert.Equal(t, "veh-1", details.VehicleID)
	assert.Equal(t, 2022, details.ModelYear)
	assert.Equal(t, []model.ConfigOption{{Group: "Paint", Option: "Glacier White"}}, details.Options)
}
