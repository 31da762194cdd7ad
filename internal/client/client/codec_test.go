package client

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestJSONCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(codecName)
	require.NotNil(t, c)
	require.Equal(t, codecName, c.Name())
}

func TestJSONCodec_PlainStruct(t *testing.T) {
	c := jsonCodec{}
	b, err := c.Marshal(&sendOTPRequest{Email: "bob@x.com", Context: OTPContextSignup})
	require.NoError(t, err)
	require.JSONEq(t, `{"email":"bob@x.com","context":"signup"}`, string(b))

	var got sendOTPRequest
	require.NoError(t, c.Unmarshal(b, &got))
	require.Equal(t, "signup", got.Context)
}

func TestJSONCodec_ProtoMessage(t *testing.T) {
	c := jsonCodec{}
	b, err := c.Marshal(&healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING})
	require.NoError(t, err)
	require.Contains(t, string(b), "SERVING")

	var got healthpb.HealthCheckResponse
	require.NoError(t, c.Unmarshal([]byte(`{"status":"NOT_SERVING","extra":1}`), &got))
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, got.GetStatus())
}
