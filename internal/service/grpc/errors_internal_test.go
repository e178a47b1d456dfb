package grpcsvc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{domain.ErrOrderNotFound, codes.NotFound},
		{domain.ErrClientInactive, codes.NotFound},
		{domain.ErrInvalidQuantity, codes.InvalidArgument},
		{domain.ErrInsufficientStock, codes.FailedPrecondition},
		{domain.ErrOrderCancelled, codes.FailedPrecondition},
		{domain.ErrNotDeliverable, codes.FailedPrecondition},
		{domain.ErrAlreadyValidated, codes.AlreadyExists},
		{fmt.Errorf("validate_order: %w", domain.ErrAlreadyCancelled), codes.AlreadyExists},
		{domain.PersistenceError("list_orders", errors.New("boom")), codes.Internal},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{errors.New("unclassified"), codes.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			st, ok := status.FromError(toStatus(tc.err))
			require.True(t, ok)
			require.Equal(t, tc.code, st.Code())
		})
	}

	require.NoError(t, toStatus(nil))

	st, _ := status.FromError(toStatus(errors.New("secret dsn")))
	require.Equal(t, "internal error", st.Message())
}

func TestJSONCodecRoundTrip(t *testing.T) {
	codec := jsonCodec{}
	data, err := codec.Marshal(&IDRequest{ID: "o-1"})
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"o-1"}`, string(data))

	var out IDRequest
	require.NoError(t, codec.Unmarshal(data, &out))
	require.Equal(t, "o-1", out.ID)

	var empty Empty
	require.NoError(t, codec.Unmarshal(nil, &empty))
}
