package interceptors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func Test_isSuccessful(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: true},
		{name: "not found", err: status.Error(codes.NotFound, "x"), want: true},
		{name: "invalid argument", err: status.Error(codes.InvalidArgument, "x"), want: true},
		{name: "unavailable", err: status.Error(codes.Unavailable, "x"), want: false},
		{name: "resource exhausted", err: status.Error(codes.ResourceExhausted, "x"), want: false},
		{name: "aborted", err: status.Error(codes.Aborted, "x"), want: false},
		{name: "plain error", err: errors.New("dial"), want: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isSuccessful(tc.err))
		})
	}
}
