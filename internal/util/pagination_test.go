package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	cases := []struct {
		page, limit  int
		offset, size int
	}{
		{1, 20, 0, 20},
		{2, 20, 20, 20},
		{3, 10, 20, 10},
		{0, 20, 0, 20},
		{-5, 20, 0, 20},
		{1, 0, 0, DefaultPageSize},
		{1, -1, 0, DefaultPageSize},
		{1, 101, 0, DefaultPageSize},
		{2, 100, 100, 100},
	}
	for _, tc := range cases {
		offset, size := Calculate(tc.page, tc.limit)
		require.Equal(t, tc.offset, offset, "page=%d limit=%d", tc.page, tc.limit)
		require.Equal(t, tc.size, size, "page=%d limit=%d", tc.page, tc.limit)
	}
}
