package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStringList(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want []string
	}{
		{"nil", nil, []string{}},
		{"string slice", []string{"a", "b"}, []string{"a", "b"}},
		{"json decoded slice", []any{"a", "b", 3}, []string{"a", "b"}},
		{"json string", `["home","office"]`, []string{"home", "office"}},
		{"comma separated", "home, office ,garden", []string{"home", "office", "garden"}},
		{"single value", "home", []string{"home"}},
		{"empty string", "", []string{}},
		{"whitespace only", "  ", []string{}},
		{"unsupported type", 42, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, parseStringList(tc.in))
		})
	}
}

func TestParseAttributes(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want map[string]any
	}{
		{"nil", nil, map[string]any{}},
		{"map", map[string]any{"color": "red"}, map[string]any{"color": "red"}},
		{"json string", `{"color":"red","weight":2}`, map[string]any{"color": "red", "weight": float64(2)}},
		{"malformed json", "{not json", map[string]any{}},
		{"empty string", "", map[string]any{}},
		{"unsupported type", 42, map[string]any{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, parseAttributes(tc.in))
		})
	}
}

func TestCoerceQty(t *testing.T) {
	require.Equal(t, 1, coerceQty(nil))
	require.Equal(t, 3, coerceQty(float64(3)))
	require.Equal(t, 0, coerceQty(float64(0)))
	require.Equal(t, 4, coerceQty(" 4 "))
	require.Equal(t, 1, coerceQty("abc"))
	require.Equal(t, 1, coerceQty(true))
	require.Equal(t, -2, coerceQty("-2"))
}
