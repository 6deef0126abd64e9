package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"1+1", 2},
		{"2*3+4", 10},
		{"2+3*4", 14},
		{"(2+3)*4", 20},
		{"10/4", 2.5},
		{"10%3", 1},
		{"2^10", 1024},
		{"-5+3", -2},
		{"--5", 5},
		{"2^3^2", 512}, // 幂右结合
		{" 1 + 2 * ( 3 - 1 ) ", 5},
		{"3.5*2", 7},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(tt.expr)
			require.NoError(t, err)
			require.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	for _, expr := range []string{
		"",
		"1+",
		"(1+2",
		"1/0",
		"1%0",
		"abc",
		"1 2",
		"2^^3",
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := Evaluate(expr)
			require.Error(t, err)
		})
	}
}

func TestCalculator_Execute(t *testing.T) {
	c := NewCalculator()

	out, err := c.Execute(context.Background(), "数学", map[string]string{"expression": "6*7"})
	require.NoError(t, err)
	require.Equal(t, "42", out)

	_, err = c.Execute(context.Background(), "数学", map[string]string{})
	require.ErrorIs(t, err, ErrBadExpression)
}
