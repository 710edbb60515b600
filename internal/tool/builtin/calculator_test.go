package builtin

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmproc/llmproc-go/internal/tool"
)

func TestEvalExpressionArithmetic(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"2 + 3", 5},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"-3 + 5", 2},
		{"2 * (3 + (4 - 1))", 12},
	}
	for _, c := range cases {
		got, err := evalExpression(c.expr)
		require.NoError(t, err, c.expr)
		assert.Equal(t, c.want, got, c.expr)
	}
}

func TestEvalExpressionErrors(t *testing.T) {
	cases := []string{"1 / 0", "(1 + 2", "2 + ", "2 ** 3"}
	for _, c := range cases {
		_, err := evalExpression(c)
		assert.Error(t, err, c)
	}
}

func TestCalculatorToolViaRegistry(t *testing.T) {
	r := tool.NewRegistry()
	require.NoError(t, registerCalculator(r))

	params, err := json.Marshal(map[string]string{"expression": "4 * (2 + 3)"})
	require.NoError(t, err)

	res := r.Call(context.Background(), "calculator", params)
	require.False(t, res.IsError)
	assert.Equal(t, "20", res.Content)
}
