package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pudl-lang/pudlc/internal/types"
)

func TestPromote_FloatWinsOverInteger(t *testing.T) {
	require.Equal(t, types.Float, types.Promote(types.Integer, types.Float))
	require.Equal(t, types.Float, types.Promote(types.Float, types.Integer))
	require.Equal(t, types.Float, types.Promote(types.Float, types.Float))
	require.Equal(t, types.Integer, types.Promote(types.Integer, types.Integer))
}

func TestIsNumeric(t *testing.T) {
	require.True(t, types.Integer.IsNumeric())
	require.True(t, types.Float.IsNumeric())
	require.False(t, types.Bool.IsNumeric())
	require.False(t, types.Undefined.IsNumeric())
}

func TestString_UsesSurfaceSyntaxNames(t *testing.T) {
	require.Equal(t, "int", types.Integer.String())
	require.Equal(t, "float", types.Float.String())
	require.Equal(t, "bool", types.Bool.String())
	require.Equal(t, "undefined", types.Undefined.String())
}
