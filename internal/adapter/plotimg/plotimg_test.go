package plotimg

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender2D_Parabola(t *testing.T) {
	// x**2 is finite on the whole domain, so every sample survives.
	r := New(t.TempDir())
	fig, err := r.Render(context.Background(), "x**2", Dim2D)
	require.NoError(t, err)
	assert.Equal(t, Samples2D, fig.FinitePoints)

	info, err := os.Stat(fig.Path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRender2D_PartiallyDefined(t *testing.T) {
	// log(x) is undefined for x <= 0; the defined half still plots.
	r := New(t.TempDir())
	fig, err := r.Render(context.Background(), "log(x)", Dim2D)
	require.NoError(t, err)
	assert.Greater(t, fig.FinitePoints, 0)
	assert.Less(t, fig.FinitePoints, Samples2D)
}

func TestRender2D_NowhereDefined(t *testing.T) {
	r := New(t.TempDir())
	_, err := r.Render(context.Background(), "sqrt(-1 - x**2)", Dim2D)
	require.Error(t, err)
}

func TestRender2D_ParseError(t *testing.T) {
	r := New(t.TempDir())
	_, err := r.Render(context.Background(), "x *** 2", Dim2D)
	require.Error(t, err)
}

func TestRender3D_Paraboloid(t *testing.T) {
	r := New(t.TempDir())
	fig, err := r.Render(context.Background(), "x**2 + y**2", Dim3D)
	require.NoError(t, err)
	assert.Equal(t, GridSize3D*GridSize3D, fig.FinitePoints)

	_, err = os.Stat(fig.Path)
	require.NoError(t, err)
}

func TestRender3D_PartialSingularity(t *testing.T) {
	// 1/(x*y) blows up along the axes but plots everywhere else.
	r := New(t.TempDir())
	fig, err := r.Render(context.Background(), "1/(x*y)", Dim3D)
	require.NoError(t, err)
	assert.Greater(t, fig.FinitePoints, 0)
}
