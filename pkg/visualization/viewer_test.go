package visualization

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maskheatmap/internal/models"
	"maskheatmap/pkg/heatmap"
)

// testResult builds a completed result whose slice z holds heat z/(depth-1)
// inside a box [1,2]x[1,2], except the first slice which is empty
func testResult() *heatmap.Result {
	d := models.Dims{X: 4, Y: 4, Z: 3}
	heat := make([]float64, d.Len())
	bounds := models.NewBoundsSet(d.Z)
	for z := 1; z < d.Z; z++ {
		for y := 1; y <= 2; y++ {
			for x := 1; x <= 2; x++ {
				heat[d.Index(x, y, z)] = float64(z) / float64(d.Z-1)
				bounds[z].Expand(x, y)
			}
		}
	}
	models.FinalizeBounds(bounds)
	return &heatmap.Result{Status: heatmap.StatusCompleted, Dims: d, Heat: heat, Bounds: bounds, Contributors: 2}
}

// TestNewViewer verifies that only completed, consistent results are accepted
func TestNewViewer(t *testing.T) {
	_, err := NewViewer(nil)
	assert.Error(t, err)

	_, err = NewViewer(&heatmap.Result{Status: heatmap.StatusCanceled})
	assert.Error(t, err)

	broken := testResult()
	broken.Heat = broken.Heat[:5]
	_, err = NewViewer(broken)
	assert.Error(t, err, "truncated heat grid")

	_, err = NewViewer(testResult())
	require.NoError(t, err)
}

// TestExtractSlice verifies slice colors follow the heat palette
func TestExtractSlice(t *testing.T) {
	viewer, err := NewViewer(testResult())
	require.NoError(t, err)

	img, err := viewer.ExtractSlice(2)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
	assert.Equal(t, heatmap.Color(1), img.RGBAAt(1, 1), "hot voxel")
	assert.Equal(t, heatmap.Color(0), img.RGBAAt(0, 0), "cold voxel")

	viewer.SetTransparentZero(true)
	img, err = viewer.ExtractSlice(2)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{}, img.RGBAAt(0, 0))

	_, err = viewer.ExtractSlice(3)
	assert.Error(t, err, "position beyond depth")
	_, err = viewer.ExtractSlice(-1)
	assert.Error(t, err, "negative position")
}

// TestExtractCroppedSlice verifies the crop follows the slice bounds
func TestExtractCroppedSlice(t *testing.T) {
	viewer, err := NewViewer(testResult())
	require.NoError(t, err)

	img, err := viewer.ExtractCroppedSlice(1)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
	assert.Equal(t, heatmap.Color(0.5), img.RGBAAt(0, 0))

	img, err = viewer.ExtractCroppedSlice(0)
	assert.NoError(t, err)
	assert.Nil(t, img, "empty slice")
}

// TestSaveSliceSequence verifies files are written for each slice
func TestSaveSliceSequence(t *testing.T) {
	viewer, err := NewViewer(testResult())
	require.NoError(t, err)

	n, err := viewer.SaveSliceSequence(filepath.Join(t.TempDir(), "full"), false)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	cropped := filepath.Join(t.TempDir(), "cropped")
	n, err = viewer.SaveSliceSequence(cropped, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = os.Stat(filepath.Join(cropped, "heat_z_000.png"))
	assert.True(t, os.IsNotExist(err), "empty slice should not be written")

	f, err := os.Open(filepath.Join(cropped, "heat_z_002.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
}
