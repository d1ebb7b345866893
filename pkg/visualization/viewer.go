package visualization

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"maskheatmap/internal/models"
	"maskheatmap/pkg/heatmap"
)

// Viewer renders z-slices of a completed heatmap through the heat palette
type Viewer struct {
	// heat is the normalized heat grid, X fastest
	heat []float64

	dims models.Dims

	// bounds optionally scopes each slice to its occupied box
	bounds []models.SliceBounds

	// transparentZero renders zero-heat voxels fully transparent instead of blue
	transparentZero bool
}

// NewViewer creates a viewer over a completed result
func NewViewer(res *heatmap.Result) (*Viewer, error) {
	if res == nil || res.Status != heatmap.StatusCompleted {
		return nil, fmt.Errorf("viewer needs a completed heatmap")
	}
	if len(res.Heat) != res.Dims.Len() {
		return nil, fmt.Errorf("heat grid holds %d voxels, dims %s need %d", len(res.Heat), res.Dims, res.Dims.Len())
	}
	return &Viewer{heat: res.Heat, dims: res.Dims, bounds: res.Bounds}, nil
}

// SetTransparentZero controls whether voxels no mask marked are drawn transparent
func (v *Viewer) SetTransparentZero(on bool) {
	v.transparentZero = on
}

// ExtractSlice renders the full XY plane at position z
func (v *Viewer) ExtractSlice(z int) (*image.RGBA, error) {
	if z < 0 || z >= v.dims.Z {
		return nil, fmt.Errorf("position %d outside depth %d", z, v.dims.Z)
	}
	return v.render(z, 0, 0, v.dims.X-1, v.dims.Y-1), nil
}

// ExtractCroppedSlice renders only the box of slice z that holds heat.
// It returns nil, nil for a slice without heat or when the viewer has no bounds.
func (v *Viewer) ExtractCroppedSlice(z int) (*image.RGBA, error) {
	if z < 0 || z >= v.dims.Z {
		return nil, fmt.Errorf("position %d outside depth %d", z, v.dims.Z)
	}
	if len(v.bounds) != v.dims.Z {
		return nil, nil
	}
	b := v.bounds[z]
	if b.Empty() {
		return nil, nil
	}
	return v.render(z, b.MinX, b.MinY, b.MaxX, b.MaxY), nil
}

func (v *Viewer) render(z, x0, y0, x1, y1 int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, x1-x0+1, y1-y0+1))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			h := v.heat[v.dims.Index(x, y, z)]
			if h == 0 && v.transparentZero {
				continue
			}
			img.SetRGBA(x-x0, y-y0, heatmap.Color(h))
		}
	}
	return img
}

// SaveSlice saves a rendered slice as a PNG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// SaveSliceSequence renders every z-slice into outputDir and returns the number
// of files written. With crop set, slices are cut to their bounds and slices
// without heat are skipped.
func (v *Viewer) SaveSliceSequence(outputDir string, crop bool) (int, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, err
	}

	written := 0
	for z := 0; z < v.dims.Z; z++ {
		var img *image.RGBA
		var err error
		if crop {
			img, err = v.ExtractCroppedSlice(z)
		} else {
			img, err = v.ExtractSlice(z)
		}
		if err != nil {
			return written, err
		}
		if img == nil {
			continue
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("heat_z_%03d.png", z))
		if err := v.SaveSlice(img, filename); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
