package stl

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// TestSingleVoxel verifies a lone voxel yields a closed cube with outward normals
func TestSingleVoxel(t *testing.T) {
	data := []float64{
		1, 0,
		0, 0,

		0, 0,
		0, 0,
	}

	triangles := NewSurface(data, 2, 2, 2, 0.5).GenerateTriangles()
	require.Len(t, triangles, 12)

	for i, tri := range triangles {
		// Winding must agree with the stored normal
		n := cross(sub(tri.Vertex2, tri.Vertex1), sub(tri.Vertex3, tri.Vertex1))
		assert.Equal(t, tri.Normal, n, "triangle %d winding", i)

		// Normals point away from the voxel center
		cx := (tri.Vertex1[0] + tri.Vertex2[0] + tri.Vertex3[0]) / 3
		cy := (tri.Vertex1[1] + tri.Vertex2[1] + tri.Vertex3[1]) / 3
		cz := (tri.Vertex1[2] + tri.Vertex2[2] + tri.Vertex3[2]) / 3
		dot := (cx-0.5)*tri.Normal[0] + (cy-0.5)*tri.Normal[1] + (cz-0.5)*tri.Normal[2]
		assert.Positive(t, dot, "triangle %d normal points inward", i)
	}
}

// TestSharedFacesAreDropped verifies faces between two selected voxels are not emitted
func TestSharedFacesAreDropped(t *testing.T) {
	triangles := NewSurface([]float64{1, 1}, 2, 1, 1, 0.5).GenerateTriangles()
	assert.Len(t, triangles, 20)

	// Below the iso level nothing is selected
	assert.Empty(t, NewSurface([]float64{0.4, 0.2}, 2, 1, 1, 0.5).GenerateTriangles())
}

// TestSphereSurface verifies a voxelized sphere produces a plausible surface
func TestSphereSurface(t *testing.T) {
	size := 12
	data := make([]float64, size*size*size)
	radius := float64(size) / 4.0
	center := float64(size) / 2.0
	for z := 0; z < size; z++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				dx, dy, dz := float64(x)-center, float64(y)-center, float64(z)-center
				if math.Sqrt(dx*dx+dy*dy+dz*dz) < radius {
					data[z*size*size+y*size+x] = 1.0
				}
			}
		}
	}

	triangles := NewSurface(data, size, size, size, 0.5).GenerateTriangles()
	assert.GreaterOrEqual(t, len(triangles), 100)
}

// TestSetScale verifies vertices are scaled per axis
func TestSetScale(t *testing.T) {
	s := NewSurface([]float64{1}, 1, 1, 1, 0.5)
	s.SetScale(2.5, 1.5, 3.0)

	var maxV [3]float32
	for _, tri := range s.GenerateTriangles() {
		for _, v := range [][3]float32{tri.Vertex1, tri.Vertex2, tri.Vertex3} {
			for i := range v {
				maxV[i] = float32(math.Max(float64(maxV[i]), float64(v[i])))
			}
		}
	}
	assert.Equal(t, [3]float32{2.5, 1.5, 3.0}, maxV)
}

// TestSaveToSTL verifies that the STL file can be written
func TestSaveToSTL(t *testing.T) {
	triangles := NewSurface([]float64{1}, 1, 1, 1, 0.5).GenerateTriangles()
	path := filepath.Join(t.TempDir(), "surface.stl")
	require.NoError(t, SaveToSTL(path, triangles))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, data, 80+4+50*len(triangles))
	assert.Equal(t, uint32(len(triangles)), binary.LittleEndian.Uint32(data[80:84]))
}
