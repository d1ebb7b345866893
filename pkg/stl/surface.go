// Package stl turns a heat grid into a closed triangle surface and writes it
// as a binary STL file.
//
// The surface wraps every voxel whose heat reaches the iso level: each face a
// selected voxel shares with an unselected voxel, or with the outside of the
// grid, becomes two triangles with an outward normal. Coordinates are in voxel
// units unless a scale is set.
package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
)

// Triangle is one facet of the surface
type Triangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
}

// Surface extracts the boundary of the voxels at or above an iso level
type Surface struct {
	data                   []float64
	width, height, depth   int
	isoLevel               float64
	xScale, yScale, zScale float32
}

// NewSurface creates a surface extractor over data laid out X fastest
func NewSurface(data []float64, width, height, depth int, isoLevel float64) *Surface {
	return &Surface{
		data:     data,
		width:    width,
		height:   height,
		depth:    depth,
		isoLevel: isoLevel,
		xScale:   1,
		yScale:   1,
		zScale:   1,
	}
}

// SetScale sets the physical size of one voxel along each axis
func (s *Surface) SetScale(x, y, z float32) {
	s.xScale, s.yScale, s.zScale = x, y, z
}

// inside reports whether (x, y, z) is a selected voxel; outside the grid is unselected
func (s *Surface) inside(x, y, z int) bool {
	if x < 0 || y < 0 || z < 0 || x >= s.width || y >= s.height || z >= s.depth {
		return false
	}
	idx := z*s.width*s.height + y*s.width + x
	return idx < len(s.data) && s.data[idx] >= s.isoLevel
}

// uAxis and vAxis pick, for a face normal along axis a, the two in-plane axes
// with u x v pointing along +a
var (
	uAxis = [3]int{1, 2, 0}
	vAxis = [3]int{2, 0, 1}
)

// GenerateTriangles returns the triangles of the surface
func (s *Surface) GenerateTriangles() []Triangle {
	var triangles []Triangle
	for z := 0; z < s.depth; z++ {
		for y := 0; y < s.height; y++ {
			for x := 0; x < s.width; x++ {
				if !s.inside(x, y, z) {
					continue
				}
				p := [3]int{x, y, z}
				for axis := 0; axis < 3; axis++ {
					for _, sign := range [2]int{-1, 1} {
						n := p
						n[axis] += sign
						if s.inside(n[0], n[1], n[2]) {
							continue
						}
						triangles = s.appendFace(triangles, p, axis, sign)
					}
				}
			}
		}
	}
	return triangles
}

// appendFace adds the two triangles of the face of voxel p facing sign along axis
func (s *Surface) appendFace(out []Triangle, p [3]int, axis, sign int) []Triangle {
	base := p
	if sign > 0 {
		base[axis]++
	}
	u, v := uAxis[axis], vAxis[axis]

	c0 := base
	c1 := base
	c1[u]++
	c2 := c1
	c2[v]++
	c3 := base
	c3[v]++

	var normal [3]float32
	normal[axis] = float32(sign)

	// Counter-clockwise seen from outside
	quad := [4][3]int{c0, c1, c2, c3}
	if sign < 0 {
		quad = [4][3]int{c0, c3, c2, c1}
	}
	a, b, c, d := s.vertex(quad[0]), s.vertex(quad[1]), s.vertex(quad[2]), s.vertex(quad[3])
	return append(out,
		Triangle{Normal: normal, Vertex1: a, Vertex2: b, Vertex3: c},
		Triangle{Normal: normal, Vertex1: a, Vertex2: c, Vertex3: d},
	)
}

func (s *Surface) vertex(c [3]int) [3]float32 {
	return [3]float32{float32(c[0]) * s.xScale, float32(c[1]) * s.yScale, float32(c[2]) * s.zScale}
}

// SaveToSTL writes triangles as a binary STL file
func SaveToSTL(filename string, triangles []Triangle) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create STL file: %w", err)
	}
	w := bufio.NewWriter(file)

	var header [80]byte
	copy(header[:], "maskheatmap consensus surface")
	if _, err := w.Write(header[:]); err != nil {
		file.Close()
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(triangles))); err != nil {
		file.Close()
		return err
	}
	for _, t := range triangles {
		facet := struct {
			Triangle
			Attr uint16
		}{Triangle: t}
		if err := binary.Write(w, binary.LittleEndian, facet); err != nil {
			file.Close()
			return fmt.Errorf("write facet: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
