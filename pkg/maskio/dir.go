// Package maskio reads label masks stored as directories of 2D slice images.
//
// A mask directory holds one image per z-slice (JPEG or PNG). Slices are
// ordered by the number embedded in their filename, so slice_2.png comes before
// slice_10.png. A pixel is labeled when its gray level is above the threshold;
// the stored label is the 8-bit gray level.
package maskio

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"maskheatmap/internal/models"
)

// ErrNoSlices is returned for a directory without slice images
var ErrNoSlices = errors.New("maskio: no slice images found")

// DirVolume is a models.Volume backed by a mask directory. Opening it only
// reads the directory listing and the first image header; slice pixels are
// decoded on every Scan.
type DirVolume struct {
	// Dir is the mask directory
	Dir string

	// Files holds the slice filenames in z order
	Files []string

	// Threshold is the gray level a pixel must exceed to count as labeled
	Threshold uint8

	dims models.Dims
}

// Open lists a mask directory and reads the slice size from its first image
func Open(dir string, threshold uint8) (*DirVolume, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read mask directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSlices, dir)
	}

	// Keep anatomical order: numeric part first, then the name itself
	sort.SliceStable(files, func(i, j int) bool {
		ni, nj := extractNumber(files[i]), extractNumber(files[j])
		if ni != nj {
			return ni < nj
		}
		return files[i] < files[j]
	})

	cfg, err := decodeConfig(filepath.Join(dir, files[0]))
	if err != nil {
		return nil, fmt.Errorf("read slice header %s: %w", files[0], err)
	}

	return &DirVolume{
		Dir:       dir,
		Files:     files,
		Threshold: threshold,
		dims:      models.Dims{X: cfg.Width, Y: cfg.Height, Z: len(files)},
	}, nil
}

// Dims implements models.Volume
func (v *DirVolume) Dims() models.Dims {
	return v.dims
}

// Scan implements models.Volume. It fails on the first slice that cannot be
// decoded or whose size differs from the first slice.
func (v *DirVolume) Scan(fn func(value int32)) error {
	for z, name := range v.Files {
		img, err := loadImage(filepath.Join(v.Dir, name))
		if err != nil {
			return fmt.Errorf("slice %d (%s): %w", z, name, err)
		}
		b := img.Bounds()
		if b.Dx() != v.dims.X || b.Dy() != v.dims.Y {
			return fmt.Errorf("slice %d (%s) is %dx%d, mask is %dx%d",
				z, name, b.Dx(), b.Dy(), v.dims.X, v.dims.Y)
		}
		v.scanSlice(img, fn)
	}
	return nil
}

// scanSlice feeds one slice row by row. Gray images are read straight from
// their pixel buffers.
func (v *DirVolume) scanSlice(img image.Image, fn func(value int32)) {
	b := img.Bounds()
	switch src := img.(type) {
	case *image.Gray:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):]
			for x := 0; x < b.Dx(); x++ {
				fn(v.label(row[x]))
			}
		}
	case *image.Gray16:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):]
			for x := 0; x < b.Dx(); x++ {
				fn(v.label(row[2*x]))
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y >> 8
				fn(v.label(uint8(g)))
			}
		}
	}
}

func (v *DirVolume) label(g uint8) int32 {
	if g <= v.Threshold {
		return 0
	}
	return int32(g)
}

// Load reads a whole mask directory into memory
func Load(dir string, threshold uint8) (*models.LabelVolume, error) {
	dv, err := Open(dir, threshold)
	if err != nil {
		return nil, err
	}
	vol := models.NewLabelVolume(dv.Dims())
	i := 0
	if err := dv.Scan(func(value int32) {
		vol.Data[i] = value
		i++
	}); err != nil {
		return nil, err
	}
	return vol, nil
}

// OpenAll opens several mask directories concurrently, at most workers at a
// time. The returned slice keeps the order of dirs; an entry is nil when its
// directory could not be opened, and the matching error is in errs.
func OpenAll(ctx context.Context, dirs []string, threshold uint8, workers int) (vols []*DirVolume, errs []error) {
	vols = make([]*DirVolume, len(dirs))
	errs = make([]error, len(dirs))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, dir := range dirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			vols[i], errs[i] = Open(dir, threshold)
			return nil
		})
	}
	_ = g.Wait()
	return vols, errs
}

// Save writes vol as a mask directory of PNG slices named slice_000.png and
// up. Labels are clamped to the 8-bit gray range.
func Save(dir string, vol *models.LabelVolume) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create mask directory: %w", err)
	}
	d := vol.Dims()
	for z := 0; z < d.Z; z++ {
		img := image.NewGray(image.Rect(0, 0, d.X, d.Y))
		for y := 0; y < d.Y; y++ {
			for x := 0; x < d.X; x++ {
				value := vol.At(x, y, z)
				img.SetGray(x, y, color.Gray{Y: uint8(max(0, min(255, value)))})
			}
		}
		if err := savePNG(filepath.Join(dir, fmt.Sprintf("slice_%03d.png", z)), img); err != nil {
			return err
		}
	}
	return nil
}

// extractNumber extracts the digits of a filename as one number, 0 when there
// are none
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		num, err := strconv.Atoi(numStr)
		if err == nil {
			return num
		}
	}
	return 0
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func decodeConfig(path string) (image.Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, err
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	return cfg, err
}

func savePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create slice file: %w", err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("encode slice: %w", err)
	}
	return file.Close()
}
