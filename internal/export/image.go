// Package export writes phenotypes and sculpt meshes to files that other
// tools can open.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"evosculpt/internal/model"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// ImageFormats lists the extensions WriteImage understands.
func ImageFormats() []string {
	return []string{".png", ".bmp", ".tga"}
}

// Upscale enlarges img by an integer factor with nearest-neighbour sampling
// so phenotype pixels stay crisp.
func Upscale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// WriteImage encodes img by the extension of path.
func WriteImage(path string, img model.Image, upscale int) error {
	ext := strings.ToLower(filepath.Ext(path))
	encode, err := encoderFor(ext)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	if err := encode(w, Upscale(img.ToNRGBA(), upscale)); err != nil {
		_ = file.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func encoderFor(ext string) (func(io.Writer, image.Image) error, error) {
	switch ext {
	case ".png":
		return png.Encode, nil
	case ".bmp":
		return bmp.Encode, nil
	case ".tga":
		return EncodeTGA, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
