package export

import (
	"encoding/binary"
	"errors"
	"image"
	"io"
)

const tgaHeaderSize = 18

// EncodeTGA writes img as an uncompressed 24-bit truecolor TGA with a
// top-left origin.
func EncodeTGA(w io.Writer, img image.Image) error {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 || width > 0xffff || height > 0xffff {
		return errors.New("tga dimensions out of range")
	}

	header := make([]byte, tgaHeaderSize)
	header[2] = 2 // uncompressed truecolor
	binary.LittleEndian.PutUint16(header[12:], uint16(width))
	binary.LittleEndian.PutUint16(header[14:], uint16(height))
	header[16] = 24
	header[17] = 0x20 // top-left origin
	if _, err := w.Write(header); err != nil {
		return err
	}

	row := make([]byte, width*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			i := (x - b.Min.X) * 3
			row[i] = byte(bl >> 8)
			row[i+1] = byte(g >> 8)
			row[i+2] = byte(r >> 8)
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
