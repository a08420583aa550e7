package main

import (
	"fmt"
	"io"
	"strings"

	"evosculpt/internal/model"
)

const asciiRamp = " .:-=+*#%@"

// writeTruecolor draws two image rows per text row with the upper half
// block: the foreground carries the top pixel and the background the bottom.
func writeTruecolor(w io.Writer, img model.Image) {
	var b strings.Builder
	for y := 0; y < img.Height; y += 2 {
		for x := 0; x < img.Width; x++ {
			top := img.At(x, y)
			bottom := top
			if y+1 < img.Height {
				bottom = img.At(x, y+1)
			}
			fmt.Fprintf(&b, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀",
				top.R, top.G, top.B, bottom.R, bottom.G, bottom.B)
		}
		b.WriteString("\x1b[0m\n")
	}
	fmt.Fprint(w, b.String())
}

func writeASCII(w io.Writer, img model.Image) {
	var b strings.Builder
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			b.WriteByte(asciiRamp[rampIndex(img.At(x, y))])
		}
		b.WriteByte('\n')
	}
	fmt.Fprint(w, b.String())
}

func rampIndex(c model.RGB) int {
	luma := (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255
	i := int(luma * float64(len(asciiRamp)))
	if i >= len(asciiRamp) {
		i = len(asciiRamp) - 1
	}
	return i
}
