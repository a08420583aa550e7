package export

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"evosculpt/internal/model"
)

const sheetGap = 4

var (
	sheetBackground = color.NRGBA{R: 24, G: 24, B: 24, A: 255}
	sheetLabel      = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	sheetSelected   = color.NRGBA{R: 250, G: 200, B: 40, A: 255}
)

// ContactSheet lays images out on a grid x grid board, row-major, the way
// the viewer shows the population. Selected cells get a highlighted frame.
func ContactSheet(images []model.Image, grid, upscale int, selected []bool) (*image.NRGBA, error) {
	if len(images) == 0 || grid <= 0 {
		return nil, errors.New("contact sheet needs at least one image")
	}
	upscale = max(upscale, 1)
	cellW := images[0].Width * upscale
	cellH := images[0].Height * upscale
	rows := (len(images) + grid - 1) / grid
	sheet := image.NewNRGBA(image.Rect(0, 0, grid*(cellW+sheetGap)+sheetGap, rows*(cellH+sheetGap)+sheetGap))
	draw.Draw(sheet, sheet.Bounds(), image.NewUniform(sheetBackground), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	for i, img := range images {
		x0 := sheetGap + (i%grid)*(cellW+sheetGap)
		y0 := sheetGap + (i/grid)*(cellH+sheetGap)
		cell := image.Rect(x0, y0, x0+cellW, y0+cellH)
		if i < len(selected) && selected[i] {
			frame := cell.Inset(-sheetGap / 2)
			draw.Draw(sheet, frame, image.NewUniform(sheetSelected), image.Point{}, draw.Src)
		}
		draw.NearestNeighbor.Scale(sheet, cell, img.ToNRGBA(), image.Rect(0, 0, img.Width, img.Height), draw.Src, nil)

		d := font.Drawer{
			Dst:  sheet,
			Src:  image.NewUniform(sheetLabel),
			Face: face,
			Dot:  fixed.P(x0+2, y0+face.Ascent+1),
		}
		d.DrawString(strconv.Itoa(i))
	}
	return sheet, nil
}

func WriteContactSheet(path string, images []model.Image, grid, upscale int, selected []bool) error {
	sheet, err := ContactSheet(images, grid, upscale, selected)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(file, sheet); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
