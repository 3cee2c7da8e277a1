package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	chartWidth  = 720
	margin      = 20
	titleHeight = 30
	rowHeight   = 22
	labelWidth  = 230
	charWidth   = 7
	maxLabel    = labelWidth/charWidth - 1
)

var (
	background = color.RGBA{255, 255, 255, 255}
	textColor  = color.RGBA{33, 37, 41, 255}
	mutedColor = color.RGBA{134, 142, 150, 255}
	barColor   = color.RGBA{66, 133, 244, 255}

	palette = []color.RGBA{
		{66, 133, 244, 255},
		{219, 68, 55, 255},
		{244, 180, 0, 255},
		{15, 157, 88, 255},
		{171, 71, 188, 255},
		{0, 172, 193, 255},
		{255, 112, 67, 255},
		{158, 157, 36, 255},
	}
)

// Bar is one labelled value of a bar chart.
type Bar struct {
	Label string
	Value float64
}

// Slice is one labelled share of a pie chart.
type Slice struct {
	Label string
	Value float64
}

// BarChart draws a horizontal bar chart as PNG. Bars keep the given order.
func BarChart(w io.Writer, title string, bars []Bar) error {
	height := titleHeight + 2*margin + max(len(bars), 1)*rowHeight
	img := newCanvas(chartWidth, height)
	drawString(img, margin, margin+10, title, textColor)

	if len(bars) == 0 {
		drawString(img, margin, margin+titleHeight+14, "Sin datos", mutedColor)
		return png.Encode(w, img)
	}

	maxValue := 0.0
	for _, b := range bars {
		maxValue = math.Max(maxValue, b.Value)
	}

	plotLeft := margin + labelWidth
	plotWidth := chartWidth - plotLeft - margin - 60
	for i, b := range bars {
		top := margin + titleHeight + i*rowHeight
		drawString(img, margin, top+14, truncate(b.Label, maxLabel), textColor)

		length := 0
		if maxValue > 0 {
			length = int(math.Round(b.Value / maxValue * float64(plotWidth)))
		}
		fillRect(img, image.Rect(plotLeft, top+4, plotLeft+length, top+rowHeight-4), barColor)
		drawString(img, plotLeft+length+6, top+14, formatValue(b.Value), mutedColor)
	}

	return png.Encode(w, img)
}

// PieChart draws a pie chart with a legend of percentages as PNG.
func PieChart(w io.Writer, title string, slices []Slice) error {
	const radius = 110
	legendRows := max(len(slices), 1)
	height := max(titleHeight+2*margin+2*radius, titleHeight+2*margin+legendRows*rowHeight)
	img := newCanvas(chartWidth, height)
	drawString(img, margin, margin+10, title, textColor)

	total := 0.0
	for _, s := range slices {
		if s.Value > 0 {
			total += s.Value
		}
	}
	if total == 0 {
		drawString(img, margin, margin+titleHeight+14, "Sin datos", mutedColor)
		return png.Encode(w, img)
	}

	cx, cy := margin+radius, margin+titleHeight+radius
	bounds := make([]float64, len(slices))
	acc := 0.0
	for i, s := range slices {
		acc += math.Max(s.Value, 0) / total
		bounds[i] = acc * 2 * math.Pi
	}

	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx, dy := float64(x-cx), float64(y-cy)
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			angle := math.Atan2(dy, dx) + math.Pi/2
			if angle < 0 {
				angle += 2 * math.Pi
			}
			for i, b := range bounds {
				if angle <= b {
					img.Set(x, y, palette[i%len(palette)])
					break
				}
			}
		}
	}

	legendLeft := cx + radius + 40
	for i, s := range slices {
		top := margin + titleHeight + i*rowHeight
		fillRect(img, image.Rect(legendLeft, top+5, legendLeft+12, top+17), palette[i%len(palette)])
		pct := math.Max(s.Value, 0) / total * 100
		label := fmt.Sprintf("%s  %s (%.1f%%)", truncate(s.Label, 30), formatValue(s.Value), pct)
		drawString(img, legendLeft+20, top+15, label, textColor)
	}

	return png.Encode(w, img)
}

func newCanvas(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	return img
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func drawString(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(foldAccents(text))
}

// basicfont only covers ASCII.
var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U", "Ü", "U", "Ñ", "N",
)

func foldAccents(s string) string {
	return accentFolder.Replace(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-2]) + ".."
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
