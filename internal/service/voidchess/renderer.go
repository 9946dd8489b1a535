package voidchess

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"math"
	"sort"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	corechess "github.com/park285/void-chess/internal/chess"
)

const DefaultTheme = "classic"

// BoardTheme colours the board itself. Overlays are shared by every theme.
type BoardTheme struct {
	Name       string
	Light      color.RGBA
	Dark       color.RGBA
	Background color.RGBA
	Coordinate color.NRGBA
}

var boardThemes = map[string]BoardTheme{
	"classic": {Name: "classic", Light: color.RGBA{240, 217, 181, 255}, Dark: color.RGBA{181, 136, 99, 255}, Background: color.RGBA{24, 26, 36, 255}, Coordinate: color.NRGBA{220, 210, 190, 255}},
	"marble":  {Name: "marble", Light: color.RGBA{236, 236, 232, 255}, Dark: color.RGBA{150, 156, 164, 255}, Background: color.RGBA{38, 40, 46, 255}, Coordinate: color.NRGBA{226, 228, 232, 255}},
	"wood":    {Name: "wood", Light: color.RGBA{233, 207, 163, 255}, Dark: color.RGBA{187, 136, 96, 255}, Background: color.RGBA{52, 36, 24, 255}, Coordinate: color.NRGBA{240, 214, 170, 255}},
	"glass":   {Name: "glass", Light: color.RGBA{196, 224, 240, 255}, Dark: color.RGBA{92, 140, 178, 255}, Background: color.RGBA{18, 30, 44, 255}, Coordinate: color.NRGBA{180, 220, 250, 255}},
	"neon":    {Name: "neon", Light: color.RGBA{54, 58, 88, 255}, Dark: color.RGBA{22, 24, 40, 255}, Background: color.RGBA{8, 8, 16, 255}, Coordinate: color.NRGBA{8, 214, 120, 255}},
	"royal":   {Name: "royal", Light: color.RGBA{232, 220, 244, 255}, Dark: color.RGBA{120, 82, 160, 255}, Background: color.RGBA{30, 18, 44, 255}, Coordinate: color.NRGBA{238, 206, 120, 255}},
}

// LookupTheme resolves a theme name. Unknown names fall back to classic.
func LookupTheme(name string) (BoardTheme, bool) {
	t, ok := boardThemes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return boardThemes[DefaultTheme], false
	}
	return t, true
}

func ThemeNames() []string {
	names := make([]string, 0, len(boardThemes))
	for name := range boardThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type MoveHighlight struct {
	From corechess.Position
	To   corechess.Position
}

type RenderOptions struct {
	Theme        string
	LastMove     *MoveHighlight
	Hint         *MoveHighlight
	Selected     *corechess.Position
	Destinations []corechess.Position
	Checking     []corechess.Position
	CheckedKing  *corechess.Position
	HUDHeader    string
	HUDTurn      string
	HUDFooter    string
	Material     int
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, board *corechess.Board, opts RenderOptions) ([]byte, error)
}

type svgBoardRenderer struct{}

func NewSVGBoardRenderer() BoardRenderer {
	return &svgBoardRenderer{}
}

var (
	lastMoveFill     = color.NRGBA{R: 255, G: 228, B: 120, A: 120}
	selectedFill     = color.NRGBA{R: 120, G: 200, B: 255, A: 130}
	destinationDot   = color.NRGBA{R: 20, G: 20, B: 20, A: 90}
	checkFill        = color.NRGBA{R: 230, G: 40, B: 40, A: 140}
	attackerFill     = color.NRGBA{R: 255, G: 110, B: 60, A: 110}
	hintArrow        = color.NRGBA{R: 148, G: 207, B: 255, A: 180}
	hudPanelColor    = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudShadowColor   = color.NRGBA{0, 0, 0, 50}
	hudTextPrimary   = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTextSecondary = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
)

const (
	squareSize   = 64
	sideMargin   = 28
	topMargin    = 64
	bottomMargin = 56
	boardSize    = squareSize * 8
	panelHeight  = 28
	panelRadius  = 8
	panelPadding = 14
)

func (r *svgBoardRenderer) RenderPNG(ctx context.Context, board *corechess.Board, opts RenderOptions) ([]byte, error) {
	if board == nil {
		return nil, fmt.Errorf("board is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	theme, _ := LookupTheme(opts.Theme)
	origin := image.Point{X: sideMargin, Y: topMargin}
	boardRect := image.Rect(origin.X, origin.Y, origin.X+boardSize, origin.Y+boardSize)

	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(theme.Background), image.Point{}, imagedraw.Src)

	drawSquares(img, theme, origin)
	if opts.LastMove != nil {
		drawSquareOverlay(img, opts.LastMove.From, origin, lastMoveFill)
		drawSquareOverlay(img, opts.LastMove.To, origin, lastMoveFill)
	}
	if opts.Selected != nil {
		drawSquareOverlay(img, *opts.Selected, origin, selectedFill)
	}
	for _, sq := range opts.Checking {
		drawSquareOverlay(img, sq, origin, attackerFill)
	}
	if opts.CheckedKing != nil {
		drawSquareOverlay(img, *opts.CheckedKing, origin, checkFill)
	}
	if err := drawPieces(img, board, origin); err != nil {
		return nil, err
	}
	for _, sq := range opts.Destinations {
		c := squareCenter(sq, origin)
		drawDisc(img, c, squareSize/7, destinationDot)
	}
	if opts.Hint != nil {
		drawArrow(img, opts.Hint.From, opts.Hint.To, origin, hintArrow)
	}
	drawCoordinates(img, theme, origin)
	drawHUD(img, opts, boardRect)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawSquares(dst imagedraw.Image, theme BoardTheme, origin image.Point) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			clr := theme.Light
			if (row+col)%2 == 1 {
				clr = theme.Dark
			}
			imagedraw.Draw(dst, squareRect(corechess.Sq(row, col), origin), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, board *corechess.Board, origin image.Point) error {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			pos := corechess.Sq(row, col)
			p := board.At(pos)
			if p == nil {
				continue
			}
			img, err := renderPieceImage(*p, squareSize)
			if err != nil {
				return err
			}
			imagedraw.Draw(dst, squareRect(pos, origin), img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawHUD(img *image.RGBA, opts RenderOptions, boardRect image.Rectangle) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: img, Face: face}

	title := strings.TrimSpace(opts.HUDHeader)
	if title == "" {
		title = "Void Chess"
	}
	turn := strings.TrimSpace(opts.HUDTurn)
	score := formatMaterialDiff(opts.Material)

	top := boardRect.Min.Y - panelHeight - 14
	scoreWidth := drawer.MeasureString(score).Round() + panelPadding*2
	scoreRect := image.Rect(boardRect.Max.X-scoreWidth, top, boardRect.Max.X, top+panelHeight)

	titleWidth := drawer.MeasureString(title).Round() + panelPadding*2
	if limit := boardRect.Dx()/2 - 8; titleWidth > limit {
		titleWidth = limit
	}
	titleRect := image.Rect(boardRect.Min.X, top, boardRect.Min.X+titleWidth, top+panelHeight)

	for _, rect := range []image.Rectangle{titleRect, scoreRect} {
		drawRoundedPanel(img, rect.Add(image.Pt(0, 3)), panelRadius, hudShadowColor)
		drawRoundedPanel(img, rect, panelRadius, hudPanelColor)
	}
	drawCenteredString(drawer, titleRect, truncateWithEllipsis(face, title, titleRect.Dx()-panelPadding*2), hudTextPrimary)
	drawCenteredString(drawer, scoreRect, score, hudTextPrimary)

	if turn != "" {
		width := drawer.MeasureString(turn).Round() + panelPadding*2
		left := titleRect.Max.X + (scoreRect.Min.X-titleRect.Max.X-width)/2
		if left < titleRect.Max.X+4 {
			left = titleRect.Max.X + 4
		}
		turnRect := image.Rect(left, top, left+width, top+panelHeight)
		if turnRect.Max.X > scoreRect.Min.X-4 {
			turnRect.Max.X = scoreRect.Min.X - 4
		}
		drawRoundedPanel(img, turnRect, panelRadius, hudPanelColor)
		drawCenteredString(drawer, turnRect, truncateWithEllipsis(face, turn, turnRect.Dx()-8), hudTextSecondary)
	}

	if footer := strings.TrimSpace(opts.HUDFooter); footer != "" {
		footerTop := boardRect.Max.Y + 24
		footerRect := image.Rect(boardRect.Min.X, footerTop, boardRect.Max.X, footerTop+panelHeight)
		drawRoundedPanel(img, footerRect, panelRadius, hudPanelColor)
		drawCenteredString(drawer, footerRect, truncateWithEllipsis(face, footer, footerRect.Dx()-panelPadding*2), hudTextSecondary)
	}
}

func drawCoordinates(dst imagedraw.Image, theme BoardTheme, origin image.Point) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(theme.Coordinate)}
	ascent := face.Metrics().Ascent.Ceil()
	for i := 0; i < 8; i++ {
		pos := corechess.Sq(i, i)
		rank := fmt.Sprintf("%d", pos.Rank())
		file := string(pos.File())
		center := origin.Y + i*squareSize + squareSize/2
		drawCenteredText(drawer, rank, origin.X-sideMargin/2, center+ascent/2)
		drawCenteredText(drawer, file, origin.X+i*squareSize+squareSize/2, origin.Y+boardSize+ascent+4)
	}
}

func formatMaterialDiff(diff int) string {
	if diff == 0 {
		return "0"
	}
	return fmt.Sprintf("%+d", diff)
}

func squareRect(pos corechess.Position, origin image.Point) image.Rectangle {
	x := origin.X + pos.Col*squareSize
	y := origin.Y + pos.Row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func squareCenter(pos corechess.Position, origin image.Point) image.Point {
	r := squareRect(pos, origin)
	return image.Pt(r.Min.X+squareSize/2, r.Min.Y+squareSize/2)
}

func drawSquareOverlay(img *image.RGBA, pos corechess.Position, origin image.Point, clr color.Color) {
	if !pos.Valid() {
		return
	}
	imagedraw.Draw(img, squareRect(pos, origin), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawArrow(img *image.RGBA, from, to corechess.Position, origin image.Point, clr color.Color) {
	if from == to {
		return
	}
	start, end := squareCenter(from, origin), squareCenter(to, origin)
	dx := float64(end.X - start.X)
	dy := float64(end.Y - start.Y)
	length := math.Hypot(dx, dy)
	dirX, dirY := dx/length, dy/length
	perpX, perpY := -dirY, dirX

	shaft := length - float64(squareSize)*0.45
	if shaft < float64(squareSize)*0.35 {
		shaft = length * 0.6
	}
	half := float64(squareSize) * 0.12
	head := float64(squareSize) * 0.28

	sx, sy := float64(start.X), float64(start.Y)
	bx, by := sx+dirX*shaft, sy+dirY*shaft

	fillTriangle(img, pointF{sx - perpX*half, sy - perpY*half}, pointF{sx + perpX*half, sy + perpY*half}, pointF{bx + perpX*half, by + perpY*half}, clr)
	fillTriangle(img, pointF{sx - perpX*half, sy - perpY*half}, pointF{bx + perpX*half, by + perpY*half}, pointF{bx - perpX*half, by - perpY*half}, clr)
	fillTriangle(img, pointF{float64(end.X), float64(end.Y)}, pointF{bx - perpX*head, by - perpY*head}, pointF{bx + perpX*head, by + perpY*head}, clr)
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	drawer := font.Drawer{Face: face}
	if maxWidth <= 0 || drawer.MeasureString(text).Round() <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ""
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if rect.Empty() {
		return
	}
	if m := min(rect.Dx(), rect.Dy()) / 2; radius > m {
		radius = m
	}
	fill := image.NewUniform(clr)
	imagedraw.Draw(img, image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	corners := []struct{ cx, cy, qx, qy int }{
		{rect.Min.X + radius, rect.Min.Y + radius, -1, -1},
		{rect.Max.X - radius - 1, rect.Min.Y + radius, 1, -1},
		{rect.Min.X + radius, rect.Max.Y - radius - 1, -1, 1},
		{rect.Max.X - radius - 1, rect.Max.Y - radius - 1, 1, 1},
	}
	r2 := radius * radius
	for _, c := range corners {
		for y := 1; y <= radius; y++ {
			for x := 1; x <= radius; x++ {
				if x*x+y*y <= r2 {
					blendPixel(img, c.cx+c.qx*x, c.cy+c.qy*y, clr)
				}
			}
		}
	}
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	if text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := max(rect.Min.X+(rect.Dx()-width)/2, rect.Min.X)
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func drawDisc(img *image.RGBA, center image.Point, radius int, clr color.Color) {
	r2 := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y <= r2 {
				blendPixel(img, center.X+x, center.Y+y, clr)
			}
		}
	}
}

// blendPixel composites clr over the pixel at (x, y).
func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	dst := img.RGBAAt(x, y)
	inv := 0xffff - sa
	mix := func(s uint32, d uint8) uint8 {
		return uint8((s + uint32(d)*0x101*inv/0xffff) >> 8)
	}
	img.SetRGBA(x, y, color.RGBA{
		R: mix(sr, dst.R),
		G: mix(sg, dst.G),
		B: mix(sb, dst.B),
		A: mix(sa, dst.A),
	})
}

type pointF struct {
	X float64
	Y float64
}

func fillTriangle(img *image.RGBA, a, b, c pointF, clr color.Color) {
	minX := int(math.Floor(math.Min(a.X, math.Min(b.X, c.X))))
	maxX := int(math.Ceil(math.Max(a.X, math.Max(b.X, c.X))))
	minY := int(math.Floor(math.Min(a.Y, math.Min(b.Y, c.Y))))
	maxY := int(math.Ceil(math.Max(a.Y, math.Max(b.Y, c.Y))))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if insideTriangle(float64(x)+0.5, float64(y)+0.5, a, b, c) {
				blendPixel(img, x, y, clr)
			}
		}
	}
}

func insideTriangle(x, y float64, a, b, c pointF) bool {
	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if denom == 0 {
		return false
	}
	alpha := ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / denom
	beta := ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / denom
	return alpha >= 0 && beta >= 0 && 1-alpha-beta >= 0
}
