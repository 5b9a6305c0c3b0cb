package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	titleHeight  = 30
	headerHeight = 20
	headerGap    = 5
	labelHeight  = 15
	margin       = 10
	scrollStep   = 20
)

// widget is implemented by Slider, Checkbox and Button.
type widget interface {
	Update()
	Draw(screen *ebiten.Image)
	rowHeight() float64
	place(x, y float64)
}

type row struct {
	label   string
	widget  widget
	y       float64 // top of the label, screen coordinates
	visible bool
}

// section is a titled group of rows. Clicking its header folds it.
type section struct {
	title     string
	collapsed bool
	rows      []*row
	headerY   float64
}

// UIPanel is a scrollable column of collapsible sections.
// Widget positions are recomputed every frame, so the rows a widget is hit-tested
// against are the rows it is drawn in.
type UIPanel struct {
	Title         string
	X, Y          float64
	Width, Height float64
	ScrollOffset  float64

	BGColor     color.RGBA
	BorderColor color.RGBA
	HeaderColor color.RGBA

	sections []*section
	open     *section
}

// NewUIPanel creates an empty panel.
func NewUIPanel(title string, x, y, width, height float64) *UIPanel {
	return &UIPanel{
		Title:       title,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
		HeaderColor: color.RGBA{R: 60, G: 60, B: 70, A: 255},
	}
}

// AddSection starts a section; widgets added next belong to it.
func (p *UIPanel) AddSection(title string) {
	p.open = &section{title: title}
	p.sections = append(p.sections, p.open)
}

// EndSection closes the current section. Widgets added after it go to an
// untitled section that cannot be folded.
func (p *UIPanel) EndSection() {
	p.open = nil
}

func (p *UIPanel) add(label string, w widget) {
	if p.open == nil {
		p.AddSection("")
	}
	p.open.rows = append(p.open.rows, &row{label: label, widget: w})
}

// AddSlider adds a full-width slider.
func (p *UIPanel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(p.X+margin, p.Y, p.Width-2*margin, label, min, max, value)
	p.add(label, s)
	return s
}

// AddCheckbox adds a checkbox with its label above it.
func (p *UIPanel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(p.X+margin, p.Y, label, value)
	p.add(label, c)
	return c
}

// AddButton adds a full-width button. The label is drawn on the button itself.
func (p *UIPanel) AddButton(label string, onClick func()) *Button {
	b := NewButton(p.X+margin, p.Y, p.Width-2*margin, 20, label, onClick)
	p.add("", b)
	return b
}

// Update scrolls and folds the panel, then forwards input to the visible widgets.
func (p *UIPanel) Update() {
	mx, my := ebiten.CursorPosition()
	over := p.contains(float64(mx), float64(my))

	if _, dy := ebiten.Wheel(); dy != 0 && over {
		p.ScrollOffset -= dy * scrollStep
	}
	p.ScrollOffset = max(0, min(p.ScrollOffset, p.maxScroll()))
	p.layout()

	if over && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if sec := p.headerAt(float64(my)); sec != nil {
			sec.collapsed = !sec.collapsed
			p.layout()
			return
		}
	}

	for _, sec := range p.sections {
		for _, r := range sec.rows {
			if r.visible {
				r.widget.Update()
			}
		}
	}
}

// Draw renders the panel.
func (p *UIPanel) Draw(screen *ebiten.Image) {
	p.layout()

	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), p.BGColor, true)
	vector.StrokeRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), 2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+margin), int(p.Y+5))

	for _, sec := range p.sections {
		if sec.title != "" && p.inView(sec.headerY, headerHeight) {
			vector.FillRect(screen, float32(p.X+5), float32(sec.headerY), float32(p.Width-10), headerHeight, p.HeaderColor, true)
			marker := "- "
			if sec.collapsed {
				marker = "+ "
			}
			ebitenutil.DebugPrintAt(screen, marker+sec.title, int(p.X+margin), int(sec.headerY+3))
		}
		for _, r := range sec.rows {
			if !r.visible {
				continue
			}
			if r.label != "" {
				ebitenutil.DebugPrintAt(screen, r.label, int(p.X+margin), int(r.y))
			}
			r.widget.Draw(screen)
		}
	}
}

// layout walks the sections top to bottom and moves every widget to its row.
// It returns the height of the content, title included.
func (p *UIPanel) layout() float64 {
	top := p.Y + titleHeight - p.ScrollOffset
	y := top
	for _, sec := range p.sections {
		if sec.title != "" {
			sec.headerY = y
			y += headerHeight + headerGap
		}
		for _, r := range sec.rows {
			if sec.collapsed {
				r.visible = false
				continue
			}
			h := r.widget.rowHeight()
			r.y = y
			if r.label != "" {
				r.widget.place(p.X+margin, y+labelHeight)
			} else {
				r.widget.place(p.X+margin, y)
			}
			r.visible = p.inView(y, h)
			y += h
		}
	}
	return y - top + titleHeight
}

func (p *UIPanel) maxScroll() float64 {
	saved := p.ScrollOffset
	p.ScrollOffset = 0
	content := p.layout()
	p.ScrollOffset = saved
	return max(0, content-p.Height+margin)
}

// inView reports whether a band of height h starting at y lies fully below the
// title and above the bottom border.
func (p *UIPanel) inView(y, h float64) bool {
	return y >= p.Y+titleHeight-labelHeight && y+h <= p.Y+p.Height
}

func (p *UIPanel) contains(x, y float64) bool {
	return x >= p.X && x <= p.X+p.Width && y >= p.Y && y <= p.Y+p.Height
}

func (p *UIPanel) headerAt(y float64) *section {
	for _, sec := range p.sections {
		if sec.title != "" && y >= sec.headerY && y < sec.headerY+headerHeight && p.inView(sec.headerY, headerHeight) {
			return sec
		}
	}
	return nil
}
