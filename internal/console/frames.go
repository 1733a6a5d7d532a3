package console

import (
	"fmt"
	"io"

	"pickme/internal/models"
)

// FramePrinter shows animation frames on one line, finals on their own.
type FramePrinter struct {
	out io.Writer
}

func NewFramePrinter(out io.Writer) *FramePrinter {
	return &FramePrinter{out: out}
}

func (p *FramePrinter) Frame(f models.Frame) {
	if f.Final {
		fmt.Fprintf(p.out, "\r  ★ %s\n", column(f.Label, nameWidth))
		return
	}
	fmt.Fprintf(p.out, "\r  … %s", column(f.Label, nameWidth))
}
