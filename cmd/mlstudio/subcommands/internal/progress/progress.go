// Package progress draws percentage bars on a terminal.
package progress

import (
	"io"

	pb "github.com/cheggaaa/pb/v3"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/render"
)

const template = `{{ string . "prefix" }} {{ bar . }} {{ percent . }}`

// Bar is a progress bar running from 0 to 100.
type Bar struct {
	bar *pb.ProgressBar
}

// Start draws a new bar onto w.
func Start(w io.Writer) (*Bar, error) {
	bar := pb.New(100)
	bar.SetTemplateString(template)
	bar.SetWriter(w)
	if err := bar.Err(); err != nil {
		return nil, err
	}
	bar.Start()
	return &Bar{bar: bar}, nil
}

// Set moves the bar to percent, labelled with what is in progress.
//
// Values out of 0..100 are clamped. An empty label clears the label.
func (b *Bar) Set(percent int, label string) {
	b.bar.SetCurrent(int64(min(max(percent, 0), 100)))
	if label == "" {
		b.bar.Set("prefix", "")
	} else {
		b.bar.Set("prefix", render.Ellipsis(label, 40)+":")
	}
}

// Current returns the value where the bar is.
func (b *Bar) Current() int {
	return int(b.bar.Current())
}

// Finish stops drawing.
func (b *Bar) Finish() {
	b.bar.Finish()
}
