package ingest

import (
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

type ProgressReporter interface {
	Start(total int)
	Increment(n int)
	Finish()
}

// EmbedProgress renders a terminal progress bar while passages are being
// embedded. A nil ProgressReporter disables reporting entirely.
type EmbedProgress struct {
	bar *progressbar.ProgressBar
}

func NewEmbedProgress(enabled bool) ProgressReporter {
	if !enabled {
		return nil
	}
	return &EmbedProgress{}
}

func (p *EmbedProgress) Start(total int) {
	if total <= 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("embedding"),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (p *EmbedProgress) Increment(n int) {
	if p.bar == nil {
		return
	}
	_ = p.bar.Add(n)
}

func (p *EmbedProgress) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}

func DefaultProgressEnabled() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
