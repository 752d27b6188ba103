package main

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

const (
	progressBarWidth       = 40
	progressBarThrottle    = 65 * 1000000
	progressBarSpinnerType = 14
)

// progressTracker renders transfer progress as a terminal progress bar.
type progressTracker struct {
	bar *progressbar.ProgressBar
	max int64
}

func newProgressTracker(w io.Writer, description string, size int64) *progressTracker {
	if size <= 0 {
		size = -1
	}
	bar := progressbar.NewOptions64(
		size,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(progressBarWidth),
		progressbar.OptionThrottle(progressBarThrottle),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSpinnerType(progressBarSpinnerType),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &progressTracker{bar: bar, max: size}
}

func (p *progressTracker) Update(bytesTransferred, totalBytes int64) {
	if totalBytes > 0 && totalBytes != p.max {
		p.max = totalBytes
		p.bar.ChangeMax64(totalBytes)
	}
	_ = p.bar.Set64(bytesTransferred)
}

func (p *progressTracker) Complete() {
	_ = p.bar.Finish()
}

func (p *progressTracker) Error(error) {
	_ = p.bar.Exit()
}
