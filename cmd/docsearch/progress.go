package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/f4ah6o/docsearch-go/internal/extractor"
)

// newProgress returns a progress bar on an interactive terminal and
// periodic log lines otherwise.
func newProgress() extractor.Progress {
	if isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("CI") == "" {
		return &barProgress{}
	}
	return &logProgress{}
}

type barProgress struct {
	bar *progressbar.ProgressBar
}

func (p *barProgress) Start(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Indexing"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *barProgress) Advance(file string) {
	if p.bar != nil {
		p.bar.Describe(filepath.Base(file))
		_ = p.bar.Add(1)
	}
}

func (p *barProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

type logProgress struct {
	total, done int
}

func (p *logProgress) Start(total int) {
	p.total = total
	log.Printf("Scanning %d files", total)
}

func (p *logProgress) Advance(file string) {
	p.done++
	if p.done%100 == 0 {
		log.Printf("[%d/%d] %s", p.done, p.total, file)
	}
}

func (p *logProgress) Finish() {}
