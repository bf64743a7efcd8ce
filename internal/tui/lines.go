package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/monolythium/ubuntu-fetcher/internal/core"
)

// LineSession runs the interactive loop over plain text streams. It is used
// when stdin is not a terminal.
type LineSession struct {
	In        io.Reader
	Out       io.Writer
	Fetcher   Fetcher
	Directory string

	fetched int
}

type readStatus int

const (
	readOK readStatus = iota
	readEOF
	readInterrupted
)

// Run loops until the user quits, declines to continue, input ends or ctx
// is cancelled. It reports how the session ended.
func (s *LineSession) Run(ctx context.Context) (Farewell, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	errc := make(chan error, 1)
	go scanLines(ctx, s.In, lines, errc)

	read := func(prompt string) (string, readStatus) {
		fmt.Fprint(s.Out, prompt)
		select {
		case <-ctx.Done():
			return "", readInterrupted
		case text, ok := <-lines:
			if !ok {
				return "", readEOF
			}
			return strings.TrimSpace(text), readOK
		}
	}

	s.printLines(bannerBox())
	fmt.Fprintln(s.Out)
	s.printLines(welcomeLines)
	fmt.Fprintln(s.Out)

	farewell := s.loop(ctx, read)

	if ls := farewell.lines(); len(ls) > 0 {
		fmt.Fprint(s.Out, "\n\n")
		s.printLines(ls)
	}
	fmt.Fprintln(s.Out)
	s.printLines(closingLines)

	select {
	case err := <-errc:
		if err != nil {
			return farewell, err
		}
	default:
	}
	return farewell, nil
}

func (s *LineSession) loop(ctx context.Context, read func(string) (string, readStatus)) Farewell {
	for {
		value, st := read(urlPrompt)
		if f, stop := endOf(st); stop {
			return f
		}
		if isQuit(value) {
			return FarewellQuit
		}
		if notice := checkInput(value); notice != "" {
			fmt.Fprintln(s.Out, notice)
			continue
		}

		fmt.Fprintln(s.Out)
		fmt.Fprintln(s.Out, separator)
		result := s.Fetcher.Fetch(ctx, core.DownloadRequest{URL: value, Directory: s.Directory}, s.progress)
		for _, l := range outcomeLines(result) {
			fmt.Fprintln(s.Out, l.text)
		}
		fmt.Fprintln(s.Out, separator)
		fmt.Fprintln(s.Out)
		if result.Success {
			s.fetched++
		}

		answer, st := read(nextPrompt(result))
		if f, stop := endOf(st); stop {
			return f
		}
		if !isYes(answer) {
			return FarewellDeclined
		}
	}
}

// Fetched returns the number of images saved during the session.
func (s *LineSession) Fetched() int { return s.fetched }

func (s *LineSession) progress(step, message string) {
	if text, ok := progressLine(step, message); ok {
		fmt.Fprintln(s.Out, text)
	}
}

func (s *LineSession) printLines(ls []string) {
	for _, l := range ls {
		fmt.Fprintln(s.Out, l)
	}
}

// scanLines feeds lines from r until input ends or ctx is done. A Read
// already blocked on r is not interrupted.
func scanLines(ctx context.Context, r io.Reader, lines chan<- string, errc chan<- error) {
	defer close(lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	errc <- scanner.Err()
}

func endOf(st readStatus) (Farewell, bool) {
	switch st {
	case readEOF:
		return FarewellEOF, true
	case readInterrupted:
		return FarewellInterrupt, true
	}
	return FarewellNone, false
}

// bannerBox draws the banner with box characters for plain output.
func bannerBox() []string {
	const width = 62
	out := []string{"╔" + strings.Repeat("═", width) + "╗"}
	for _, l := range bannerLines {
		n := len([]rune(l))
		left := (width - n) / 2
		out = append(out, "║"+strings.Repeat(" ", left)+l+strings.Repeat(" ", width-n-left)+"║")
	}
	out = append(out, "╚"+strings.Repeat("═", width)+"╝")
	return out
}
