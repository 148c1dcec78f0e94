// Package console connects the engine to a plain terminal: a line reader
// for choices and a renderer that types narration out one character at a
// time.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/tatianab/island-adventure/internal/engine"
)

// ErrInterrupted is returned by ReadLine when an interrupt arrives while
// waiting for the player.
var ErrInterrupted = errors.New("interrupted")

type lineResult struct {
	line string
	err  error
}

// Reader reads one line per call. Reading is done by a single goroutine so
// a blocked read can be abandoned when ctx is done.
type Reader struct {
	src        io.Reader
	once       sync.Once
	lines      chan lineResult
	interrupts <-chan os.Signal
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{src: r, lines: make(chan lineResult)}
}

func (r *Reader) scan() {
	sc := bufio.NewScanner(r.src)
	for sc.Scan() {
		r.lines <- lineResult{line: sc.Text()}
	}
	err := sc.Err()
	if err == nil {
		err = io.EOF
	}
	r.lines <- lineResult{err: err}
	close(r.lines)
}

// InterruptOn makes ReadLine give up with ErrInterrupted when a signal
// arrives on ch.
func (r *Reader) InterruptOn(ch <-chan os.Signal) *Reader {
	r.interrupts = ch
	return r
}

// ReadLine returns the next line without its line ending. It returns io.EOF
// once the input is exhausted and ctx.Err() if ctx is done first.
func (r *Reader) ReadLine(ctx context.Context) (string, error) {
	r.once.Do(func() { go r.scan() })
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-r.interrupts:
		return "", ErrInterrupted
	case res, ok := <-r.lines:
		if !ok {
			return "", io.EOF
		}
		return res.line, res.err
	}
}

// Renderer writes game output to a terminal.
type Renderer struct {
	w          io.Writer
	delay      time.Duration
	interrupts <-chan os.Signal

	heading lipgloss.Style
	rule    lipgloss.Style
	notice  lipgloss.Style
	warn    lipgloss.Style
	prompt  lipgloss.Style
}

// NewRenderer returns a Renderer writing to w that waits delay between
// narrated characters. A zero delay writes narration at once.
func NewRenderer(w io.Writer, delay time.Duration) *Renderer {
	lr := lipgloss.NewRenderer(w)
	return &Renderer{
		w:     w,
		delay: delay,
		heading: lr.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true),
		rule: lr.NewStyle().
			Foreground(lipgloss.Color("#3C3C3C")),
		notice: lr.NewStyle().
			Foreground(lipgloss.Color("#87AF87")),
		warn: lr.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true),
		prompt: lr.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true),
	}
}

// InterruptOn makes a signal on ch cut the narration in progress short.
// Each signal stops one line; the next Narrate call types normally.
func (r *Renderer) InterruptOn(ch <-chan os.Signal) *Renderer {
	r.interrupts = ch
	return r
}

// Narrate types text out and ends the line. If an interrupt arrives or ctx
// is done part way through, the rest of the text is dropped and
// ErrRenderInterrupted is returned.
func (r *Renderer) Narrate(ctx context.Context, text string) error {
	if r.delay <= 0 {
		_, err := fmt.Fprintln(r.w, text)
		return err
	}

	for _, ch := range text {
		if _, err := io.WriteString(r.w, string(ch)); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.w)
			return fmt.Errorf("%w: %w", engine.ErrRenderInterrupted, ctx.Err())
		case sig := <-r.interrupts:
			fmt.Fprintln(r.w)
			return fmt.Errorf("%w: %v", engine.ErrRenderInterrupted, sig)
		case <-time.After(r.delay):
		}
	}
	_, err := fmt.Fprintln(r.w)
	return err
}

// Heading writes a title underlined to its display width.
func (r *Renderer) Heading(text string) {
	width := runewidth.StringWidth(text)
	fmt.Fprintf(r.w, "\n%s\n%s\n", r.heading.Render(text), r.rule.Render(strings.Repeat("─", width)))
}

func (r *Renderer) Notice(text string) {
	fmt.Fprintln(r.w, r.notice.Render(text))
}

func (r *Renderer) Warn(text string) {
	fmt.Fprintln(r.w, r.warn.Render(text))
}

func (r *Renderer) Prompt(text string) {
	fmt.Fprint(r.w, r.prompt.Render(text))
}
