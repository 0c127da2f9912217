// Package prompt runs the interactive text-to-color loop.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/justestif/go-emotion-color/internal/classifier"
	"github.com/justestif/go-emotion-color/internal/color"
	"github.com/justestif/go-emotion-color/internal/history"
)

// Messages printed by the loop.
const (
	Greeting = "This program is designed to take some text and generate a color for you based off of emotion analysis!"
	Prompt   = "Enter some text (or type exit to end): "
	Goodbye  = "Exiting the program."
	ExitWord = "exit"
)

// maxLineBytes bounds a single input line.
const maxLineBytes = 1 << 20

// Deriver turns text into a color. *history.Service satisfies it.
type Deriver interface {
	Derive(ctx context.Context, text string) (*history.Result, error)
}

// Loop reads lines and prints the derived color for each.
type Loop struct {
	deriver Deriver
	swatch  *color.Swatch
}

// New creates a Loop.
func New(deriver Deriver, swatch *color.Swatch) *Loop {
	return &Loop{deriver: deriver, swatch: swatch}
}

// line is one read from the input: text, or the error that ended reading.
type line struct {
	text string
	err  error
}

// readLines scans in on its own goroutine so a blocked read cannot hold up
// cancellation. The channel is closed at end of input.
func readLines(in io.Reader, done <-chan struct{}) <-chan line {
	lines := make(chan line)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
		for scanner.Scan() {
			select {
			case lines <- line{text: scanner.Text()}:
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case lines <- line{err: err}:
			case <-done:
			}
		}
	}()
	return lines
}

// Run prompts until the user types the exit word, input ends, or ctx is
// cancelled. Derivation failures are printed and the loop continues.
func (l *Loop) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, Greeting)

	done := make(chan struct{})
	defer close(done)
	lines := readLines(in, done)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintf(out, "\n%s", Prompt)

		var text string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ln, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				fmt.Fprintln(out, Goodbye)
				return nil
			}
			if ln.err != nil {
				return fmt.Errorf("reading input: %w", ln.err)
			}
			text = ln.text
		}

		if strings.EqualFold(strings.TrimSpace(text), ExitWord) {
			fmt.Fprintln(out, Goodbye)
			return nil
		}

		result, err := l.deriver.Derive(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, "Emotion Percentages:")
		fmt.Fprint(out, classifier.FormatPercentages(result.Distribution))
		fmt.Fprintln(out, l.swatch.Render(result.Color))
	}
}
