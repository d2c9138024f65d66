// Package console reads prompted numeric input and prints labelled results.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNoInput is returned when the input ends before a value is read.
var ErrNoInput = errors.New("no input")

// Prompter writes a label and reads one value per line.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter creates a Prompter reading from r and prompting on w.
func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewScanner(r),
		out: w,
	}
}

// Float prompts with label until a real number is entered.
func (p *Prompter) Float(label string) (float64, error) {
	for {
		line, err := p.read(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(line, 64)
		if err == nil {
			return v, nil
		}
		fmt.Fprintf(p.out, "%q is not a number\n", line)
	}
}

// Count prompts with label until a non-negative integer is entered.
// Zero is accepted here; the estimator rejects it.
func (p *Prompter) Count(label string) (int, error) {
	for {
		line, err := p.read(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(line)
		if err == nil && v >= 0 {
			return v, nil
		}
		fmt.Fprintf(p.out, "%q is not a non-negative integer\n", line)
	}
}

func (p *Prompter) read(label string) (string, error) {
	fmt.Fprint(p.out, label)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", fmt.Errorf("reading %q: %w", strings.TrimSpace(label), err)
		}
		return "", fmt.Errorf("reading %q: %w", strings.TrimSpace(label), ErrNoInput)
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// Print writes label followed by value on one line.
func Print(w io.Writer, label string, value any) error {
	_, err := fmt.Fprintln(w, label, value)
	return err
}
