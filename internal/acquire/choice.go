package acquire

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Choice is the user's answer to the download prompt.
type Choice int

const (
	ChoiceCancel Choice = iota
	ChoiceLarge
	ChoiceSmall
)

func (c Choice) String() string {
	switch c {
	case ChoiceLarge:
		return "large"
	case ChoiceSmall:
		return "small"
	default:
		return "cancel"
	}
}

// Model returns the source model a download choice maps to.
func (c Choice) Model() (string, bool) {
	switch c {
	case ChoiceLarge:
		return "yolox_x", true
	case ChoiceSmall:
		return "yolox_s", true
	default:
		return "", false
	}
}

// ParseChoice maps typed input to a Choice. Anything unrecognised cancels.
func ParseChoice(input string) Choice {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes", "l", "large", "x":
		return ChoiceLarge
	case "s", "small":
		return ChoiceSmall
	default:
		return ChoiceCancel
	}
}

// Prompter asks the user to pick one of the bounded choices.
type Prompter interface {
	Choose(ctx context.Context, prompt string) (Choice, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, prompt string) (Choice, error)

// Choose calls f.
func (f PrompterFunc) Choose(ctx context.Context, prompt string) (Choice, error) {
	return f(ctx, prompt)
}

// StaticPrompter always answers with the same choice. Used for
// non-interactive runs and tests.
type StaticPrompter struct {
	Answer Choice
	Calls  int
}

// Choose returns the configured answer.
func (p *StaticPrompter) Choose(ctx context.Context, prompt string) (Choice, error) {
	p.Calls++
	return p.Answer, nil
}

// DownloadPrompt is the menu shown when no weights are found.
func DownloadPrompt(sources []Source) string {
	large, small := "~378MB", "~35MB"
	if s, err := LookupSource(sources, "yolox_x"); err == nil {
		large = s.SizeLabel
	}
	if s, err := LookupSource(sources, "yolox_s"); err == nil {
		small = s.SizeLabel
	}

	var b strings.Builder
	b.WriteString("Do you want to download weights now?\n")
	fmt.Fprintf(&b, "  [y] Yes - download yolox_x (recommended, %s)\n", large)
	fmt.Fprintf(&b, "  [s] Download yolox_s (smaller, %s)\n", small)
	b.WriteString("  [n] No - exit\n")
	b.WriteString("\nChoice [y/s/n]: ")
	return b.String()
}

// TerminalPrompter prints the prompt to Out and reads one line from In.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

// Choose reads a single answer. EOF or an interrupt while waiting is a
// cancel; the interrupt is also returned as ctx.Err().
func (p *TerminalPrompter) Choose(ctx context.Context, prompt string) (Choice, error) {
	fmt.Fprint(p.Out, prompt)

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		ch <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.Out)
		return ChoiceCancel, ctx.Err()
	case a := <-ch:
		if a.err != nil && a.err != io.EOF {
			return ChoiceCancel, fmt.Errorf("failed to read choice: %w", a.err)
		}
		return ParseChoice(a.line), nil
	}
}
