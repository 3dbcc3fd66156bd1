package poster

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// ManualFix is a photo URL and optional price supplied by the user.
type ManualFix struct {
	PhotoURL string
	Price    string
}

// ManualFixer is consulted after a failed single-listing run.
type ManualFixer interface {
	Fix(ctx context.Context, listingURL string, cause error) (ManualFix, bool)
}

// PromptFixer asks on a terminal.
type PromptFixer struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPromptFixer(in io.Reader, out io.Writer) *PromptFixer {
	return &PromptFixer{in: bufio.NewReader(in), out: out}
}

func (f *PromptFixer) Fix(_ context.Context, _ string, _ error) (ManualFix, bool) {
	if !strings.EqualFold(f.ask("\n  Manual fix? (Y/N): "), "y") {
		return ManualFix{}, false
	}
	photo := f.ask("  Image URL (direct link to the product photo): ")
	if photo == "" {
		return ManualFix{}, false
	}
	price := f.ask("  Price (e.g. $24.99, or leave blank to skip): ")
	return ManualFix{PhotoURL: photo, Price: price}, true
}

func (f *PromptFixer) ask(question string) string {
	fmt.Fprint(f.out, question)
	line, _ := f.in.ReadString('\n')
	return strings.TrimSpace(line)
}
