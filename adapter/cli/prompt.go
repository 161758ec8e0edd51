package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/felixgeelhaar/petconnect/internal/client"
)

// LinePrompter asks questions on out and reads one line per answer.
// End of input dismisses the prompt.
type LinePrompter struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter creates a prompter over in and out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Prompt implements client.Prompter.
func (p *LinePrompter) Prompt(ctx context.Context, req client.PromptRequest) (client.PromptResponse, error) {
	if err := ctx.Err(); err != nil {
		return client.PromptResponse{}, err
	}
	fmt.Fprintf(p.out, "%s ", req.Message)

	line, ok, err := p.ReadLine()
	if err != nil {
		return client.PromptResponse{}, err
	}
	if !ok {
		return client.PromptResponse{Cancelled: true}, nil
	}
	return client.PromptResponse{Value: line}, nil
}

// ReadLine returns the next line without its newline. ok is false at end of input.
func (p *LinePrompter) ReadLine() (line string, ok bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line, err = p.in.ReadString('\n')
	if errors.Is(err, io.EOF) {
		if line == "" {
			return "", false, nil
		}
		err = nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimRight(line, "\r\n"), true, nil
}

// presetPrompter answers from flags and asks the fallback for the rest.
type presetPrompter struct {
	values   map[client.PromptField]string
	fallback client.Prompter
}

func (p presetPrompter) Prompt(ctx context.Context, req client.PromptRequest) (client.PromptResponse, error) {
	if v, ok := p.values[req.Field]; ok && v != "" {
		return client.PromptResponse{Value: v}, nil
	}
	return p.fallback.Prompt(ctx, req)
}
