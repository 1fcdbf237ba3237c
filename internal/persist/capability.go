package persist

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Capability says whether directory access can be requested.
type Capability int

const (
	Supported Capability = iota
	Unsupported
	Blocked
)

func (c Capability) String() string {
	switch c {
	case Supported:
		return "supported"
	case Unsupported:
		return "unsupported"
	case Blocked:
		return "blocked"
	default:
		return fmt.Sprintf("Capability(%d)", int(c))
	}
}

// Probe decides the capability. Configuration wins over the terminal check.
func Probe(allow, interactive bool) Capability {
	switch {
	case !allow:
		return Blocked
	case !interactive:
		return Unsupported
	default:
		return Supported
	}
}

// Prober computes the capability once.
type Prober struct {
	allow       bool
	interactive func() bool

	once   sync.Once
	result Capability
}

// NewProber checks stdin for an interactive terminal.
func NewProber(allow bool) *Prober {
	return &Prober{allow: allow, interactive: stdinIsTerminal}
}

// Capability returns the cached probe result.
func (p *Prober) Capability() Capability {
	p.once.Do(func() {
		p.result = Probe(p.allow, p.interactive())
	})
	return p.result
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Prompter asks the user for a folder path. An empty path or ErrCancelled
// means the user backed out.
type Prompter func(ctx context.Context) (string, error)

// StaticPath is a Prompter for a path the caller already has.
func StaticPath(path string) Prompter {
	return func(context.Context) (string, error) { return path, nil }
}

// LinePrompter asks on w and reads one line from r.
func LinePrompter(r io.Reader, w io.Writer) Prompter {
	return func(ctx context.Context) (string, error) {
		fmt.Fprint(w, "Save recordings to folder (empty to use Downloads): ")
		line, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
}

// RequestDirectoryAccess asks for a folder and opens it.
func RequestDirectoryAccess(ctx context.Context, capability Capability, prompt Prompter) (DirectoryHandle, error) {
	switch capability {
	case Unsupported:
		return nil, ErrNotSupported
	case Blocked:
		return nil, ErrAccessBlocked
	}

	path, err := prompt(ctx)
	if err != nil {
		if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
			return nil, ErrCancelled
		}
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return nil, ErrCancelled
	}
	return OpenDirectory(path)
}
