// Package output delivers finalized text to the focused application.
// It resolves an ordered chain of delivery candidates from the detected
// session environment and tries each until one succeeds.
package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Method identifies how text was delivered.
type Method string

const (
	// MethodInjection types text directly into the focused window.
	MethodInjection Method = "injection"
	// MethodClipboardPaste sets the clipboard and sends a paste keystroke.
	MethodClipboardPaste Method = "clipboard-paste"
	// MethodClipboardOnly sets the clipboard; the user pastes manually.
	MethodClipboardOnly Method = "clipboard-only"
)

// Candidate names, also valid in the candidate_order config override.
const (
	candInjectDirect   = "inject-direct"
	candClipboardPaste = "clipboard-paste"
	candInjectRaw      = "inject-raw"
	candClipboardOnly  = "clipboard-only"
)

// ErrExhausted indicates every delivery candidate failed.
var ErrExhausted = errors.New("all delivery methods failed")

// Outcome reports which delivery method succeeded.
type Outcome struct {
	Method    Method
	Candidate string
}

// Config holds dispatch settings.
type Config struct {
	Mode           string        // auto, injection, clipboard
	SoftNewlines   bool          // deliver interior line breaks as shift+Return
	CandidateOrder []string      // optional override of the resolved chain
	ToolTimeout    time.Duration // per-candidate subprocess bound
}

// candidate is one delivery strategy: a pure function from text to outcome.
type candidate struct {
	name   string
	method Method
	fn     func(ctx context.Context, text string) error
}

// Dispatcher executes the delivery fallback chain.
type Dispatcher struct {
	cfg    Config
	runner runner
	detect func(look func(string) bool) Environment
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher using real subprocess tools.
func NewDispatcher(cfg Config, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = 5 * time.Second
	}
	return &Dispatcher{
		cfg:    cfg,
		runner: &execRunner{},
		detect: DetectEnvironment,
		logger: logger,
	}
}

// Dispatch attempts delivery and returns the method that succeeded.
// Candidate failures are recovered by trying the next candidate; only
// total exhaustion returns an error. Never panics past this boundary.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) (Outcome, error) {
	env := d.detect(d.runner.lookPath)
	candidates := d.resolve(env)

	if len(candidates) == 0 {
		return Outcome{}, fmt.Errorf("%w: no delivery tool available", ErrExhausted)
	}

	for _, c := range candidates {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}

		cctx, cancel := context.WithTimeout(ctx, d.cfg.ToolTimeout)
		err := c.fn(cctx, text)
		cancel()

		if err == nil {
			d.logger.Debug("text delivered", "candidate", c.name, "chars", len(text))
			return Outcome{Method: c.method, Candidate: c.name}, nil
		}

		d.logger.Warn("delivery candidate failed", "candidate", c.name, "error", err)
	}

	return Outcome{}, ErrExhausted
}

// resolve builds the ordered candidate chain for the detected environment,
// honoring the configured mode and any explicit candidate_order override.
func (d *Dispatcher) resolve(env Environment) []candidate {
	available := d.buildCandidates(env)

	if len(d.cfg.CandidateOrder) > 0 {
		var chain []candidate
		for _, name := range d.cfg.CandidateOrder {
			if c, ok := available[name]; ok {
				chain = append(chain, c)
			} else {
				d.logger.Debug("configured candidate unavailable", "candidate", name)
			}
		}
		return chain
	}

	var order []string
	switch d.cfg.Mode {
	case "injection":
		order = []string{candInjectDirect, candInjectRaw}
	case "clipboard":
		order = []string{candClipboardOnly}
	default: // auto
		if env.Wayland {
			// Direct character injection is unreliable across compositors;
			// clipboard-paste works everywhere a paste keystroke can be sent.
			order = []string{candClipboardPaste, candInjectRaw, candClipboardOnly}
		} else {
			order = []string{candInjectDirect, candClipboardPaste, candInjectRaw, candClipboardOnly}
		}
	}

	var chain []candidate
	for _, name := range order {
		if c, ok := available[name]; ok {
			chain = append(chain, c)
		}
	}
	return chain
}

// buildCandidates constructs every delivery strategy the environment
// supports, keyed by name.
func (d *Dispatcher) buildCandidates(env Environment) map[string]candidate {
	available := make(map[string]candidate)

	if !env.Wayland && env.HasXdotool {
		available[candInjectDirect] = candidate{
			name:   candInjectDirect,
			method: MethodInjection,
			fn: func(ctx context.Context, text string) error {
				return d.typeText(ctx, xdotoolTyper{d.runner}, text)
			},
		}
	}

	if env.ClipboardTool() != "" && env.PasteKeyTool() != "" {
		available[candClipboardPaste] = candidate{
			name:   candClipboardPaste,
			method: MethodClipboardPaste,
			fn: func(ctx context.Context, text string) error {
				return d.clipboardPaste(ctx, env, text)
			},
		}
	}

	if env.Wayland && env.HasWtype {
		available[candInjectRaw] = candidate{
			name:   candInjectRaw,
			method: MethodInjection,
			fn: func(ctx context.Context, text string) error {
				return d.typeText(ctx, wtypeTyper{d.runner}, text)
			},
		}
	} else if env.HasYdotool {
		available[candInjectRaw] = candidate{
			name:   candInjectRaw,
			method: MethodInjection,
			fn: func(ctx context.Context, text string) error {
				return d.runner.run(ctx, "ydotool", "type", "--", text)
			},
		}
	}

	if env.ClipboardTool() != "" {
		available[candClipboardOnly] = candidate{
			name:   candClipboardOnly,
			method: MethodClipboardOnly,
			fn: func(ctx context.Context, text string) error {
				return d.setClipboard(env, text)
			},
		}
	}

	return available
}

// clipboardPaste sets the clipboard and sends a paste keystroke.
func (d *Dispatcher) clipboardPaste(ctx context.Context, env Environment, text string) error {
	if err := d.setClipboard(env, text); err != nil {
		return err
	}

	// Give the clipboard helper a moment to register with the compositor.
	select {
	case <-time.After(150 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}

	switch env.PasteKeyTool() {
	case "xdotool":
		return d.runner.run(ctx, "xdotool", "key", "ctrl+v")
	case "wtype":
		return d.runner.run(ctx, "wtype", "-M", "ctrl", "-k", "v", "-m", "ctrl")
	default:
		return errors.New("no keystroke tool for paste")
	}
}

// setClipboard launches the clipboard helper detached. Helpers like
// wl-copy stay resident to serve paste requests, so the dispatcher must
// never wait on their exit.
func (d *Dispatcher) setClipboard(env Environment, text string) error {
	switch env.ClipboardTool() {
	case "wl-copy":
		return d.runner.startDetached("wl-copy", []string{"--", text}, "")
	case "xclip":
		return d.runner.startDetached("xclip", []string{"-selection", "clipboard"}, text)
	case "xsel":
		return d.runner.startDetached("xsel", []string{"--clipboard", "--input"}, text)
	default:
		return errors.New("no clipboard tool available")
	}
}

// typeText types text with the given tool, honoring soft newlines:
// interior line breaks become shift+Return, a trailing break a plain
// Return, so multi-line text lands in editors without submitting forms.
func (d *Dispatcher) typeText(ctx context.Context, typer typer, text string) error {
	if !d.cfg.SoftNewlines || !containsNewline(text) {
		return typer.typeString(ctx, text)
	}

	hasTrailing := len(text) > 0 && text[len(text)-1] == '\n'
	lines := splitLines(text)

	for i, line := range lines {
		if line != "" {
			if err := typer.typeString(ctx, line); err != nil {
				return err
			}
		}

		last := i == len(lines)-1
		switch {
		case !last:
			if err := typer.sendKey(ctx, "shift+Return"); err != nil {
				return err
			}
		case hasTrailing:
			if err := typer.sendKey(ctx, "Return"); err != nil {
				return err
			}
		}
	}

	return nil
}
