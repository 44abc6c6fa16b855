package output

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Environment is a snapshot of the detected session type and installed
// delivery tools, captured once per dispatch call.
type Environment struct {
	Wayland bool

	HasXdotool bool
	HasWtype   bool
	HasYdotool bool
	HasWlCopy  bool
	HasXclip   bool
	HasXsel    bool
}

// DetectEnvironment inspects the session and PATH.
func DetectEnvironment(look func(string) bool) Environment {
	return Environment{
		Wayland:    os.Getenv("XDG_SESSION_TYPE") == "wayland" || os.Getenv("WAYLAND_DISPLAY") != "",
		HasXdotool: look("xdotool"),
		HasWtype:   look("wtype"),
		HasYdotool: look("ydotool"),
		HasWlCopy:  look("wl-copy"),
		HasXclip:   look("xclip"),
		HasXsel:    look("xsel"),
	}
}

// ClipboardTool returns the preferred clipboard setter for the session,
// or "" when none is installed.
func (e Environment) ClipboardTool() string {
	if e.Wayland && e.HasWlCopy {
		return "wl-copy"
	}
	if e.HasXclip {
		return "xclip"
	}
	if e.HasXsel {
		return "xsel"
	}
	if e.HasWlCopy {
		return "wl-copy"
	}
	return ""
}

// PasteKeyTool returns the tool used to send the paste keystroke,
// or "" when none is installed. xdotool is tried first because it works
// reliably under XWayland as well.
func (e Environment) PasteKeyTool() string {
	if e.HasXdotool {
		return "xdotool"
	}
	if e.HasWtype {
		return "wtype"
	}
	return ""
}

// runner abstracts subprocess execution so dispatch logic is testable.
type runner interface {
	// run executes a tool and waits for it, bounded by ctx.
	run(ctx context.Context, name string, args ...string) error
	// startDetached launches a tool without waiting for it to exit,
	// reporting only failures that occur immediately.
	startDetached(name string, args []string, stdin string) error
	// lookPath reports whether a tool is installed.
	lookPath(name string) bool
}

// execRunner runs real subprocesses.
type execRunner struct{}

func (execRunner) lookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func (execRunner) run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s timed out", name)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (execRunner) startDetached(name string, args []string, stdin string) error {
	cmd := exec.Command(name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	// Catch immediate failures, then leave the helper running. Clipboard
	// owners like wl-copy stay resident to serve paste requests.
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// typer types text and sends key combinations with a specific tool.
type typer interface {
	typeString(ctx context.Context, text string) error
	sendKey(ctx context.Context, key string) error
}

type xdotoolTyper struct{ r runner }

func (t xdotoolTyper) typeString(ctx context.Context, text string) error {
	return t.r.run(ctx, "xdotool", "type", "--", text)
}

func (t xdotoolTyper) sendKey(ctx context.Context, key string) error {
	return t.r.run(ctx, "xdotool", "key", key)
}

type wtypeTyper struct{ r runner }

func (t wtypeTyper) typeString(ctx context.Context, text string) error {
	return t.r.run(ctx, "wtype", "--", text)
}

func (t wtypeTyper) sendKey(ctx context.Context, key string) error {
	return t.r.run(ctx, "wtype", "-k", key)
}

// containsNewline reports whether text has any line break.
func containsNewline(text string) bool {
	return strings.ContainsRune(text, '\n')
}

// splitLines splits text on newlines, dropping the empty trailing
// element produced by a trailing newline.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && strings.HasSuffix(text, "\n") && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
