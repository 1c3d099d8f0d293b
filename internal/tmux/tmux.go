// Package tmux is the control surface for the external terminal
// multiplexer. Only three capabilities are consumed: redirecting a
// pane's output into a named pipe, detaching that redirect, and
// capturing the pane's current buffer.
package tmux

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

type Client struct {
	bin string
}

func NewClient() *Client {
	return &Client{bin: "tmux"}
}

// Available reports whether the tmux binary can be executed.
func (c *Client) Available() error {
	out, err := exec.Command(c.bin, "-V").CombinedOutput()
	if err != nil {
		return fmt.Errorf("tmux.Client.Available: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// PipePaneOutput redirects the pane's output stream into the named pipe.
// The -o flag toggles only when no pipe is already attached, so repeated
// calls do not silently detach an active redirect.
func (c *Client) PipePaneOutput(ctx context.Context, target, pipePath string) error {
	return c.run(ctx, "pipe-pane", "-t", target, "-o", pipePaneCommand(pipePath))
}

// ClosePipe detaches any output redirect from the pane. Calling
// pipe-pane without a command closes the existing pipe.
func (c *Client) ClosePipe(ctx context.Context, target string) error {
	return c.run(ctx, "pipe-pane", "-t", target)
}

// CapturePane returns the pane's current buffer including up to lines
// of scrollback. Escape sequences are preserved (-e).
func (c *Client) CapturePane(ctx context.Context, target string, lines int) (string, error) {
	return c.runOutput(ctx, captureArgs(target, lines)...)
}

// PaneSize returns the pane's current width and height in cells.
func (c *Client) PaneSize(ctx context.Context, target string) (int, int, error) {
	out, err := c.runOutput(ctx, "display-message", "-p", "-t", target, "#{pane_width} #{pane_height}")
	if err != nil {
		return 0, 0, err
	}

	var width, height int
	if _, err := fmt.Sscanf(strings.TrimSpace(out), "%d %d", &width, &height); err != nil {
		return 0, 0, fmt.Errorf("tmux.Client.PaneSize: parse %q: %w", out, err)
	}
	return width, height, nil
}

func (c *Client) run(ctx context.Context, args ...string) error {
	out, err := exec.CommandContext(ctx, c.bin, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("tmux %s: %w (output: %s)", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (c *Client) runOutput(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, c.bin, args...).Output()
	if err != nil {
		return "", fmt.Errorf("tmux %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

// pipePaneCommand builds the shell command tmux runs to copy pane
// output into the pipe. The path is always quoted; pipe-pane takes a
// shell string, not argv.
func pipePaneCommand(pipePath string) string {
	return "cat >> " + shellQuote(pipePath)
}

// captureArgs builds the capture-pane argument list. -p prints to
// stdout, -e keeps escape sequences, -J joins wrapped lines, and -S
// reaches back into scrollback.
func captureArgs(target string, lines int) []string {
	return []string{"capture-pane", "-t", target, "-p", "-e", "-J", "-S", fmt.Sprintf("-%d", lines)}
}

// shellQuote wraps a string in single quotes for safe use in shell
// commands, suitable for paths with spaces or metacharacters.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}
