// Package wrap runs a child command with its HTTP traffic routed through
// the hstsward proxy.
package wrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// Runner executes commands with proxy environment variables injected.
type Runner struct {
	ProxyAddr string
}

// New creates a Runner pointing at the given proxy address.
func New(proxyAddr string) *Runner {
	return &Runner{ProxyAddr: proxyAddr}
}

// Run executes the command with HTTP_PROXY and HTTPS_PROXY set to the
// enforcing proxy. If stdin is a terminal, it allocates a PTY for
// interactive use.
func (r *Runner) Run(ctx context.Context, name string, args []string, env []string) error {
	proxyURL := "http://" + r.ProxyAddr
	env = append(env,
		"HTTP_PROXY="+proxyURL,
		"HTTPS_PROXY="+proxyURL,
		"http_proxy="+proxyURL,
		"https_proxy="+proxyURL,
	)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = env

	if term.IsTerminal(int(os.Stdin.Fd())) {
		return r.runWithPTY(cmd)
	}
	return r.runWithPipes(cmd)
}

func (r *Runner) runWithPTY(cmd *exec.Cmd) error {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("starting pty: %w", err)
	}

	// Done channel to signal goroutines to exit
	done := make(chan struct{})

	// Handle terminal resize
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	go func() {
		for {
			select {
			case <-done:
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				if err := pty.InheritSize(os.Stdin, ptmx); err != nil {
					// Ignore resize errors
				}
			}
		}
	}()
	ch <- syscall.SIGWINCH // Initial resize

	// Set stdin to raw mode
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		// Not a terminal, continue without raw mode
		oldState = nil
	}

	// Copy stdin to pty
	go func() {
		io.Copy(ptmx, os.Stdin)
	}()

	// Copy pty to stdout in goroutine
	go func() {
		io.Copy(os.Stdout, ptmx)
	}()

	// Wait for process to complete
	err = cmd.Wait()

	// Signal goroutines to stop
	close(done)
	signal.Stop(ch)
	ptmx.Close()

	if oldState != nil {
		term.Restore(int(os.Stdin.Fd()), oldState)
	}

	return err
}

func (r *Runner) runWithPipes(cmd *exec.Cmd) error {
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
