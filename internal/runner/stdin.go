package runner

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/maxvaer/proxycheck/internal/probe"
)

// startStdinToggle starts a goroutine that reads single keypresses from
// stdin and toggles the gate on Enter or Space. It returns a cleanup
// function that restores the terminal state. If stdin is not a terminal,
// it returns a nil gate and a no-op cleanup.
func startStdinToggle(quiet bool) (gate *probe.Gate, cleanup func()) {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		return nil, func() {}
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		slog.Warn("could not enable raw terminal", "error", err)
		return nil, func() {}
	}

	// MakeRaw disables OPOST which stops \n → \r\n translation, causing
	// cursor alignment issues. Re-enable it since we only need raw input.
	restoreOutputNewlines(fd)

	gate = probe.NewGate()

	cleanup = func() {
		_ = term.Restore(fd, oldState)
	}

	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n == 0 {
				continue
			}

			key := buf[0]

			// Ctrl+C (0x03): restore terminal and re-send SIGINT so the
			// signal context fires normally.
			if key == 0x03 {
				_ = term.Restore(fd, oldState)
				interruptSelf()
				return
			}

			if key == '\r' || key == '\n' || key == ' ' {
				nowPaused := gate.Toggle()
				if !quiet {
					if nowPaused {
						fmt.Fprintf(os.Stderr, "\r\033[K[*] Probing PAUSED, press Enter or Space to resume\n")
					} else {
						fmt.Fprintf(os.Stderr, "\r\033[K[*] Probing RESUMED\n")
					}
				}
			}
		}
	}()

	return gate, cleanup
}
