package cli

import (
	"fmt"
	"io"
	"sync"
)

// terminalNotifier writes user-facing auth errors to the terminal. It is the
// CLI's stand-in for a dialog: the message is shown and the user decides
// whether to retry by running login again.
type terminalNotifier struct {
	out io.Writer
}

func (n terminalNotifier) ShowError(message string) {
	fmt.Fprintf(n.out, "Sign-in failed: %s\n", message)
}

// terminalNavigator is the CLI's authenticated-home transition: it prints a
// confirmation and signals anyone waiting for the flow to finish. Repeat
// navigations print again but signal only once.
type terminalNavigator struct {
	out io.Writer

	once  sync.Once
	fired chan struct{}
}

func newTerminalNavigator(out io.Writer) *terminalNavigator {
	return &terminalNavigator{
		out:   out,
		fired: make(chan struct{}),
	}
}

func (n *terminalNavigator) ShowAuthenticatedHome() {
	fmt.Fprintln(n.out, "Signed in. You are now on the authenticated home screen.")
	n.once.Do(func() { close(n.fired) })
}

// Done is closed after the first navigation to the authenticated home.
func (n *terminalNavigator) Done() <-chan struct{} {
	return n.fired
}
