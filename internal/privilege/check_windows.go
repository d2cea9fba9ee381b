//go:build windows

package privilege

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// Check verifies the process token is elevated.
func Check() error {
	var token windows.Token
	if err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_QUERY, &token); err != nil {
		return fmt.Errorf("cannot check elevation: %w", err)
	}
	defer token.Close()

	if !token.IsElevated() {
		return fmt.Errorf("%w\n\nRight-click and 'Run as administrator', or use an elevated prompt:\n  %s", ErrNotElevated, commandLine())
	}
	return nil
}
