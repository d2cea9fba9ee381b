//go:build !windows

package privilege

import (
	"fmt"
	"os"
)

// Check verifies the process runs as root.
func Check() error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("%w\n\nRun with sudo:\n  sudo %s", ErrNotElevated, commandLine())
	}
	return nil
}
