// Package privilege checks that the process may register, remove or restart
// services before the service manager is asked to.
package privilege

import "errors"

// ErrNotElevated is returned by Check when the process lacks administrative rights.
var ErrNotElevated = errors.New("administrative privileges required")
