// Package lifecycle holds values shared by fx start and stop hooks.
package lifecycle

import "time"

// DefaultTimeout bounds every start and stop hook.
const DefaultTimeout = 10 * time.Second
