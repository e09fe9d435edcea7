package driver

import (
	"errors"
	"fmt"
)

// ErrSourceNotInstalled is returned when a manifest source has no lock entry.
var ErrSourceNotInstalled = errors.New("source not installed, run `records deps install`")

func errSourceNotInstalled(name string) error {
	return fmt.Errorf("source %q: %w", name, ErrSourceNotInstalled)
}
