package chainclient

import (
	"errors"
	"fmt"
)

// ErrUnsupportedCometVersion is returned when a chain's comet_version
// names a dialect the factory does not know how to dispatch.
var ErrUnsupportedCometVersion = errors.New("unsupported comet version")

// NewClient selects a Client implementation by pure dispatch: if auth is
// non-nil, credentials take priority regardless of cometVersion; otherwise
// dispatch follows cometVersion exactly as configured — the raw string is
// authoritative, with no internal collapsing of "0.38" onto an older
// dialect.
func NewClient(url, cometVersion string, auth *BasicAuth) (Client, error) {
	if auth != nil {
		return NewAuthClient(url, *auth), nil
	}
	switch cometVersion {
	case "0.34", "0.37":
		return NewClassicClient(url), nil
	case "0.38":
		return NewModernClient(url), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCometVersion, cometVersion)
	}
}
