package wsconn

import (
	"net/url"
	"strings"

	"github.com/yanun0323/errors"

	"main/pkg/exception"
)

// ValidateURL enforces the transport policy before any socket is opened.
// Only ws:// and wss:// are accepted; protocol-relative and schemeless forms
// are rejected; in production the insecure ws:// scheme is rejected outright.
func ValidateURL(raw string, production bool) error {
	if strings.HasPrefix(raw, "//") {
		return errors.Wrap(exception.ErrInvalidScheme, "protocol-relative url").With("url", raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrap(exception.ErrInvalidScheme, err.Error()).With("url", raw)
	}

	switch u.Scheme {
	case "wss":
	case "ws":
		if production {
			return errors.Wrap(exception.ErrInsecureTransport, "use wss").With("url", raw)
		}
	default:
		return errors.Wrap(exception.ErrInvalidScheme, u.Scheme).With("url", raw)
	}

	if u.Host == "" {
		return errors.Wrap(exception.ErrInvalidScheme, "missing host").With("url", raw)
	}
	return nil
}
