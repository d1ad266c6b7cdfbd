package probe

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrInvalidAddress is returned by ValidateAddress.
var ErrInvalidAddress = errors.New("invalid address")

// ValidateAddress accepts an IP literal or an RFC 1123 host name.
func ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	if strings.TrimSpace(addr) != addr {
		return fmt.Errorf("%w: %q has surrounding whitespace", ErrInvalidAddress, addr)
	}
	if net.ParseIP(addr) != nil {
		return nil
	}

	name := strings.TrimSuffix(addr, ".")
	if len(name) == 0 || len(name) > 253 {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	labels := strings.Split(name, ".")
	for _, label := range labels {
		if !validLabel(label) {
			return fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
		}
	}
	// a numeric top label means a mistyped IP such as 10.0.0.256
	if allDigits(labels[len(labels)-1]) {
		return fmt.Errorf("%w: %q is neither an IP nor a host name", ErrInvalidAddress, addr)
	}
	return nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func validLabel(l string) bool {
	if len(l) == 0 || len(l) > 63 {
		return false
	}
	if l[0] == '-' || l[len(l)-1] == '-' {
		return false
	}
	for i := 0; i < len(l); i++ {
		c := l[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}
