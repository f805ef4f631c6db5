package value

import (
	"strings"

	"tonhunter/internal/domain"
	"tonhunter/pkg/errcodes"
)

const addressLen = 48

// TonAddress is a user friendly TON wallet address.
type TonAddress string

// NewTonAddress validates the raw input and returns the address.
// Only base64url bounceable/non-bounceable forms are accepted.
func NewTonAddress(raw string) (TonAddress, error) {
	raw = strings.TrimSpace(raw)

	if len(raw) != addressLen {
		return "", domain.NewError(errcodes.InvalidAddress, "address must be 48 characters")
	}

	if !strings.HasPrefix(raw, "EQ") && !strings.HasPrefix(raw, "UQ") {
		return "", domain.NewError(errcodes.InvalidAddress, "address must start with EQ or UQ")
	}

	for _, c := range raw {
		if !isBase64URLChar(c) {
			return "", domain.NewError(errcodes.InvalidAddress, "address contains invalid characters")
		}
	}

	return TonAddress(raw), nil
}

func (a TonAddress) String() string {
	return string(a)
}

// Short returns a truncated form for display.
func (a TonAddress) Short() string {
	if len(a) < 12 {
		return string(a)
	}
	return string(a[:6]) + "..." + string(a[len(a)-6:])
}

func isBase64URLChar(c rune) bool {
	switch {
	case c >= 'A' && c <= 'Z':
		return true
	case c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	default:
		return false
	}
}
