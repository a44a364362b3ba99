package enums

import (
	"fmt"
	"strings"
)

// Provider identifies a connected point-of-sale platform.
type Provider string

const (
	ProviderSquare Provider = "square"
	ProviderClover Provider = "clover"
)

// ParseProvider validates and normalizes a provider name.
func ParseProvider(value string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(value))) {
	case ProviderSquare:
		return ProviderSquare, nil
	case ProviderClover:
		return ProviderClover, nil
	default:
		return "", fmt.Errorf("unknown provider %q", value)
	}
}

func (p Provider) String() string {
	return string(p)
}
