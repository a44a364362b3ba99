package enums

import (
	"fmt"
	"strings"
)

// AlertChannel names a low-stock notification delivery channel.
type AlertChannel string

const (
	AlertChannelSMS   AlertChannel = "sms"
	AlertChannelEmail AlertChannel = "email"
)

// ParseAlertChannel validates and normalizes a channel name.
func ParseAlertChannel(value string) (AlertChannel, error) {
	switch AlertChannel(strings.ToLower(strings.TrimSpace(value))) {
	case AlertChannelSMS:
		return AlertChannelSMS, nil
	case AlertChannelEmail:
		return AlertChannelEmail, nil
	default:
		return "", fmt.Errorf("unknown alert channel %q", value)
	}
}
