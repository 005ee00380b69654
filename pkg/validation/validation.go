package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// SlotIDRegex validates slot ID format
	SlotIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// headerNameRegex matches RFC 7230 header field names
	headerNameRegex = regexp.MustCompile(`^[!#$%&'*+\-.^_` + "`" + `|~0-9a-zA-Z]+$`)
)

// ValidateSlotID validates a slot identifier
func ValidateSlotID(id string) error {
	if id == "" {
		return fmt.Errorf("slot ID is required")
	}
	if len(id) > 100 {
		return fmt.Errorf("slot ID is too long (max 100 characters)")
	}
	if !SlotIDRegex.MatchString(id) {
		return fmt.Errorf("slot ID contains invalid characters (only letters, numbers, _, - allowed)")
	}
	return nil
}

// ValidateSlotName validates a slot display name
func ValidateSlotName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("slot name is required")
	}
	if len(name) > 100 {
		return fmt.Errorf("slot name is too long (max 100 characters)")
	}
	return nil
}

// ValidateStreamURL validates a playback source URL. An empty URL is valid:
// it means the slot is unconfigured.
func ValidateStreamURL(raw string) error {
	if raw == "" {
		return nil
	}
	if len(raw) > 2048 {
		return fmt.Errorf("stream URL is too long (max 2048 characters)")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid stream URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("stream URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("stream URL must have a host")
	}
	return nil
}

// ValidateHeaders validates per-slot request headers for authenticated sources
func ValidateHeaders(headers map[string]string) error {
	if len(headers) > 32 {
		return fmt.Errorf("too many headers (max 32)")
	}
	for name, value := range headers {
		if !headerNameRegex.MatchString(name) {
			return fmt.Errorf("invalid header name %q", name)
		}
		if strings.ContainsAny(value, "\r\n") {
			return fmt.Errorf("header %q value contains line breaks", name)
		}
		if len(value) > 4096 {
			return fmt.Errorf("header %q value is too long (max 4096 characters)", name)
		}
	}
	return nil
}
