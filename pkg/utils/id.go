package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateSlotID generates a unique slot ID
func GenerateSlotID() string {
	return GenerateID("slot")
}

// GenerateSessionID generates a unique playback session ID
func GenerateSessionID() string {
	return GenerateID("session")
}

// GenerateID generates a prefixed unique identifier
func GenerateID(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s_%s", prefix, id)
}
