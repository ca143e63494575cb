package store

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	PrefixInvitation   = "inv"
	PrefixCollaborator = "col"
	PrefixComment      = "cmt"
	PrefixReaction     = "rx"
	PrefixReview       = "rev"
	PrefixActivity     = "act"
	PrefixNotification = "ntf"
	PrefixTask         = "task"
	PrefixProject      = "prj"
	PrefixAttachment   = "att"
)

// GenerateID returns a new random identifier of the form "<prefix>-<uuid>".
func GenerateID(prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("id prefix is required")
	}
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return prefix + "-" + u.String(), nil
}

// ValidID reports whether id has a known prefix followed by a valid uuid.
func ValidID(id string) bool {
	for _, prefix := range []string{
		PrefixInvitation, PrefixCollaborator, PrefixComment, PrefixReaction, PrefixReview,
		PrefixActivity, PrefixNotification, PrefixTask, PrefixProject, PrefixAttachment,
	} {
		if len(id) > len(prefix)+1 && id[:len(prefix)+1] == prefix+"-" {
			_, err := uuid.Parse(id[len(prefix)+1:])
			return err == nil
		}
	}
	return false
}
