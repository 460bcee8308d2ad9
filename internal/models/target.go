package models

import (
	"fmt"

	"github.com/google/uuid"
)

// TargetType tags what a like or share points at.
type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
	TargetReply   TargetType = "reply"
)

func ParseTargetType(s string) (TargetType, error) {
	switch t := TargetType(s); t {
	case TargetPost, TargetComment, TargetReply:
		return t, nil
	default:
		return "", fmt.Errorf("unknown target type %q", s)
	}
}

type Target struct {
	Type TargetType
	ID   uuid.UUID
}

func (t Target) String() string {
	return string(t.Type) + ":" + t.ID.String()
}
