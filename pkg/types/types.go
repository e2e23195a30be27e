package types

import (
	"strings"
	"time"
)

// Record is the capability set the configuration store needs from a profile
// kind. T is the concrete profile type itself, so WithCreatedTime can return
// a modified copy without pointer receivers.
type Record[T any] interface {
	GetName() string
	GetDescription() string
	GetCreatedTime() time.Time
	WithCreatedTime(t time.Time) T
}

// Kind identifies a profile category. Each kind is persisted to its own file.
type Kind string

const (
	KindNetwork Kind = "network"
	KindProxy   Kind = "proxy"
)

// ParseKind converts a user supplied string into a Kind
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindNetwork:
		return KindNetwork, true
	case KindProxy:
		return KindProxy, true
	}
	return "", false
}

// NormalizeName returns the identity key for a profile name. Names compare
// case-insensitively and ignore surrounding whitespace.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SameName reports whether two profile names refer to the same profile
func SameName(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}

// ProfileMetadata represents metadata about a profile
type ProfileMetadata struct {
	Name        string    `json:"name"`
	Kind        Kind      `json:"kind"`
	Description string    `json:"description,omitempty"`
	CreatedTime time.Time `json:"createdTime"`
}

// MetadataOf extracts the identity fields of any record kind
func MetadataOf[T Record[T]](kind Kind, r T) ProfileMetadata {
	return ProfileMetadata{
		Name:        r.GetName(),
		Kind:        kind,
		Description: r.GetDescription(),
		CreatedTime: r.GetCreatedTime(),
	}
}

// Confirmation represents user confirmation settings
type Confirmation struct {
	BatchMode   bool          `json:"batch_mode"`
	AutoApprove bool          `json:"auto_approve"`
	Timeout     time.Duration `json:"timeout"`
	DefaultDeny bool          `json:"default_deny"`
}
