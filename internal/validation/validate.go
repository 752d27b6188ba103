package validation

import (
	"bytes"
	"encoding/json"
	"maps"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/errors"
)

const (
	// MaxBlobNameLength is the longest blob name the service accepts.
	MaxBlobNameLength = 1024

	// MaxMetadataSize is the cap, in bytes of JSON, applied to metadata
	// carried through a move.
	MaxMetadataSize = 8 * 1024
)

// reserved containers that do not follow the DNS naming rules
var reservedContainers = map[string]bool{
	"$root": true,
	"$web":  true,
	"$logs": true,
}

// ValidateContainerName validates a container name against the service naming
// rules: 3 to 63 characters of lowercase letters, digits and hyphens, starting
// and ending with a letter or digit, without consecutive hyphens.
func ValidateContainerName(container string) error {
	if container == "" {
		return errors.NewError("validateContainerName", errors.ErrInvalidInput).
			WithMessage("container name cannot be empty")
	}
	if reservedContainers[container] {
		return nil
	}

	if len(container) < 3 || len(container) > 63 {
		return errors.NewError("validateContainerName", errors.ErrInvalidInput).
			WithContainer(container).
			WithMessage("container name must be between 3 and 63 characters long")
	}

	for _, r := range container {
		if !isLowerAlnum(r) && r != '-' {
			return errors.NewError("validateContainerName", errors.ErrInvalidInput).
				WithContainer(container).
				WithMessage("container name can only contain lowercase letters, numbers, and hyphens")
		}
	}

	if container[0] == '-' || container[len(container)-1] == '-' {
		return errors.NewError("validateContainerName", errors.ErrInvalidInput).
			WithContainer(container).
			WithMessage("container name must start and end with a letter or number")
	}

	if strings.Contains(container, "--") {
		return errors.NewError("validateContainerName", errors.ErrInvalidInput).
			WithContainer(container).
			WithMessage("container name cannot contain consecutive hyphens")
	}

	return nil
}

// ValidateBlobName validates that a blob name is usable.
func ValidateBlobName(blob string) error {
	if blob == "" {
		return errors.NewError("validateBlobName", errors.ErrInvalidInput).
			WithMessage("blob name cannot be empty")
	}

	if len(blob) > MaxBlobNameLength {
		return errors.NewError("validateBlobName", errors.ErrInvalidInput).
			WithBlob(blob).
			WithMessage("blob name cannot exceed 1024 characters")
	}

	if hasControlCharacters(blob) {
		return errors.NewError("validateBlobName", errors.ErrInvalidInput).
			WithBlob(blob).
			WithMessage("blob name cannot contain control characters")
	}

	return nil
}

// ValidateMetadata validates metadata keys. Keys must be valid identifiers:
// a letter or underscore followed by letters, digits or underscores.
func ValidateMetadata(metadata map[string]string) error {
	for key := range metadata {
		if !isIdentifier(key) {
			return errors.NewError("validateMetadata", errors.ErrInvalidInput).
				WithMessage("metadata key " + key + " must be a valid identifier")
		}
	}
	return nil
}

// MetadataSize returns the JSON-serialized size of metadata in bytes.
// HTML characters are not escaped so the size matches the literal text.
func MetadataSize(metadata map[string]string) int {
	if metadata == nil {
		return 0
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(metadata); err != nil {
		return 0
	}
	return len(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// ExceedsLimit reports whether metadata serializes to more than limit bytes.
func ExceedsLimit(metadata map[string]string, limit int) bool {
	return MetadataSize(metadata) > limit
}

// CapMetadata returns metadata unchanged when it fits within limit, or nil
// and true when it does not.
func CapMetadata(metadata map[string]string, limit int) (map[string]string, bool) {
	if ExceedsLimit(metadata, limit) {
		return nil, true
	}
	return metadata, false
}

// MergeMetadata returns a new map holding base overlaid with overlay.
// Keys in overlay win.
func MergeMetadata(base, overlay map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(overlay))
	maps.Copy(merged, base)
	maps.Copy(merged, overlay)
	return merged
}

func isLowerAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

func isIdentifier(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func hasControlCharacters(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
