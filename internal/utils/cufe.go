package utils

import (
	"strings"
)

// maskPrefix is how much of an identifier is kept in log output
const maskPrefix = 20

// CleanIdentifier trims surrounding whitespace. The identifier is otherwise opaque.
func CleanIdentifier(identifier string) string {
	return strings.TrimSpace(identifier)
}

// IsValidIdentifier reports whether the identifier is nonempty after trimming
func IsValidIdentifier(identifier string) bool {
	return CleanIdentifier(identifier) != ""
}

// MaskIdentifier shortens an identifier for logs (first 20 characters followed by "...")
func MaskIdentifier(identifier string) string {
	cleaned := CleanIdentifier(identifier)
	if len(cleaned) <= maskPrefix {
		return cleaned
	}
	return cleaned[:maskPrefix] + "..."
}

// CleanIdentifiers cleans a list and splits it into valid and invalid entries
func CleanIdentifiers(identifiers []string) (valid []string, invalid []string) {
	valid = make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		cleaned := CleanIdentifier(id)
		if cleaned == "" {
			invalid = append(invalid, id)
			continue
		}
		valid = append(valid, cleaned)
	}
	return valid, invalid
}
