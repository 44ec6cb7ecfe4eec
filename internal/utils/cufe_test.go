package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanIdentifier(t *testing.T) {
	assert.Equal(t, "abc", CleanIdentifier("  abc \n"))
	assert.Equal(t, "a b", CleanIdentifier(" a b "))
	assert.Equal(t, "", CleanIdentifier("   "))
}

func TestIsValidIdentifier(t *testing.T) {
	assert.True(t, IsValidIdentifier("x"))
	assert.False(t, IsValidIdentifier(""))
	assert.False(t, IsValidIdentifier("\t "))
}

func TestMaskIdentifier(t *testing.T) {
	cufe := "6667fe1f8018f00e0b631cc9e3d790508f24d474dd3a75d2bc941196e78c8c235990877c2207b82eb5407ff41cbcfc45"

	assert.Equal(t, "6667fe1f8018f00e0b63...", MaskIdentifier(cufe))
	assert.Equal(t, "short", MaskIdentifier(" short "))
	assert.Equal(t, "12345678901234567890", MaskIdentifier("12345678901234567890"))
}

func TestCleanIdentifiers(t *testing.T) {
	valid, invalid := CleanIdentifiers([]string{" a ", "", "b", "  "})

	assert.Equal(t, []string{"a", "b"}, valid)
	assert.Equal(t, []string{"", "  "}, invalid)
}
