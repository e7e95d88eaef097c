package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("diarist"))
	assert.NoError(t, ValidateUsername("01234567890"))

	for _, bad := range []string{"", "short", "has space", "   "} {
		err := ValidateUsername(bad)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), bad)
		assert.Equal(t, "username", ve.Field)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("123456"))
	assert.Error(t, ValidatePassword("12345"))
	assert.Error(t, ValidatePassword(""))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("me@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("Me <me@example.com>"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "me@example.com", NormalizeEmail("  Me@Example.COM "))
	assert.Equal(t, "diarist", NormalizeUsername(" Diarist"))
}
