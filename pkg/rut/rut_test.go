package rut

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "furgon/pkg/domain-errors"
)

func TestNormalize_ValidKeys(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Key
	}{
		{"plain digits", "123456785", "12345678-5"},
		{"dotted display form", "12.345.678-5", "12345678-5"},
		{"dash only", "12345678-5", "12345678-5"},
		{"repeated ones", "11111111-1", "11111111-1"},
		{"uppercase K check", "1000005-K", "1000005-K"},
		{"lowercase k check", "1000005-k", "1000005-K"},
		{"sum divisible by eleven maps to zero", "1000044-0", "1000044-0"},
		{"surrounding noise stripped", " 12.345.678-5 ", "12345678-5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalize_Rejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		code dErrors.Code
	}{
		{"empty input", "", dErrors.CodeMalformedKey},
		{"letters only", "abcdef", dErrors.CodeMalformedKey},
		{"lone check character", "K", dErrors.CodeMalformedKey},
		{"body below seven digits", "123456-5", dErrors.CodeKeyTooShort},
		{"wrong check digit", "7777777-1", dErrors.CodeCheckDigitMismatch},
		{"interior K collapsed then mismatched", "12k345678", dErrors.CodeCheckDigitMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.raw)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

// Canonicalization is idempotent: formatting a normalized key and normalizing
// again must yield the same key.
func TestNormalize_FormatRoundTrip(t *testing.T) {
	inputs := []string{"123456785", "12.345.678-5", "1000005k", "11111111-1"}
	for _, raw := range inputs {
		key, err := Normalize(raw)
		require.NoError(t, err)

		again, err := Normalize(Format(key.String()))
		require.NoError(t, err)
		assert.Equal(t, key, again)
	}
}

func TestFormat(t *testing.T) {
	t.Run("inserts dash before check character", func(t *testing.T) {
		assert.Equal(t, "12345678-5", Format("123456785"))
	})
	t.Run("collapses repeated K", func(t *testing.T) {
		assert.Equal(t, "12345678-K", Format("12345678kk"))
	})
	t.Run("single character returned untouched", func(t *testing.T) {
		assert.Equal(t, "7", Format("7"))
	})
	t.Run("does not validate", func(t *testing.T) {
		assert.Equal(t, "1234-1", Format("12341"))
	})
}

func TestKey_Body(t *testing.T) {
	key, err := Normalize("12345678-5")
	require.NoError(t, err)
	assert.Equal(t, "12345678", key.Body())
}
