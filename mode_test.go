package ipstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFragmentsMode(t *testing.T) {
	cases := map[string]FragmentsMode{
		"":           FragmentsReassemble,
		"reassemble": FragmentsReassemble,
		"drop":       FragmentsDrop,
		"pass":       FragmentsPass,
	}
	for s, want := range cases {
		mode, err := ParseFragmentsMode(s)
		assert.NoError(t, err, s)
		assert.Equal(t, want, mode, s)
	}

	_, err := ParseFragmentsMode("Drop")
	assert.ErrorIs(t, err, ErrInvalidFragmentsMode)
}

func TestFragmentsModeString(t *testing.T) {
	assert.Equal(t, "reassemble", FragmentsReassemble.String())
	assert.Equal(t, "drop", FragmentsDrop.String())
	assert.Equal(t, "pass", FragmentsPass.String())
	assert.Equal(t, "FragmentsMode(9)", FragmentsMode(9).String())
	assert.Equal(t, "held", ResultHeld.String())
	assert.Equal(t, "emit", ResultEmit.String())
	assert.Equal(t, "ignored", ResultIgnored.String())
}
