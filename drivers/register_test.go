package drivers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david415/ipstream/types"
)

var errTestDriver = errors.New("test driver")

func TestSnifferRegister(t *testing.T) {
	factory := func(*types.SnifferDriverOptions) (types.PacketDataSourceCloser, error) {
		return nil, errTestDriver
	}
	SnifferRegister("register-test", factory)
	defer delete(Drivers, "register-test")

	_, err := Open(&types.SnifferDriverOptions{DAQ: "register-test"})
	assert.ErrorIs(t, err, errTestDriver)

	assert.Panics(t, func() { SnifferRegister("register-test", factory) })
	assert.Panics(t, func() { SnifferRegister("register-nil", nil) })
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(&types.SnifferDriverOptions{DAQ: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestPcapgoRegistered(t *testing.T) {
	_, ok := Drivers["pcapgo"]
	assert.True(t, ok)
}
