package serialport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenWithoutPort(t *testing.T) {
	for _, name := range []string{"", None} {
		_, err := Open(name, 0)
		assert.ErrorIs(t, err, ErrNoPort)
	}
}
