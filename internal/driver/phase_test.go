package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "initializing", Initializing.String())
	assert.Equal(t, "stepping", Stepping.String())
	assert.Equal(t, "done", Done.String())
	assert.Equal(t, "phase(7)", Phase(7).String())
}
