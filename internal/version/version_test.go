package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "1.2.0"
	assert.Equal(t, "alertindex 1.2.0 (commit unknown, built unknown)", String())
}
