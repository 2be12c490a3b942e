package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrailExtendCopies(t *testing.T) {
	base := make(Trail, 1, 4)
	base[0] = "Summertime"

	left := base.Extend("Beach")
	right := base.Extend("Garden")

	left[0] = "changed"
	assert.Equal(t, Trail{"Summertime"}, base)
	assert.Equal(t, Trail{"Summertime", "Garden"}, right)
	assert.Equal(t, Trail{"changed", "Beach"}, left)
}

func TestTrailClone(t *testing.T) {
	assert.Nil(t, Trail(nil).Clone())

	original := Trail{"A", "B"}
	cloned := original.Clone()
	cloned[1] = "C"
	assert.Equal(t, Trail{"A", "B"}, original)
}

func TestTrailRoot(t *testing.T) {
	assert.Equal(t, "", Trail{}.Root())
	assert.Equal(t, "A", NewTrail("A").Extend("B").Root())
}
