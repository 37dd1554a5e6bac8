package slices_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/distribution-auth/ruleauth/pkg/slices"
)

func TestMap(t *testing.T) {
	assert.Equal(t, []string{"1", "2"}, slices.Map([]int{1, 2}, strconv.Itoa))
	assert.Nil(t, slices.Map([]int(nil), strconv.Itoa))
}

func TestFilter(t *testing.T) {
	even := func(v int) bool { return v%2 == 0 }

	assert.Equal(t, []int{2, 4}, slices.Filter([]int{1, 2, 3, 4}, even))
	assert.Nil(t, slices.Filter([]int{1, 3}, even))
}
