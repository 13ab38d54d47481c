package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigits(t *testing.T) {
	assert.Equal(t, "312", Digits("3, 1, 2"))
	assert.Equal(t, "", Digits("нет цифр"))
	assert.Equal(t, "135", Digits("1 и 3 и 5"))
}

func TestSortedDigits(t *testing.T) {
	assert.Equal(t, "1123", SortedDigits("3121"))
	assert.Equal(t, "123", SortedDigits("321"))
}

func TestCanonicalDigits(t *testing.T) {
	assert.Equal(t, "123", CanonicalDigits("3121"))
	assert.Equal(t, "123", CanonicalDigits("1, 2, 3"))
	assert.Equal(t, "", CanonicalDigits(""))
}

func TestIndexDigits(t *testing.T) {
	assert.Equal(t, "135", IndexDigits([]int{0, 2, 4}))
	assert.Equal(t, "", IndexDigits(nil))
	assert.Equal(t, "24", IndexDigits([]int{3, 1}))
}
