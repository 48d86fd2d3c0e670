package xxhashid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOfIsDeterministic(t *testing.T) {
	assert.Equal(t, Of("lnk_0"), Of("lnk_0"))
}

func TestOfDistinguishesDifferentIdentifiers(t *testing.T) {
	assert.NotEqual(t, Of("lnk_0"), Of("lnk_1"))
}
