package skiptable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExpr []byte

func (f fakeExpr) Bytes() []byte { return f }

func TestBuildSmallestSkipWins(t *testing.T) {
	patterns := []Expression{
		fakeExpr("ABCD"),
		fakeExpr("ABCE"),
	}

	tbl := Build(4, patterns)

	assert.Equal(t, 0, tbl.Skip('D'))
	assert.Equal(t, 0, tbl.Skip('E'))
	assert.Equal(t, 4, tbl.Skip('Z'))
}

func TestSkipDefaultsToLength(t *testing.T) {
	tbl := Build(4, []Expression{fakeExpr("ABCD")})
	assert.Equal(t, 4, tbl.Skip(0xFF))
}

func TestBuildUsesOnlyFirstLengthBytes(t *testing.T) {
	tbl := Build(4, []Expression{fakeExpr("ABCDE")})
	// the 5th byte ('E') is never inspected at skip_pattern_length == 4
	assert.Equal(t, 4, tbl.Skip('E'))
}
