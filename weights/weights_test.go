package weights

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommonByteSet(t *testing.T) {
	assert.True(t, IsCommonByte(0x00))
	assert.True(t, IsCommonByte(0x01))
	assert.True(t, IsCommonByte(0xFF))
	assert.True(t, IsCommonByte(' '))
	assert.True(t, IsCommonByte('A'))
	assert.True(t, IsCommonByte('z'))
	assert.True(t, IsCommonByte('5'))
	assert.False(t, IsCommonByte(0x02))
	assert.False(t, IsCommonByte(0x80))
}

func TestNewInitializesEveryOffsetToZero(t *testing.T) {
	table := New([]int64{0, 1, 2})
	assert.Equal(t, 0, table.WeightFor(0))
	assert.Equal(t, 0, table.Largest())
	assert.ElementsMatch(t, []int64{0, 1, 2}, table.OffsetsForWeight(0))
}

func TestAddAccumulatesAndMovesBucket(t *testing.T) {
	table := New([]int64{0, 1})
	table.Add(0, 3)
	table.Add(0, 2)
	table.Add(1, 1)

	assert.Equal(t, 5, table.WeightFor(0))
	assert.Equal(t, 1, table.WeightFor(1))
	assert.Equal(t, 5, table.Largest())
	assert.Equal(t, []int64{0}, table.OffsetsForWeight(5))
}

func TestOffsetsForWeightIsAscendingAndDeduped(t *testing.T) {
	table := New([]int64{3, 1, 2})
	table.Set(1, 7)
	table.Set(2, 7)
	table.Set(3, 7)

	assert.Equal(t, []int64{1, 2, 3}, table.OffsetsForWeight(7))
}
