package syncengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func i64(v int64) *int64 { return &v }

func TestDecideMode(t *testing.T) {
	assert.Equal(t, ModeFull, DecideMode(i64(7), i64(9), i64(15)), "UIDVALIDITY mismatch forces Full")
	assert.Equal(t, ModeFull, DecideMode(i64(7), i64(7), nil), "absent stored uid_next forces Full")
	assert.Equal(t, ModeIncremental, DecideMode(i64(7), i64(7), i64(15)))
	assert.Equal(t, ModeIncremental, DecideMode(nil, nil, i64(15)))
}

func TestFullFetchStart(t *testing.T) {
	assert.Equal(t, uint32(1), FullFetchStart(50))
	assert.Equal(t, uint32(1), FullFetchStart(100))
	assert.Equal(t, uint32(101), FullFetchStart(200))
}

func TestFilterIncrementalUID(t *testing.T) {
	assert.False(t, FilterIncrementalUID(14, 15))
	assert.True(t, FilterIncrementalUID(15, 15))
	assert.True(t, FilterIncrementalUID(16, 15))
}
