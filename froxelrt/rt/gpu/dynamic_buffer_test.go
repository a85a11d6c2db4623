package gpu

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDynamicBufferReallocatesOnlyOnCountChange(t *testing.T) {
	dev := NewSoftDevice(nil)
	b := NewDynamicBuffer(dev, "Test", 8)

	recreated, err := b.Sync(3, make([]byte, 24))
	require.NoError(t, err)
	assert.True(t, recreated)
	assert.Equal(t, 1, dev.BufferAllocations())

	recreated, err = b.Sync(5, make([]byte, 40))
	require.NoError(t, err)
	assert.True(t, recreated)
	assert.Equal(t, 2, dev.BufferAllocations())
	assert.Equal(t, uint64(40), b.Buffer().Size())

	data := bytes.Repeat([]byte{7}, 40)
	recreated, err = b.Sync(5, data)
	require.NoError(t, err)
	assert.False(t, recreated)
	assert.Equal(t, 2, dev.BufferAllocations())
	assert.Equal(t, data, dev.BufferData(b.Buffer()))

	assert.Equal(t, 5, b.Count())
	assert.Equal(t, 2, b.Reallocations())
	// the replaced buffer was released
	assert.Equal(t, 1, dev.LiveResources())
}

func TestDynamicBufferEmpty(t *testing.T) {
	dev := NewSoftDevice(nil)
	b := NewDynamicBuffer(dev, "Test", 48)

	_, err := b.Sync(0, nil)
	require.NoError(t, err)
	require.NotNil(t, b.Buffer())
	assert.Equal(t, 0, b.Count())
	assert.Equal(t, uint64(48), b.Buffer().Size())

	// 0 -> 0 keeps the placeholder allocation
	recreated, err := b.Sync(0, nil)
	require.NoError(t, err)
	assert.False(t, recreated)
	assert.Equal(t, 1, dev.BufferAllocations())

	b.Release()
	assert.Nil(t, b.Buffer())
	assert.Equal(t, 0, dev.LiveResources())
}

func TestDynamicBufferRejectsSizeMismatch(t *testing.T) {
	b := NewDynamicBuffer(NewSoftDevice(nil), "Test", 8)
	_, err := b.Sync(2, make([]byte, 8))
	assert.Error(t, err)
	_, err = b.Sync(-1, nil)
	assert.Error(t, err)
}
