package gpu

import (
	"fmt"
)

// DynamicBuffer is a device buffer holding Count() fixed-size elements. Its owner
// calls Sync each frame; the device allocation is replaced only when the element
// count changes and written in place otherwise.
type DynamicBuffer struct {
	device   Device
	label    string
	elemSize int

	buf           Buffer
	count         int
	reallocations int
}

func NewDynamicBuffer(device Device, label string, elemSize int) *DynamicBuffer {
	return &DynamicBuffer{
		device:   device,
		label:    label,
		elemSize: elemSize,
	}
}

// Sync makes the buffer hold exactly count elements from data. It reports
// whether the device buffer was recreated. An empty buffer still owns one
// element of storage because zero-sized bindings are invalid; Count stays 0.
func (b *DynamicBuffer) Sync(count int, data []byte) (bool, error) {
	if count < 0 {
		return false, fmt.Errorf("%s: negative element count %d", b.label, count)
	}
	if len(data) != count*b.elemSize {
		return false, fmt.Errorf("%s: %d bytes for %d elements of %d", b.label, len(data), count, b.elemSize)
	}

	recreated := false
	if b.buf == nil || b.count != count {
		if b.buf != nil {
			b.buf.Release()
			b.buf = nil
		}
		slots := count
		if slots < 1 {
			slots = 1
		}
		buf, err := b.device.CreateBuffer(b.label, uint64(slots*b.elemSize))
		if err != nil {
			b.count = 0
			return false, fmt.Errorf("%s: create: %w", b.label, err)
		}
		b.buf = buf
		b.reallocations++
		recreated = true
	}
	b.count = count

	if len(data) > 0 {
		if err := b.device.WriteBuffer(b.buf, data); err != nil {
			return recreated, fmt.Errorf("%s: write: %w", b.label, err)
		}
	}
	return recreated, nil
}

func (b *DynamicBuffer) Buffer() Buffer {
	return b.buf
}

func (b *DynamicBuffer) Count() int {
	return b.count
}

// Reallocations counts device buffers created over the buffer's lifetime.
func (b *DynamicBuffer) Reallocations() int {
	return b.reallocations
}

func (b *DynamicBuffer) Release() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
	b.count = 0
}
