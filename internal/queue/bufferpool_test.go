package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetBufferSizing(t *testing.T) {
	cases := []struct {
		request  int
		wantCap  int
		wantLen  int
	}{
		{1, size512b, 1},
		{size512b, size512b, size512b},
		{size512b + 1, size4k, size512b + 1},
		{size4k, size4k, size4k},
		{size16k, size16k, size16k},
		{size16k + 1, size64k, size16k + 1},
		{size64k, size64k, size64k},
	}
	for _, c := range cases {
		buf := GetBuffer(c.request)
		assert.Len(t, buf, c.wantLen)
		assert.Equal(t, c.wantCap, cap(buf))
		PutBuffer(buf)
	}
}

func TestPutBufferRoundTrip(t *testing.T) {
	buf := GetBuffer(size4k)
	buf[0] = 0xAB
	PutBuffer(buf)

	again := GetBuffer(size4k)
	assert.Len(t, again, size4k)
	PutBuffer(again)
}

func TestPutBufferNonStandardCapacityDropped(t *testing.T) {
	odd := make([]byte, 100)
	assert.NotPanics(t, func() { PutBuffer(odd) })
}
