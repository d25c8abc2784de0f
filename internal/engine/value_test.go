package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScanValue(t *testing.T) {
	assert.Equal(t, Value{Kind: KindNull}, scanValue(nil))
	assert.Equal(t, Value{Kind: KindInt, Int: 7}, scanValue(int64(7)))
	assert.Equal(t, Value{Kind: KindReal, Real: 1.5}, scanValue(1.5))
	assert.Equal(t, Value{Kind: KindText, Text: "hi"}, scanValue("hi"))
	assert.Equal(t, Value{Kind: KindInt, Int: 1}, scanValue(true))

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, Value{Kind: KindTime, Time: at}, scanValue(at))

	blob := scanValue([]byte{1, 2})
	assert.Equal(t, KindBlob, blob.Kind)
	assert.Equal(t, []byte{1, 2}, blob.Blob)
}

func TestScanValueCopiesBlobs(t *testing.T) {
	buf := []byte{1, 2, 3}
	v := scanValue(buf)
	buf[0] = 9 // driver may reuse the scan buffer
	assert.Equal(t, []byte{1, 2, 3}, v.Blob)
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "NULL", Value{Kind: KindNull}.String())
	assert.Equal(t, "-3", Value{Kind: KindInt, Int: -3}.String())
	assert.Equal(t, "2.5", Value{Kind: KindReal, Real: 2.5}.String())
	assert.Equal(t, "abc", Value{Kind: KindText, Text: "abc"}.String())
	assert.Equal(t, "x'00ff'", Value{Kind: KindBlob, Blob: []byte{0x00, 0xff}}.String())

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "2024-01-02 03:04:05", Value{Kind: KindTime, Time: at}.String())
}
