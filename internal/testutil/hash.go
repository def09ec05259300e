package testutil

import (
	"bytes"
	"crypto/md5"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// MD5 returns the digest posts are keyed by.
func MD5(data []byte) [16]byte {
	return md5.Sum(data)
}

// PNG encodes a w x h image filled with c.
func PNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}
