package scan

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyImage() *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.White, color.Black})
	img.SetColorIndex(1, 1, 1)
	return img
}

func TestPrepareRejects(t *testing.T) {
	_, err := Prepare("a.png", "image/png", nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Prepare("a.png", "image/png", make([]byte, MaxUploadSize+1))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Prepare("notes.txt", "text/plain", []byte("just some text"))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestPreparePassesPNGThrough(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, tinyImage()))

	up, err := Prepare("receipt.png", "application/octet-stream", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "image/png", up.ContentType)
	assert.Equal(t, "receipt.png", up.Filename)
	assert.Equal(t, buf.Bytes(), up.Data)
}

func TestPrepareConvertsGIF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, tinyImage(), nil))

	up, err := Prepare("receipt.gif", "image/gif", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "image/png", up.ContentType)
	assert.Equal(t, "receipt.png", up.Filename)

	img, err := png.Decode(bytes.NewReader(up.Data))
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
}

func TestIsHEICFormat(t *testing.T) {
	header := []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00")
	assert.True(t, isHEICFormat(header))
	assert.False(t, isHEICFormat([]byte("\x00\x00\x00\x18ftypisom")))
	assert.False(t, isHEICFormat([]byte("short")))
	assert.True(t, isHEICMimeType("image/heif"))
}

func TestPNGName(t *testing.T) {
	assert.Equal(t, "IMG_0001.png", pngName("IMG_0001.HEIC"))
	assert.Equal(t, "receipt.png", pngName(""))
}
