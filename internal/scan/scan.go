// Package scan prepares receipt uploads for the API's scan endpoint.
//
// The API reads JPEG and PNG images. Other formats browsers hand us (HEIC
// photos from phones, PDF receipts, GIF) are converted to PNG first.
package scan

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/png"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// MaxUploadSize is the largest receipt accepted, in bytes.
const MaxUploadSize = 10 << 20

var (
	ErrEmpty       = errors.New("no file selected")
	ErrTooLarge    = errors.New("file exceeds 10MB")
	ErrUnsupported = errors.New("unsupported file format")
)

// Upload is a receipt file ready to send.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Prepare validates a receipt and converts it to a format the API reads.
// contentType is what the browser claimed; the data is sniffed as well.
func Prepare(filename, contentType string, data []byte) (Upload, error) {
	if len(data) == 0 {
		return Upload{}, ErrEmpty
	}
	if len(data) > MaxUploadSize {
		return Upload{}, ErrTooLarge
	}

	mimeType := normalizeMIME(contentType, data)
	switch {
	case mimeType == "image/jpeg" || mimeType == "image/png":
		return Upload{Filename: filename, ContentType: mimeType, Data: data}, nil
	case mimeType == "application/pdf":
		out, err := pdfToPNG(data)
		if err != nil {
			return Upload{}, fmt.Errorf("converting PDF to image: %w", err)
		}
		return Upload{Filename: pngName(filename), ContentType: "image/png", Data: out}, nil
	case isHEICFormat(data) || isHEICMimeType(mimeType):
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return Upload{}, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		out, err := encodePNG(img)
		if err != nil {
			return Upload{}, err
		}
		return Upload{Filename: pngName(filename), ContentType: "image/png", Data: out}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Upload{}, fmt.Errorf("%w: %s", ErrUnsupported, mimeType)
	}
	out, err := encodePNG(img)
	if err != nil {
		return Upload{}, err
	}
	return Upload{Filename: pngName(filename), ContentType: "image/png", Data: out}, nil
}

// normalizeMIME prefers the sniffed type over the browser's claim, which is
// often "application/octet-stream" for HEIC files.
func normalizeMIME(contentType string, data []byte) string {
	sniffed := http.DetectContentType(data)
	if sniffed != "application/octet-stream" {
		sniffed, _, _ = strings.Cut(sniffed, ";")
		return sniffed
	}
	mimeType, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(contentType)), ";")
	return mimeType
}

// pdfToPNG renders the first page of a PDF.
func pdfToPNG(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEICFormat checks for an ftyp box with a HEIC-related brand.
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

func pngName(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	if base == "" {
		base = "receipt"
	}
	return base + ".png"
}
