package qr

import (
	"errors"

	"cairo-metro-ticketing/internal/domain/ports/adapter"

	qrcode "github.com/skip2/go-qrcode"
)

var _ adapter.QREncoder = (*PNGEncoder)(nil)

const (
	minSize     = 64
	maxSize     = 1024
	defaultSize = 256
)

// PNGEncoder renders QR payloads as PNG images at medium error correction.
type PNGEncoder struct {
	level qrcode.RecoveryLevel
}

func NewPNGEncoder() *PNGEncoder {
	return &PNGEncoder{level: qrcode.Medium}
}

func (e *PNGEncoder) Encode(payload string, size int) ([]byte, error) {
	if payload == "" {
		return nil, errors.New("qr: empty payload")
	}
	switch {
	case size <= 0:
		size = defaultSize
	case size < minSize:
		size = minSize
	case size > maxSize:
		size = maxSize
	}
	return qrcode.Encode(payload, e.level, size)
}
