package render

import (
	"errors"
	"fmt"
	"image/color"

	qrcode "github.com/skip2/go-qrcode"
)

// QRSize is the default QR image edge in pixels.
const QRSize = 200

var qrForeground = color.RGBA{R: 0, G: 0, B: 255, A: 255}

// QRCode encodes url as a blue-on-white PNG of size×size pixels.
func QRCode(url string, size int) ([]byte, error) {
	if url == "" {
		return nil, errors.New("qr: empty url")
	}
	q, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr: %w", err)
	}
	q.ForegroundColor = qrForeground
	q.BackgroundColor = color.White

	png, err := q.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("qr: %w", err)
	}
	return png, nil
}
