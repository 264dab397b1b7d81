package pkg

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// GenerateJoinArtifact renders a join URL as a PNG QR code suitable for
// projecting to a room.
func GenerateJoinArtifact(url string) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, 512)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}
