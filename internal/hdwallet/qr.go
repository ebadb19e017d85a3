package hdwallet

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// AddressQR renders a receive address as a base64-encoded PNG QR code.
func AddressQR(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
