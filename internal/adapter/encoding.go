package adapter

import (
	"encoding/base64"
	"strings"
)

// Base64 defines an interface for Base64 operations to enable mocking
//
//go:generate mockgen -source=encoding.go -destination=../mocks/encoding.go -package=mocks -mock_names=Base64=MockBase64
type Base64 interface {
	Encode(data []byte) string
	// Decode accepts padded and unpadded standard or URL-safe input, as found in
	// on-chain data URIs
	Decode(data string) ([]byte, error)
}

type RealBase64 struct{}

func NewBase64() Base64 {
	return &RealBase64{}
}

func (b *RealBase64) Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func (b *RealBase64) Decode(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err == nil {
		return decoded, nil
	}

	trimmed := strings.TrimRight(data, "=")
	if decoded, rawErr := base64.RawStdEncoding.DecodeString(trimmed); rawErr == nil {
		return decoded, nil
	}
	if decoded, rawErr := base64.RawURLEncoding.DecodeString(trimmed); rawErr == nil {
		return decoded, nil
	}
	return nil, err
}
