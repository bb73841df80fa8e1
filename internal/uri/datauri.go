package uri

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/feral-file/ff-starknet-indexer/internal/adapter"
)

var ErrInvalidDataURI = errors.New("invalid data URI")

// DataURI is a parsed RFC 2397 data URI
type DataURI struct {
	MimeType    string
	Base64      bool
	DecodedData []byte
}

// ParseDataURI parses data:[<mediatype>][;base64],<data>.
// Non-base64 payloads are percent-decoded; an omitted media type defaults to text/plain.
func ParseDataURI(s string, b64 adapter.Base64) (*DataURI, error) {
	if len(s) < len(dataScheme) || !strings.EqualFold(s[:len(dataScheme)], dataScheme) {
		return nil, fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURI)
	}

	header, payload, found := strings.Cut(s[len(dataScheme):], ",")
	if !found {
		return nil, fmt.Errorf("%w: missing comma separator", ErrInvalidDataURI)
	}

	result := &DataURI{MimeType: "text/plain"}
	params := strings.Split(header, ";")
	if mt := strings.TrimSpace(params[0]); mt != "" {
		result.MimeType = strings.ToLower(mt)
	}
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			result.Base64 = true
		}
	}

	if result.Base64 {
		// Some minters percent-encode the base64 alphabet
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			unescaped = payload
		}
		decoded, err := b64.Decode(unescaped)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDataURI, err)
		}
		result.DecodedData = decoded
		return result, nil
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		// Raw JSON payloads frequently carry a bare '%'
		decoded = payload
	}
	result.DecodedData = []byte(decoded)
	return result, nil
}
