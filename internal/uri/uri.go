package uri

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind is the transport a token URI is fetched or decoded with
type Kind string

const (
	KindUnknown Kind = "unknown"
	KindHTTP    Kind = "http"
	KindIPFS    Kind = "ipfs"
	KindArweave Kind = "arweave"
	KindInline  Kind = "inline"
)

const (
	ipfsScheme    = "ipfs://"
	arweaveScheme = "ar://"
	dataScheme    = "data:"
)

var (
	// CIDv0 (base58btc sha256 multihash) or CIDv1 (base32, bafy/bafk/bafz prefixes)
	cidRegex    = regexp.MustCompile(`^(Qm[1-9A-HJ-NP-Za-km-z]{44}|b[a-z2-7]{58,})(/.*)?$`)
	base64Regex = regexp.MustCompile(`^[A-Za-z0-9+/_-]+={0,2}$`)
)

// Config holds configuration for gateway expansion
type Config struct {
	// IPFSGateways is the list of IPFS gateways to try
	IPFSGateways []string
	// ArweaveGateways is the list of Arweave gateways to try
	ArweaveGateways []string
}

// Normalize trims the URI and rewrites IPFS gateway URLs (https://host/ipfs/<cid>/...)
// to the canonical ipfs:// form so they can be served by any configured gateway
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if rest, ok := strings.CutPrefix(s, ipfsScheme); ok {
		// ipfs://ipfs/<cid> is a common mistake
		rest = strings.TrimPrefix(rest, "ipfs/")
		return ipfsScheme + rest
	}

	if isHTTP(s) {
		if _, after, found := strings.Cut(s, "/ipfs/"); found && after != "" {
			return ipfsScheme + after
		}
	}

	return s
}

// Classify determines how the URI's content must be obtained.
// The URI is expected to be normalized.
func Classify(s string) Kind {
	switch {
	case s == "":
		return KindUnknown
	case strings.HasPrefix(s, ipfsScheme):
		return KindIPFS
	case strings.HasPrefix(s, arweaveScheme):
		return KindArweave
	case isHTTP(s):
		return KindHTTP
	case IsCID(s):
		return KindIPFS
	case strings.HasPrefix(strings.ToLower(s), dataScheme):
		return KindInline
	case strings.HasPrefix(s, "{"):
		return KindInline
	case len(s) >= 4 && base64Regex.MatchString(s):
		return KindInline
	default:
		return KindUnknown
	}
}

// IsCID reports whether s is a bare IPFS content identifier, optionally followed by a path
func IsCID(s string) bool {
	return cidRegex.MatchString(s)
}

// GatewayURLs expands a content-addressed URI into the candidate HTTP URLs, one per gateway.
// HTTP URIs are returned as is; any other kind yields nil.
func GatewayURLs(s string, config *Config) []string {
	switch Classify(s) {
	case KindHTTP:
		return []string{s}
	case KindIPFS:
		path := strings.TrimPrefix(s, ipfsScheme)
		urls := make([]string, 0, len(config.IPFSGateways))
		for _, gw := range config.IPFSGateways {
			urls = append(urls, fmt.Sprintf("%s/ipfs/%s", strings.TrimSuffix(gw, "/"), path))
		}
		return urls
	case KindArweave:
		txID := strings.TrimPrefix(s, arweaveScheme)
		urls := make([]string, 0, len(config.ArweaveGateways))
		for _, gw := range config.ArweaveGateways {
			urls = append(urls, fmt.Sprintf("%s/%s", strings.TrimSuffix(gw, "/"), txID))
		}
		return urls
	default:
		return nil
	}
}

// ExpandTokenID substitutes the ERC1155 {id} placeholder with the 64-character
// lowercase hex form of the token id
func ExpandTokenID(s string, hexID string) string {
	if !strings.Contains(s, "{id}") {
		return s
	}
	id := strings.ToLower(strings.TrimPrefix(hexID, "0x"))
	if len(id) < 64 {
		id = strings.Repeat("0", 64-len(id)) + id
	}
	return strings.ReplaceAll(s, "{id}", id)
}

func isHTTP(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
