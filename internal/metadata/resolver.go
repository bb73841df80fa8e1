package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/feral-file/ff-starknet-indexer/internal/adapter"
	"github.com/feral-file/ff-starknet-indexer/internal/domain"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
	"github.com/feral-file/ff-starknet-indexer/internal/uri"
)

var (
	errEmptyURI          = errors.New("empty token uri")
	errUnsupportedScheme = errors.New("unsupported token uri scheme")
	errNotJSON           = errors.New("content is not a JSON document")
)

// utf8 byte order mark, emitted by some metadata servers
var bom = []byte{0xEF, 0xBB, 0xBF}

// Resolver defines the interface for resolving token metadata from a token URI
//
//go:generate mockgen -source=resolver.go -destination=../mocks/metadata_resolver.go -package=mocks -mock_names=Resolver=MockMetadataResolver
type Resolver interface {
	// Resolve fetches and parses the metadata document behind tokenURI.
	// It never fails: anything that cannot be resolved yields the empty TokenMetadata.
	Resolve(ctx context.Context, tokenURI string) domain.TokenMetadata
}

type resolver struct {
	httpClient adapter.HTTPClient
	base64     adapter.Base64
	json       adapter.JSON
	config     *uri.Config
}

func NewResolver(httpClient adapter.HTTPClient, base64 adapter.Base64, json adapter.JSON, config *uri.Config) Resolver {
	return &resolver{
		httpClient: httpClient,
		base64:     base64,
		json:       json,
		config:     config,
	}
}

func (r *resolver) Resolve(ctx context.Context, tokenURI string) domain.TokenMetadata {
	normalized := uri.Normalize(tokenURI)

	content, err := r.fetch(ctx, normalized)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to fetch token metadata, using default",
			zap.String("tokenURI", truncate(tokenURI)),
			zap.Error(err))
		return domain.TokenMetadata{}
	}

	metadata, err := r.parse(content)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to parse token metadata, using default",
			zap.String("tokenURI", truncate(tokenURI)),
			zap.Error(err))
		return domain.TokenMetadata{}
	}

	return metadata
}

// fetch returns the raw bytes behind the uri according to its source kind
func (r *resolver) fetch(ctx context.Context, u string) ([]byte, error) {
	kind := uri.Classify(u)
	switch kind {
	case uri.KindHTTP, uri.KindIPFS, uri.KindArweave:
		urls := uri.GatewayURLs(u, r.config)
		body, from, err := uri.FetchFirst(ctx, r.httpClient, urls)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s uri: %w", kind, err)
		}
		logger.DebugCtx(ctx, "Fetched token metadata", zap.String("url", from), zap.Int("size", len(body)))
		return body, nil
	case uri.KindInline:
		return r.decodeInline(u)
	default:
		if u == "" {
			return nil, errEmptyURI
		}
		return nil, errUnsupportedScheme
	}
}

// decodeInline decodes metadata embedded in the uri itself: a data URI, raw JSON or a
// base64 blob
func (r *resolver) decodeInline(u string) ([]byte, error) {
	if strings.HasPrefix(strings.ToLower(u), "data:") {
		parsed, err := uri.ParseDataURI(u, r.base64)
		if err != nil {
			return nil, err
		}
		return parsed.DecodedData, nil
	}

	if strings.HasPrefix(u, "{") {
		return []byte(u), nil
	}

	decoded, err := r.base64.Decode(u)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 metadata: %w", err)
	}
	return decoded, nil
}

// parse checks the content looks like JSON before decoding it into the metadata schema, then
// strips what the stores cannot encode
func (r *resolver) parse(content []byte) (domain.TokenMetadata, error) {
	content = bytes.TrimSpace(bytes.TrimPrefix(content, bom))
	if len(content) == 0 {
		return domain.TokenMetadata{}, errNotJSON
	}

	// Servers frequently answer with an HTML error page or the image itself
	mtype := mimetype.Detect(content)
	if !isJSONLike(mtype) {
		return domain.TokenMetadata{}, fmt.Errorf("%w: detected %s", errNotJSON, mtype.String())
	}

	var metadata domain.TokenMetadata
	if err := r.json.Unmarshal(content, &metadata); err != nil {
		return domain.TokenMetadata{}, fmt.Errorf("failed to decode metadata: %w", err)
	}

	return metadata.Sanitized(), nil
}

// isJSONLike accepts JSON and its subtypes, plus plain text for documents the detector
// could not fully validate. HTML is a child of text/plain and is rejected.
func isJSONLike(mtype *mimetype.MIME) bool {
	if mtype.Is("text/plain") {
		return true
	}
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("application/json") {
			return true
		}
	}
	return false
}

// truncate keeps inline payloads out of the logs
func truncate(s string) string {
	const maxLen = 128
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
