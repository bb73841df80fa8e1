package uri_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-starknet-indexer/internal/adapter"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
	"github.com/feral-file/ff-starknet-indexer/internal/mocks"
	"github.com/feral-file/ff-starknet-indexer/internal/uri"
)

const testCID = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "  ", expected: ""},
		{name: "http untouched", input: "https://example.com/1.json", expected: "https://example.com/1.json"},
		{name: "ipfs gateway url", input: "https://gateway.pinata.cloud/ipfs/" + testCID + "/1.json", expected: "ipfs://" + testCID + "/1.json"},
		{name: "ipfs doubled prefix", input: "ipfs://ipfs/" + testCID, expected: "ipfs://" + testCID},
		{name: "surrounding whitespace", input: " ipfs://" + testCID + "\n", expected: "ipfs://" + testCID},
		{name: "bare gateway path without cid", input: "https://example.com/ipfs/", expected: "https://example.com/ipfs/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, uri.Normalize(tt.input))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected uri.Kind
	}{
		{name: "empty", input: "", expected: uri.KindUnknown},
		{name: "https", input: "https://example.com/1.json", expected: uri.KindHTTP},
		{name: "http uppercase", input: "HTTP://example.com/1.json", expected: uri.KindHTTP},
		{name: "ipfs scheme", input: "ipfs://" + testCID, expected: uri.KindIPFS},
		{name: "bare cidv0", input: testCID, expected: uri.KindIPFS},
		{name: "bare cidv0 with path", input: testCID + "/metadata.json", expected: uri.KindIPFS},
		{name: "bare cidv1", input: "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi", expected: uri.KindIPFS},
		{name: "arweave", input: "ar://bNbA3TEQVL60xlgCcqdz4ZPHFZ711cZ3hmkpGttDt_U", expected: uri.KindArweave},
		{name: "data uri", input: "data:application/json;base64,eyJuYW1lIjoiYSJ9", expected: uri.KindInline},
		{name: "raw json", input: `{"name":"a"}`, expected: uri.KindInline},
		{name: "base64 blob", input: "eyJuYW1lIjoiYSJ9", expected: uri.KindInline},
		{name: "unsupported scheme", input: "ftp://example.com/1.json", expected: uri.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, uri.Classify(tt.input))
		})
	}
}

func TestGatewayURLs(t *testing.T) {
	config := &uri.Config{
		IPFSGateways:    []string{"https://ipfs.io", "https://dweb.link/"},
		ArweaveGateways: []string{"https://arweave.net"},
	}

	assert.Equal(t,
		[]string{"https://ipfs.io/ipfs/" + testCID + "/1.json", "https://dweb.link/ipfs/" + testCID + "/1.json"},
		uri.GatewayURLs("ipfs://"+testCID+"/1.json", config))
	assert.Equal(t,
		[]string{"https://ipfs.io/ipfs/" + testCID, "https://dweb.link/ipfs/" + testCID},
		uri.GatewayURLs(testCID, config))
	assert.Equal(t,
		[]string{"https://arweave.net/tx123"},
		uri.GatewayURLs("ar://tx123", config))
	assert.Equal(t,
		[]string{"https://example.com/1.json"},
		uri.GatewayURLs("https://example.com/1.json", config))
	assert.Nil(t, uri.GatewayURLs(`{"name":"a"}`, config))
}

func TestExpandTokenID(t *testing.T) {
	assert.Equal(t,
		"https://example.com/000000000000000000000000000000000000000000000000000000000000004d.json",
		uri.ExpandTokenID("https://example.com/{id}.json", "0x4D"))
	assert.Equal(t, "https://example.com/1.json", uri.ExpandTokenID("https://example.com/1.json", "0x1"))
}

func TestParseDataURI(t *testing.T) {
	b64 := adapter.NewBase64()

	tests := []struct {
		name     string
		input    string
		mimeType string
		data     string
		wantErr  bool
	}{
		{name: "base64 json", input: "data:application/json;base64,eyJuYW1lIjoiYSJ9", mimeType: "application/json", data: `{"name":"a"}`},
		{name: "utf8 json", input: `data:application/json;utf8,{"name":"a"}`, mimeType: "application/json", data: `{"name":"a"}`},
		{name: "percent encoded", input: "data:application/json,%7B%22name%22%3A%22a%22%7D", mimeType: "application/json", data: `{"name":"a"}`},
		{name: "default mime type", input: "data:,hello", mimeType: "text/plain", data: "hello"},
		{name: "bare percent kept", input: `data:application/json,{"name":"100%"}`, mimeType: "application/json", data: `{"name":"100%"}`},
		{name: "missing comma", input: "data:application/json;base64", wantErr: true},
		{name: "not a data uri", input: "https://example.com", wantErr: true},
		{name: "invalid base64", input: "data:application/json;base64,!!!!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := uri.ParseDataURI(tt.input, b64)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, uri.ErrInvalidDataURI))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mimeType, parsed.MimeType)
			assert.Equal(t, tt.data, string(parsed.DecodedData))
		})
	}
}

func TestFetchFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("first success wins", func(t *testing.T) {
		httpClient := mocks.NewMockHTTPClient(ctrl)
		// the losing request may or may not be issued before the winner returns
		httpClient.EXPECT().GetBytes(gomock.Any(), "https://a/ipfs/x").Return(nil, errors.New("gateway down")).AnyTimes()
		httpClient.EXPECT().GetBytes(gomock.Any(), "https://b/ipfs/x").Return([]byte("ok"), nil)

		body, url, err := uri.FetchFirst(context.Background(), httpClient, []string{"https://a/ipfs/x", "https://b/ipfs/x"})
		require.NoError(t, err)
		assert.Equal(t, "ok", string(body))
		assert.Equal(t, "https://b/ipfs/x", url)
	})

	t.Run("all gateways fail", func(t *testing.T) {
		httpClient := mocks.NewMockHTTPClient(ctrl)
		httpClient.EXPECT().GetBytes(gomock.Any(), gomock.Any()).Return(nil, errors.New("gateway down")).Times(2)

		_, _, err := uri.FetchFirst(context.Background(), httpClient, []string{"https://a/ipfs/x", "https://b/ipfs/x"})
		require.Error(t, err)
	})

	t.Run("no gateways", func(t *testing.T) {
		httpClient := mocks.NewMockHTTPClient(ctrl)

		_, _, err := uri.FetchFirst(context.Background(), httpClient, nil)
		assert.ErrorIs(t, err, uri.ErrNoGateway)
	})
}

func TestParseDataURI_DecoderError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	decodeErr := errors.New("illegal base64 data at input byte 4")
	b64 := mocks.NewMockBase64(ctrl)
	b64.EXPECT().Decode("eyJu").Return(nil, decodeErr)

	_, err := uri.ParseDataURI("data:application/json;base64,eyJu", b64)
	require.Error(t, err)
	assert.ErrorIs(t, err, uri.ErrInvalidDataURI)
	assert.ErrorIs(t, err, decodeErr)
}
