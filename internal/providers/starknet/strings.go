package starknet

import (
	"strings"

	"github.com/holiman/uint256"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
)

// bytes31 is the payload size of one ByteArray data word
const bytes31 = 31

// DecodeString decodes the return value of a string view function. Three encodings exist
// in the wild:
//   - a single felt holding a short string (Cairo 0 name/symbol)
//   - a felt array [len, w0, w1, ...] of short strings (Cairo 0 tokenURI)
//   - a ByteArray [n, w0..wn-1, pending_word, pending_word_len] (Cairo 1)
//
// NUL characters and invalid UTF-8 are removed from the result.
func DecodeString(words []*uint256.Int) string {
	return domain.SanitizeString(decodeString(words))
}

func decodeString(words []*uint256.Int) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return domain.FeltToShortString(words[0])
	}

	if s, ok := decodeByteArray(words); ok {
		return s
	}

	head := words[0]
	if head.IsUint64() && head.Uint64() == uint64(len(words)-1) {
		return concatShortStrings(words[1:])
	}

	return concatShortStrings(words)
}

func decodeByteArray(words []*uint256.Int) (string, bool) {
	n := words[0]
	if !n.IsUint64() || n.Uint64() != uint64(len(words)-3) {
		return "", false
	}

	pendingLen := words[len(words)-1]
	if !pendingLen.IsUint64() || pendingLen.Uint64() >= bytes31 {
		return "", false
	}

	var sb strings.Builder
	for _, w := range words[1 : len(words)-2] {
		b := w.Bytes32()
		sb.Write(b[32-bytes31:])
	}

	pending := words[len(words)-2].Bytes32()
	sb.Write(pending[32-int(pendingLen.Uint64()):])

	return sb.String(), true
}

func concatShortStrings(words []*uint256.Int) string {
	var sb strings.Builder
	for _, w := range words {
		sb.WriteString(domain.FeltToShortString(w))
	}
	return sb.String()
}
