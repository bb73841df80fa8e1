package starknet

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// selectorMask keeps the low 250 bits of the keccak digest
var selectorMask = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 250), uint256.NewInt(1))

// Selector computes the sn_keccak selector of an entry point or event name
func Selector(name string) *uint256.Int {
	v := new(uint256.Int).SetBytes(crypto.Keccak256([]byte(name)))
	return v.And(v, selectorMask)
}

// Event keys of the transfer family
var (
	TransferKey       = Selector("Transfer")
	TransferSingleKey = Selector("TransferSingle")
	TransferBatchKey  = Selector("TransferBatch")
)

// View entry points
var (
	nameSelector       = Selector("name")
	symbolSelector     = Selector("symbol")
	tokenURISelector   = Selector("tokenURI")
	tokenURISnake      = Selector("token_uri")
	uriSelector        = Selector("uri")
	ownerOfNames       = []string{"ownerOf", "owner_of"}
	erc721URISelectors = []*uint256.Int{tokenURISelector, tokenURISnake}
	// uri is the ERC1155 name; some Cairo contracts expose tokenURI instead
	erc1155URISelectors = []*uint256.Int{uriSelector, tokenURISelector}
)
