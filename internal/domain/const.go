package domain

const (
	// Gateway constants
	DEFAULT_IPFS_GATEWAY    = "https://ipfs.io"
	DEFAULT_ARWEAVE_GATEWAY = "https://arweave.net"

	// ZERO_ADDRESS is the mint/burn sentinel, in the canonical felt hex form
	ZERO_ADDRESS = "0x0"

	// DEFAULT_LAST_SYNC is the checkpoint used when none has been recorded yet.
	// It precedes the deployment of every contract the indexer cares about.
	DEFAULT_LAST_SYNC uint64 = 1630

	// EVENTS_CHUNK_SIZE is the page size requested from starknet_getEvents
	EVENTS_CHUNK_SIZE = 1024
)

// Collection (table) names shared by every store backend
const (
	CollectionERC721Tokens     = "erc721_tokens"
	CollectionContractMetadata = "contract_metadata"
	CollectionERC1155Balances  = "erc1155_balances"
	CollectionERC1155Metadata  = "erc1155_metadata"
	CollectionIndexerMetadata  = "indexer_metadata"
	CollectionProcessedEvents  = "processed_events"
)
