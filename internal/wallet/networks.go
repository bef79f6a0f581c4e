package wallet

import "strings"

// UnknownNetwork is the label for chain ids outside the known table.
const UnknownNetwork = "Unknown Network"

// Target chain the app transacts on.
const (
	TargetChainID = "0xe705"
	TargetNetwork = "Linea Sepolia"
)

var networks = map[string]string{
	"0x1":      "Ethereum Mainnet",
	"0xaa36a7": "Sepolia Testnet",
	"0x89":     "Polygon Mainnet",
	"0x13882":  "Polygon Amoy",
	"0xa":      "Optimism",
	"0xa4b1":   "Arbitrum One",
	"0x2105":   "Base",
	"0xe708":   "Linea Mainnet",
	"0xe705":   "Linea Sepolia",
}

// NetworkLabel maps a hex chain id to a display label.
func NetworkLabel(chainID string) string {
	if label, ok := networks[strings.ToLower(chainID)]; ok {
		return label
	}
	return UnknownNetwork
}

type nativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

type addChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	RPCURLs           []string       `json:"rpcUrls"`
	NativeCurrency    nativeCurrency `json:"nativeCurrency"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls"`
}

var targetChain = addChainParams{
	ChainID:           TargetChainID,
	ChainName:         TargetNetwork,
	RPCURLs:           []string{"https://linea-sepolia.infura.io/v3/"},
	NativeCurrency:    nativeCurrency{Name: "ETH", Symbol: "ETH", Decimals: 18},
	BlockExplorerURLs: []string{"https://sepolia.lineascan.build/"},
}
