package models

import (
	"fmt"

	"github.com/dmitrijs2005/gophwallet/internal/common"
)

// Chain names a supported network.
type Chain string

const (
	ChainIC                  Chain = "ic"
	ChainEthereum            Chain = "ethereum"
	ChainEthereumTestSepolia Chain = "ethereum-test-sepolia"
	ChainPolygon             Chain = "polygon"
	ChainPolygonTestAmoy     Chain = "polygon-test-amoy"
	ChainBsc                 Chain = "bsc"
	ChainBscTest             Chain = "bsc-test"
)

// Chains lists every supported chain.
var Chains = []Chain{
	ChainIC,
	ChainEthereum,
	ChainEthereumTestSepolia,
	ChainPolygon,
	ChainPolygonTestAmoy,
	ChainBsc,
	ChainBscTest,
}

// ChainVisitor dispatches over chain families.
type ChainVisitor[T any] interface {
	IC() T
	EVM() T
}

// MatchChain calls the visitor method for the family of chain.
func MatchChain[T any](chain Chain, v ChainVisitor[T]) (T, error) {
	switch chain {
	case ChainIC:
		return v.IC(), nil
	case ChainEthereum, ChainEthereumTestSepolia, ChainPolygon, ChainPolygonTestAmoy, ChainBsc, ChainBscTest:
		return v.EVM(), nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %q", common.ErrUnknownChain, chain)
}

// ParseChain validates a chain name.
func ParseChain(s string) (Chain, error) {
	c := Chain(s)
	for _, known := range Chains {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", common.ErrUnknownChain, s)
}

// IdentityNetwork scopes persisted data of one chain family for one identity.
type IdentityNetwork struct {
	Family string `json:"family"`
	Owner  string `json:"owner"`
}

// Key is the namespace string used in storage keys.
func (n IdentityNetwork) Key() string {
	return n.Family + ":" + n.Owner
}

// CurrentIdentityNetwork holds the identity networks of the current
// identity, one per chain family. A nil entry means the family is unused.
type CurrentIdentityNetwork struct {
	IC  *IdentityNetwork `json:"ic,omitempty"`
	EVM *IdentityNetwork `json:"evm,omitempty"`
}

type pickNetwork struct{ c CurrentIdentityNetwork }

func (p pickNetwork) IC() *IdentityNetwork  { return p.c.IC }
func (p pickNetwork) EVM() *IdentityNetwork { return p.c.EVM }

// For resolves the identity network used for chain. ok is false when the
// chain is unknown or its family has no network.
func (c CurrentIdentityNetwork) For(chain Chain) (IdentityNetwork, bool) {
	n, err := MatchChain[*IdentityNetwork](chain, pickNetwork{c: c})
	if err != nil || n == nil {
		return IdentityNetwork{}, false
	}
	return *n, true
}
