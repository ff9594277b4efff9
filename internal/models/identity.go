package models

// IdentityAddress holds the addresses of an identity per chain family.
type IdentityAddress struct {
	IC  *IcAddress  `json:"ic,omitempty"`
	EVM *EvmAddress `json:"evm,omitempty"`
}

// IcAddress is the owner principal and account id of an IC identity.
type IcAddress struct {
	Owner     string `json:"owner"`
	AccountID string `json:"account_id"`
}

// EvmAddress is the hex address of an EVM identity.
type EvmAddress struct {
	Address string `json:"address"`
}

// IdentityKey is one identity. Key material itself is managed elsewhere.
type IdentityKey struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Address IdentityAddress `json:"address"`
	Chain   Chain           `json:"chain"`
}

// PrivateKeys is the identity book persisted in the secure store.
type PrivateKeys struct {
	Current                string                 `json:"current"`
	Keys                   []IdentityKey          `json:"keys"`
	CurrentIdentityNetwork CurrentIdentityNetwork `json:"current_identity_network"`
}

// CurrentKey returns the current identity, if any.
func (p *PrivateKeys) CurrentKey() (IdentityKey, bool) {
	for _, k := range p.Keys {
		if k.ID == p.Current {
			return k, true
		}
	}
	return IdentityKey{}, false
}

// CurrentInfo describes the unlocked current identity.
type CurrentInfo struct {
	IdentityID             string
	Address                IdentityAddress
	Chain                  Chain
	CurrentIdentityNetwork CurrentIdentityNetwork
}
