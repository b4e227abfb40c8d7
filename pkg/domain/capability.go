package domain

import "github.com/gagliardetto/solana-go"

// Capability is handed by the governance program to the token program when
// a governed change (pause, protocol address, metadata) is applied. The token
// side accepts it only when Registry matches the governance address recorded
// in its policy state.
type Capability struct {
	Registry solana.PublicKey
	Caller   solana.PublicKey
}
