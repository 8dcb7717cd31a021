// Package operator implements ChannelOperator (spec §4.7): the
// supply-preserving orchestrator that fuses a UTXO bundle with
// external deposit/withdraw legs. It is grounded on
// vms/platformvm's import/export transaction flow — stage everything
// that can fail against read-only state, mutate the UTXO set, then
// move the external asset — generalized from a two-chain AVAX transfer
// to an arbitrary external fungible asset.
package operator

import (
	"github.com/ava-labs/privacy-channel/internal/channel/bundle"
	"github.com/ava-labs/privacy-channel/internal/condition"
	"github.com/ava-labs/privacy-channel/internal/crypto"
	"github.com/ava-labs/privacy-channel/internal/ids"
)

// SpendInput is one spend entry of a ChannelOperation: the UTXO being
// consumed plus the conditions its owner signature must cover.
type SpendInput struct {
	Key        crypto.SignerKey
	Conditions condition.Sequence
}

// ExternalApproval binds a deposit or withdraw leg to the account's own
// authorization over that leg's conditions (spec §4.7: "require the
// account to have authorized the transfer with conditions as the
// argument"). Key must hash to Leg.Account (see legAccountAddress).
type ExternalApproval struct {
	Key       crypto.SignerKey
	Signature crypto.Signature
}

// Leg is one deposit or withdraw entry of a ChannelOperation.
type Leg struct {
	Account    ids.ShortID
	Amount     int64
	Conditions condition.Sequence
	Approval   ExternalApproval
}

// ChannelOperation is the client-assembled operation a transact call
// carries (spec §3).
type ChannelOperation struct {
	Spend    []SpendInput
	Create   []bundle.CreateOutput
	Deposit  []Leg
	Withdraw []Leg
}
