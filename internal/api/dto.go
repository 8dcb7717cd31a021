// Package api exposes the channel core's public entry points (spec §6)
// over HTTP: gorilla/mux routing, a gorilla/rpc JSON-RPC 2.0 service,
// and a gorilla/websocket event feed, generalizing node/config.go's
// HTTPHost/HTTPPort/HTTPSEnabled section into a dedicated transport
// package sitting in front of Operator.
package api

import (
	"encoding/hex"
	"fmt"

	"github.com/ava-labs/privacy-channel/internal/channel/auth"
	"github.com/ava-labs/privacy-channel/internal/channel/bundle"
	"github.com/ava-labs/privacy-channel/internal/channel/operator"
	"github.com/ava-labs/privacy-channel/internal/condition"
	"github.com/ava-labs/privacy-channel/internal/crypto"
	"github.com/ava-labs/privacy-channel/internal/ids"
)

// KeyDTO is the wire form of a crypto.SignerKey.
type KeyDTO struct {
	Kind string `json:"kind"` // "p256", "ed25519", or "provider"
	Key  string `json:"key"`  // hex-encoded public key bytes
}

func keyToDTO(k crypto.SignerKey) KeyDTO {
	var kind string
	switch k.Kind {
	case crypto.SignerP256:
		kind = "p256"
	case crypto.SignerEd25519:
		kind = "ed25519"
	case crypto.SignerProvider:
		kind = "provider"
	}
	return KeyDTO{Kind: kind, Key: hex.EncodeToString(k.Key)}
}

func keyFromDTO(d KeyDTO) (crypto.SignerKey, error) {
	raw, err := hex.DecodeString(d.Key)
	if err != nil {
		return crypto.SignerKey{}, fmt.Errorf("api: bad key hex: %w", err)
	}
	switch d.Kind {
	case "p256":
		return crypto.NewP256SignerKey(raw)
	case "ed25519":
		return crypto.NewEd25519SignerKey(raw)
	case "provider":
		return crypto.NewProviderSignerKey(raw)
	default:
		return crypto.SignerKey{}, fmt.Errorf("api: unknown key kind %q", d.Kind)
	}
}

// SignatureDTO is the wire form of a crypto.Signature.
type SignatureDTO struct {
	Kind string `json:"kind"`
	Sig  string `json:"sig"` // hex-encoded signature bytes
}

func sigToDTO(s crypto.Signature) SignatureDTO {
	var kind string
	switch s.Kind {
	case crypto.SigP256:
		kind = "p256"
	case crypto.SigEd25519:
		kind = "ed25519"
	case crypto.SigSecp256k1:
		kind = "secp256k1"
	case crypto.SigBLS12_381:
		kind = "bls12_381"
	}
	return SignatureDTO{Kind: kind, Sig: hex.EncodeToString(s.Raw)}
}

func sigFromDTO(d SignatureDTO) (crypto.Signature, error) {
	raw, err := hex.DecodeString(d.Sig)
	if err != nil {
		return crypto.Signature{}, fmt.Errorf("api: bad signature hex: %w", err)
	}
	switch d.Kind {
	case "p256":
		return crypto.Signature{Kind: crypto.SigP256, Raw: raw}, nil
	case "ed25519":
		return crypto.Signature{Kind: crypto.SigEd25519, Raw: raw}, nil
	case "secp256k1":
		return crypto.Signature{Kind: crypto.SigSecp256k1, Raw: raw}, nil
	case "bls12_381":
		return crypto.Signature{Kind: crypto.SigBLS12_381, Raw: raw}, nil
	default:
		return crypto.Signature{}, fmt.Errorf("api: unknown signature kind %q", d.Kind)
	}
}

// ConditionDTO is the wire form of a condition.Condition.
type ConditionDTO struct {
	Kind    string   `json:"kind"` // "create", "ext_deposit", "ext_withdraw", "ext_integration"
	UTXO    *KeyDTO  `json:"utxo,omitempty"`
	Account string   `json:"account,omitempty"` // hex ShortID
	Adapter string   `json:"adapter,omitempty"` // hex ShortID
	UTXOs   []KeyDTO `json:"utxos,omitempty"`
	Amount  int64    `json:"amount"`
}

func conditionToDTO(c condition.Condition) ConditionDTO {
	d := ConditionDTO{Amount: c.Amount}
	switch c.Kind {
	case condition.KindCreate:
		d.Kind = "create"
		k := keyToDTO(c.UTXO)
		d.UTXO = &k
	case condition.KindExtDeposit:
		d.Kind = "ext_deposit"
		d.Account = hex.EncodeToString(c.Account[:])
	case condition.KindExtWithdraw:
		d.Kind = "ext_withdraw"
		d.Account = hex.EncodeToString(c.Account[:])
	case condition.KindExtIntegration:
		d.Kind = "ext_integration"
		d.Adapter = hex.EncodeToString(c.Adapter[:])
		for _, u := range c.UTXOs {
			d.UTXOs = append(d.UTXOs, keyToDTO(u))
		}
	}
	return d
}

func conditionFromDTO(d ConditionDTO) (condition.Condition, error) {
	switch d.Kind {
	case "create":
		if d.UTXO == nil {
			return condition.Condition{}, fmt.Errorf("api: create condition missing utxo")
		}
		k, err := keyFromDTO(*d.UTXO)
		if err != nil {
			return condition.Condition{}, err
		}
		return condition.Create(k, d.Amount), nil
	case "ext_deposit", "ext_withdraw":
		acct, err := ids.ShortFromHex(d.Account)
		if err != nil {
			return condition.Condition{}, err
		}
		if d.Kind == "ext_deposit" {
			return condition.ExtDeposit(acct, d.Amount), nil
		}
		return condition.ExtWithdraw(acct, d.Amount), nil
	case "ext_integration":
		adapter, err := ids.ShortFromHex(d.Adapter)
		if err != nil {
			return condition.Condition{}, err
		}
		utxos := make([]crypto.SignerKey, len(d.UTXOs))
		for i, u := range d.UTXOs {
			k, err := keyFromDTO(u)
			if err != nil {
				return condition.Condition{}, err
			}
			utxos[i] = k
		}
		return condition.ExtIntegration(adapter, utxos, d.Amount), nil
	default:
		return condition.Condition{}, fmt.Errorf("api: unknown condition kind %q", d.Kind)
	}
}

func sequenceFromDTO(ds []ConditionDTO) (condition.Sequence, error) {
	seq := make(condition.Sequence, len(ds))
	for i, d := range ds {
		c, err := conditionFromDTO(d)
		if err != nil {
			return nil, err
		}
		seq[i] = c
	}
	return seq, nil
}

// SpendInputDTO is the wire form of operator.SpendInput.
type SpendInputDTO struct {
	Key        KeyDTO         `json:"key"`
	Conditions []ConditionDTO `json:"conditions"`
}

// CreateOutputDTO is the wire form of bundle.CreateOutput.
type CreateOutputDTO struct {
	Key    KeyDTO `json:"key"`
	Amount int64  `json:"amount"`
}

// LegDTO is the wire form of operator.Leg.
type LegDTO struct {
	Account    string         `json:"account"` // hex ShortID
	Amount     int64          `json:"amount"`
	Conditions []ConditionDTO `json:"conditions"`
	ApprovalKey KeyDTO        `json:"approvalKey"`
	ApprovalSig SignatureDTO  `json:"approvalSig"`
}

// SignatureEntryDTO is the wire form of auth.SignatureEntry.
type SignatureEntryDTO struct {
	Key              KeyDTO       `json:"key"`
	Signature        SignatureDTO `json:"signature"`
	ValidUntilLedger uint32       `json:"validUntilLedger"`
}

// ContextDTO is the wire form of auth.Context, for callers that need
// to attach non-contract contexts alongside the operation.
type ContextDTO struct {
	Kind         string              `json:"kind"` // "contract" or "other"
	Contract     string              `json:"contract,omitempty"`
	Requirements []RequirementDTO    `json:"requirements,omitempty"`
}

// RequirementDTO is the wire form of auth.Requirement.
type RequirementDTO struct {
	Key        KeyDTO         `json:"key"`
	Conditions []ConditionDTO `json:"conditions"`
}

// TransactRequest is the full wire form of one Operator.Transact call.
type TransactRequest struct {
	Spend    []SpendInputDTO    `json:"spend,omitempty"`
	Create   []CreateOutputDTO  `json:"create,omitempty"`
	Deposit  []LegDTO           `json:"deposit,omitempty"`
	Withdraw []LegDTO           `json:"withdraw,omitempty"`

	Digest        string              `json:"digest"` // hex
	Signatures    []SignatureEntryDTO `json:"signatures"`
	Contexts      []ContextDTO        `json:"contexts,omitempty"`
	CurrentLedger uint32              `json:"currentLedger"`
}

// TransactResponse carries success plus the correlation id stamped on
// this call (spec EXPANSION B.11), so a caller can line its request up
// against the matching websocket event or a trace. Callers poll
// balances or the websocket feed for the transact's effects.
type TransactResponse struct {
	OK            bool   `json:"ok"`
	CorrelationID string `json:"correlationId"`
}

func legFromDTO(d LegDTO) (operator.Leg, error) {
	acct, err := ids.ShortFromHex(d.Account)
	if err != nil {
		return operator.Leg{}, err
	}
	conds, err := sequenceFromDTO(d.Conditions)
	if err != nil {
		return operator.Leg{}, err
	}
	key, err := keyFromDTO(d.ApprovalKey)
	if err != nil {
		return operator.Leg{}, err
	}
	sig, err := sigFromDTO(d.ApprovalSig)
	if err != nil {
		return operator.Leg{}, err
	}
	return operator.Leg{
		Account:    acct,
		Amount:     d.Amount,
		Conditions: conds,
		Approval:   operator.ExternalApproval{Key: key, Signature: sig},
	}, nil
}

func toChannelOperation(req TransactRequest) (operator.ChannelOperation, error) {
	var op operator.ChannelOperation

	for _, s := range req.Spend {
		key, err := keyFromDTO(s.Key)
		if err != nil {
			return op, err
		}
		conds, err := sequenceFromDTO(s.Conditions)
		if err != nil {
			return op, err
		}
		op.Spend = append(op.Spend, operator.SpendInput{Key: key, Conditions: conds})
	}
	for _, c := range req.Create {
		key, err := keyFromDTO(c.Key)
		if err != nil {
			return op, err
		}
		op.Create = append(op.Create, bundle.CreateOutput{Key: key, Amount: c.Amount})
	}
	for _, d := range req.Deposit {
		leg, err := legFromDTO(d)
		if err != nil {
			return op, err
		}
		op.Deposit = append(op.Deposit, leg)
	}
	for _, w := range req.Withdraw {
		leg, err := legFromDTO(w)
		if err != nil {
			return op, err
		}
		op.Withdraw = append(op.Withdraw, leg)
	}
	return op, nil
}

func toAuthInput(req TransactRequest) (operator.AuthInput, error) {
	digest, err := hex.DecodeString(req.Digest)
	if err != nil {
		return operator.AuthInput{}, fmt.Errorf("api: bad digest hex: %w", err)
	}

	sigs := make(auth.Signatures, len(req.Signatures))
	for i, s := range req.Signatures {
		key, err := keyFromDTO(s.Key)
		if err != nil {
			return operator.AuthInput{}, err
		}
		sig, err := sigFromDTO(s.Signature)
		if err != nil {
			return operator.AuthInput{}, err
		}
		sigs[i] = auth.SignatureEntry{Key: key, Signature: sig, ValidUntilLedger: s.ValidUntilLedger}
	}

	contexts := make([]auth.Context, len(req.Contexts))
	for i, c := range req.Contexts {
		kind := auth.ContextOther
		if c.Kind == "contract" {
			kind = auth.ContextContract
		}
		var contract ids.ShortID
		if c.Contract != "" {
			contract, err = ids.ShortFromHex(c.Contract)
			if err != nil {
				return operator.AuthInput{}, err
			}
		}
		reqs := make(auth.AuthRequirements, len(c.Requirements))
		for j, r := range c.Requirements {
			key, err := keyFromDTO(r.Key)
			if err != nil {
				return operator.AuthInput{}, err
			}
			conds, err := sequenceFromDTO(r.Conditions)
			if err != nil {
				return operator.AuthInput{}, err
			}
			reqs[j] = auth.Requirement{Key: key, Conditions: conds}
		}
		contexts[i] = auth.Context{Kind: kind, Contract: contract, Requirements: reqs}
	}

	return operator.AuthInput{
		Digest:        digest,
		Signatures:    sigs,
		Contexts:      contexts,
		CurrentLedger: req.CurrentLedger,
	}, nil
}
