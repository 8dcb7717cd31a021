package operator

import (
	"math"

	"github.com/ava-labs/privacy-channel/internal/channel"
	"github.com/ava-labs/privacy-channel/internal/channel/auth"
	"github.com/ava-labs/privacy-channel/internal/channel/bundle"
	"github.com/ava-labs/privacy-channel/internal/condition"
	"github.com/ava-labs/privacy-channel/internal/crypto"
	"github.com/ava-labs/privacy-channel/internal/ids"
)

// Preprocessed is the output of PreProcess: the InternalBundle plus the
// two totals BundleEngine needs to enforce the balance law.
type Preprocessed struct {
	Bundle        bundle.InternalBundle
	TotalDeposit  int64
	TotalWithdraw int64
}

// PreProcess implements spec §4.7 step 1: conflict rejection, overflow-
// checked summation, external-leg validation, and AuthRequirements
// synthesis.
func PreProcess(op ChannelOperation) (Preprocessed, error) {
	if err := checkNoConflicts(op); err != nil {
		return Preprocessed{}, err
	}
	if err := checkExternalLegs(op.Deposit, op.Withdraw); err != nil {
		return Preprocessed{}, err
	}

	totalDeposit, err := sumChecked(op.Deposit)
	if err != nil {
		return Preprocessed{}, err
	}
	totalWithdraw, err := sumChecked(op.Withdraw)
	if err != nil {
		return Preprocessed{}, err
	}

	req := make(auth.AuthRequirements, 0, len(op.Spend))
	spendKeys := make([]crypto.SignerKey, 0, len(op.Spend))
	for _, s := range op.Spend {
		spendKeys = append(spendKeys, s.Key)
		req = append(req, auth.Requirement{Key: s.Key, Conditions: s.Conditions})
	}

	return Preprocessed{
		Bundle: bundle.InternalBundle{
			Spend:  spendKeys,
			Create: op.Create,
			Req:    req,
		},
		TotalDeposit:  totalDeposit,
		TotalWithdraw: totalWithdraw,
	}, nil
}

// checkNoConflicts gathers every condition attached anywhere in the
// operation (spend inputs, deposit legs, withdraw legs) and rejects the
// whole operation if any pair conflicts (spec §4.7.1.a, §4.8).
func checkNoConflicts(op ChannelOperation) error {
	var all condition.Sequence
	for _, s := range op.Spend {
		all = append(all, s.Conditions...)
	}
	for _, d := range op.Deposit {
		all = append(all, d.Conditions...)
	}
	for _, w := range op.Withdraw {
		all = append(all, w.Conditions...)
	}
	if !condition.IsConflictFree(all) {
		return channel.ErrBundleHasConflictingConditions
	}
	return nil
}

// checkExternalLegs implements spec §4.7.3.
func checkExternalLegs(deposits, withdraws []Leg) error {
	depositAccounts := make(map[ids.ShortID]condition.Sequence, len(deposits))
	for _, d := range deposits {
		if _, dup := depositAccounts[d.Account]; dup {
			return channel.ErrRepeatedAccountForDeposit
		}
		depositAccounts[d.Account] = d.Conditions
	}

	withdrawAccounts := make(map[ids.ShortID]condition.Sequence, len(withdraws))
	for _, w := range withdraws {
		if _, dup := withdrawAccounts[w.Account]; dup {
			return channel.ErrRepeatedAccountForWithdraw
		}
		withdrawAccounts[w.Account] = w.Conditions
	}

	for acct, depositConditions := range depositAccounts {
		if withdrawConditions, ok := withdrawAccounts[acct]; ok {
			if !depositConditions.Equal(withdrawConditions) {
				return channel.ErrConflictingConditionsForAccount
			}
		}
	}
	return nil
}

func sumChecked(legs []Leg) (int64, error) {
	var total int64
	for _, l := range legs {
		if l.Amount <= 0 {
			return 0, channel.ErrInvalidCreateAmount
		}
		if total > math.MaxInt64-l.Amount {
			return 0, channel.ErrAmountOverflow
		}
		total += l.Amount
	}
	return total, nil
}
