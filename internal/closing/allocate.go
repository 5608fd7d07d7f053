// Package closing distributes a fiscal year's net income to the capital
// accounts of its owners and reconciles the result.
package closing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerport/internal/model"
)

// ResidualPolicy chooses the entity that absorbs the rounding residual when
// rounded shares do not add up to the rounded net income.
type ResidualPolicy string

const (
	// ResidualLast gives every entity but the last its rounded share; the
	// last entity receives the remainder.
	ResidualLast ResidualPolicy = "last"
	// ResidualFirst is the mirror of ResidualLast.
	ResidualFirst ResidualPolicy = "first"
	// ResidualLargest lets the entity with the largest share absorb the
	// remainder; ties go to the earliest entity.
	ResidualLargest ResidualPolicy = "largest"
)

// ParseResidualPolicy validates a policy name. Empty selects ResidualLast.
func ParseResidualPolicy(s string) (ResidualPolicy, error) {
	switch p := ResidualPolicy(s); p {
	case "":
		return ResidualLast, nil
	case ResidualLast, ResidualFirst, ResidualLargest:
		return p, nil
	}
	return "", model.ConfigurationError{Reason: fmt.Sprintf("unknown residual policy %q", s)}
}

// ShareTolerance bounds how far ownership shares may sum away from one.
var ShareTolerance = decimal.New(1, -9)

var one = decimal.NewFromInt(1)

// ValidateShares checks that every share lies in (0, 1] and that the shares
// sum to one within ShareTolerance.
func ValidateShares(entities []model.CapitalEntity) error {
	if len(entities) == 0 {
		return model.ConfigurationError{Reason: "no capital entities"}
	}
	sum := decimal.Zero
	for _, e := range entities {
		if !e.Share.IsPositive() || e.Share.GreaterThan(one) {
			return model.ConfigurationError{Reason: fmt.Sprintf("capital entity %q: ownership share %s outside (0, 1]", e.CapitalAccount, e.Share)}
		}
		sum = sum.Add(e.Share)
	}
	if sum.Sub(one).Abs().GreaterThan(ShareTolerance) {
		return model.ConfigurationError{Reason: fmt.Sprintf("ownership shares sum to %s, want 1", sum)}
	}
	return nil
}

// Allocation is one entity's part of the net income.
type Allocation struct {
	Entity model.CapitalEntity
	Amount decimal.Decimal
}

// Allocate splits netIncome across entities by ownership share, rounding
// each part to precision decimal places (half away from zero). The parts sum
// exactly to netIncome rounded to precision; the residual goes to the entity
// chosen by policy.
func Allocate(entities []model.CapitalEntity, netIncome decimal.Decimal, precision int32, policy ResidualPolicy) ([]Allocation, error) {
	if err := ValidateShares(entities); err != nil {
		return nil, err
	}

	absorber, err := absorberIndex(entities, policy)
	if err != nil {
		return nil, err
	}

	out := make([]Allocation, len(entities))
	distributed := decimal.Zero
	for i, e := range entities {
		out[i].Entity = e
		if i == absorber {
			continue
		}
		out[i].Amount = netIncome.Mul(e.Share).Round(precision)
		distributed = distributed.Add(out[i].Amount)
	}
	out[absorber].Amount = netIncome.Round(precision).Sub(distributed)
	return out, nil
}

func absorberIndex(entities []model.CapitalEntity, policy ResidualPolicy) (int, error) {
	switch policy {
	case ResidualLast, "":
		return len(entities) - 1, nil
	case ResidualFirst:
		return 0, nil
	case ResidualLargest:
		best := 0
		for i, e := range entities {
			if e.Share.GreaterThan(entities[best].Share) {
				best = i
			}
		}
		return best, nil
	}
	return 0, model.ConfigurationError{Reason: fmt.Sprintf("unknown residual policy %q", policy)}
}
