package submit

import (
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"

	"github.com/gagliardetto/solana-go"
)

const (
	// MaxComputeUnits is the per-transaction ceiling enforced by the runtime.
	MaxComputeUnits uint32 = 1_400_000

	marginNumerator   = 11
	marginDenominator = 10
)

// ComputeUnitBudget returns ceil(consumed * 1.1), clamped to MaxComputeUnits.
func ComputeUnitBudget(consumed uint64) uint32 {
	budget := (consumed*marginNumerator + marginDenominator - 1) / marginDenominator
	if budget > uint64(MaxComputeUnits) {
		return MaxComputeUnits
	}
	return uint32(budget)
}

func limitInstruction(units uint32) solana.Instruction {
	return computebudget.NewSetComputeUnitLimitInstruction(units).Build()
}

func priceInstruction(microLamports uint64) solana.Instruction {
	return computebudget.NewSetComputeUnitPriceInstruction(microLamports).Build()
}
