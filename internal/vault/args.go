package vault

import (
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
)

// VaultConfig carries the admin tunable parameters of a vault. Fees are basis points.
type VaultConfig struct {
	MaxCap                uint64
	StartAtTs             uint64
	ManagerPerformanceFee uint16
	AdminPerformanceFee   uint16
	ManagerManagementFee  uint16
	AdminManagementFee    uint16
}

func (c VaultConfig) MarshalWithEncoder(encoder *bin.Encoder) (err error) {
	if err = encoder.WriteUint64(c.MaxCap, binary.LittleEndian); err != nil {
		return err
	}
	if err = encoder.WriteUint64(c.StartAtTs, binary.LittleEndian); err != nil {
		return err
	}
	for _, fee := range []uint16{
		c.ManagerPerformanceFee,
		c.AdminPerformanceFee,
		c.ManagerManagementFee,
		c.AdminManagementFee,
	} {
		if err = encoder.WriteUint16(fee, binary.LittleEndian); err != nil {
			return err
		}
	}
	return nil
}

type InitializeVaultArgs struct {
	Config      VaultConfig
	Name        string
	Description string
}

func (a InitializeVaultArgs) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := a.Config.MarshalWithEncoder(encoder); err != nil {
		return err
	}
	if err := encoder.WriteString(a.Name); err != nil {
		return err
	}
	return encoder.WriteString(a.Description)
}

type amountArgs struct {
	Amount uint64
}

func (a amountArgs) MarshalWithEncoder(encoder *bin.Encoder) error {
	return encoder.WriteUint64(a.Amount, binary.LittleEndian)
}

type RequestWithdrawVaultArgs struct {
	Amount        uint64
	IsAmountInLp  bool
	IsWithdrawAll bool
}

func (a RequestWithdrawVaultArgs) MarshalWithEncoder(encoder *bin.Encoder) (err error) {
	if err = encoder.WriteUint64(a.Amount, binary.LittleEndian); err != nil {
		return err
	}
	if err = encoder.WriteBool(a.IsAmountInLp); err != nil {
		return err
	}
	return encoder.WriteBool(a.IsWithdrawAll)
}

type InitializeStrategyArgs struct {
	InstructionDiscriminator []byte
	AdditionalArgs           []byte
}

func (a InitializeStrategyArgs) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := writeOptionBytes(encoder, a.InstructionDiscriminator); err != nil {
		return err
	}
	return writeOptionBytes(encoder, a.AdditionalArgs)
}

// StrategyAmountArgs is shared by deposit_strategy and withdraw_strategy.
type StrategyAmountArgs struct {
	Amount         uint64
	AdditionalArgs []byte
}

func (a StrategyAmountArgs) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteUint64(a.Amount, binary.LittleEndian); err != nil {
		return err
	}
	return writeOptionBytes(encoder, a.AdditionalArgs)
}

type InitializeDirectWithdrawStrategyArgs struct {
	InstructionDiscriminator []byte
	AdditionalArgs           []byte
	AllowUserArgs            bool
}

func (a InitializeDirectWithdrawStrategyArgs) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := writeOptionBytes(encoder, a.InstructionDiscriminator); err != nil {
		return err
	}
	if err := writeOptionBytes(encoder, a.AdditionalArgs); err != nil {
		return err
	}
	return encoder.WriteBool(a.AllowUserArgs)
}

type DirectWithdrawStrategyArgs struct {
	UserArgs []byte
}

func (a DirectWithdrawStrategyArgs) MarshalWithEncoder(encoder *bin.Encoder) error {
	return writeOptionBytes(encoder, a.UserArgs)
}
