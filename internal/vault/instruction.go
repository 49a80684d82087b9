package vault

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Discriminator is the 8-byte anchor method selector sha256("global:<name>")[:8].
func Discriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:8]
}

// Instruction is an anchor instruction of the vault program: selector, borsh args, accounts.
type Instruction struct {
	Name string
	Args bin.BinaryMarshaler

	programID               solana.PublicKey
	solana.AccountMetaSlice `bin:"-" borsh_skip:"true"`
}

func (inst *Instruction) ProgramID() solana.PublicKey {
	return inst.programID
}

func (inst *Instruction) Accounts() []*solana.AccountMeta {
	return inst.AccountMetaSlice
}

func (inst *Instruction) Data() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(inst); err != nil {
		return nil, fmt.Errorf("unable to encode instruction %s: %w", inst.Name, err)
	}
	return buf.Bytes(), nil
}

func (inst *Instruction) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteBytes(Discriminator(inst.Name), false); err != nil {
		return err
	}
	if inst.Args == nil {
		return nil
	}
	return inst.Args.MarshalWithEncoder(encoder)
}

// WithRemainingAccounts appends protocol specific accounts after the fixed ones.
func (inst *Instruction) WithRemainingAccounts(metas ...*solana.AccountMeta) *Instruction {
	inst.AccountMetaSlice = append(inst.AccountMetaSlice, metas...)
	return inst
}

var _ solana.Instruction = (*Instruction)(nil)

func newInstruction(program solana.PublicKey, name string, args bin.BinaryMarshaler, accounts solana.AccountMetaSlice) *Instruction {
	return &Instruction{
		Name:             name,
		Args:             args,
		programID:        program,
		AccountMetaSlice: accounts,
	}
}

// writeOptionBytes encodes Option<Vec<u8>>. nil is None.
func writeOptionBytes(encoder *bin.Encoder, b []byte) error {
	if b == nil {
		return encoder.WriteBool(false)
	}
	if err := encoder.WriteBool(true); err != nil {
		return err
	}
	return encoder.WriteBytes(b, true)
}
