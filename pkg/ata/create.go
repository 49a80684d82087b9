// Copyright 2025 github.com/dwnfan
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ata

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
	format "github.com/gagliardetto/solana-go/text/format"
	treeout "github.com/gagliardetto/treeout"
)

const ProgramName = "Associated Token Account Program"

var ProgramID = solana.SPLAssociatedTokenAccountProgramID

// Instruction index of CreateIdempotent in the Associated Token Account program.
const createIdempotentIndex byte = 1

// CreateIdempotent creates the associated token account of Owner for Mint unless it already
// exists. Works for both the SPL Token and Token-2022 programs.
type CreateIdempotent struct {
	Payer        solana.PublicKey `bin:"-" borsh_skip:"true"`
	Owner        solana.PublicKey `bin:"-" borsh_skip:"true"`
	Mint         solana.PublicKey `bin:"-" borsh_skip:"true"`
	TokenProgram solana.PublicKey `bin:"-" borsh_skip:"true"`

	// [0] = [WRITE, SIGNER] Payer
	// ··········· Funding account
	//
	// [1] = [WRITE] AssociatedTokenAccount
	// ··········· Associated token account address to be created
	//
	// [2] = [] Owner
	// ··········· Wallet or PDA owning the new account
	//
	// [3] = [] TokenMint
	//
	// [4] = [] SystemProgram
	//
	// [5] = [] TokenProgram
	// ··········· SPL Token or Token-2022 program ID
	solana.AccountMetaSlice `bin:"-" borsh_skip:"true"`
}

func NewCreateIdempotentInstructionBuilder() *CreateIdempotent {
	return &CreateIdempotent{TokenProgram: solana.TokenProgramID}
}

func (inst *CreateIdempotent) SetPayer(payer solana.PublicKey) *CreateIdempotent {
	inst.Payer = payer
	return inst
}

func (inst *CreateIdempotent) SetOwner(owner solana.PublicKey) *CreateIdempotent {
	inst.Owner = owner
	return inst
}

func (inst *CreateIdempotent) SetMint(mint solana.PublicKey) *CreateIdempotent {
	inst.Mint = mint
	return inst
}

func (inst *CreateIdempotent) SetTokenProgram(program solana.PublicKey) *CreateIdempotent {
	inst.TokenProgram = program
	return inst
}

// build attaches the account metas. address must be the derived associated token account.
func (inst CreateIdempotent) build(address solana.PublicKey) *Instruction {
	inst.AccountMetaSlice = solana.AccountMetaSlice{
		solana.Meta(inst.Payer).WRITE().SIGNER(),
		solana.Meta(address).WRITE(),
		solana.Meta(inst.Owner),
		solana.Meta(inst.Mint),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(inst.TokenProgram),
	}

	return &Instruction{BaseVariant: bin.BaseVariant{
		Impl:   inst,
		TypeID: bin.NoTypeIDDefaultID,
	}}
}

// ValidateAndBuild validates the instruction accounts.
// If there is a validation error, return the error.
// Otherwise, build and return the instruction.
func (inst CreateIdempotent) ValidateAndBuild() (*Instruction, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	address, err := Address(inst.Owner, inst.Mint, inst.TokenProgram)
	if err != nil {
		return nil, fmt.Errorf("error while deriving associated token address: %w", err)
	}
	return inst.build(address), nil
}

func (inst *CreateIdempotent) Validate() error {
	if inst.Payer.IsZero() {
		return errors.New("Payer not set")
	}
	if inst.Owner.IsZero() {
		return errors.New("Owner not set")
	}
	if inst.Mint.IsZero() {
		return errors.New("Mint not set")
	}
	if !IsTokenProgram(inst.TokenProgram) {
		return fmt.Errorf("unsupported token program %s", inst.TokenProgram)
	}
	if _, err := Address(inst.Owner, inst.Mint, inst.TokenProgram); err != nil {
		return fmt.Errorf("error while deriving associated token address: %w", err)
	}
	return nil
}

func (inst *CreateIdempotent) EncodeToTree(parent treeout.Branches) {
	parent.Child(format.Program(ProgramName, ProgramID)).
		//
		ParentFunc(func(programBranch treeout.Branches) {
			programBranch.Child(format.Instruction("CreateIdempotent")).
				//
				ParentFunc(func(instructionBranch treeout.Branches) {

					// Parameters of the instruction:
					instructionBranch.Child("Params[len=0]").ParentFunc(func(paramsBranch treeout.Branches) {})

					// Accounts of the instruction:
					instructionBranch.Child("Accounts[len=6]").ParentFunc(func(accountsBranch treeout.Branches) {
						accountsBranch.Child(format.Meta("                 payer", inst.AccountMetaSlice.Get(0)))
						accountsBranch.Child(format.Meta("associatedTokenAddress", inst.AccountMetaSlice.Get(1)))
						accountsBranch.Child(format.Meta("                 owner", inst.AccountMetaSlice.Get(2)))
						accountsBranch.Child(format.Meta("             tokenMint", inst.AccountMetaSlice.Get(3)))
						accountsBranch.Child(format.Meta("         systemProgram", inst.AccountMetaSlice.Get(4)))
						accountsBranch.Child(format.Meta("          tokenProgram", inst.AccountMetaSlice.Get(5)))
					})
				})
		})
}

func (inst CreateIdempotent) MarshalWithEncoder(encoder *bin.Encoder) error {
	return encoder.WriteUint8(createIdempotentIndex)
}

func (inst *CreateIdempotent) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	index, err := decoder.ReadUint8()
	if err != nil {
		return err
	}
	if index != createIdempotentIndex {
		return fmt.Errorf("unexpected instruction index %d", index)
	}
	return nil
}

func (inst CreateIdempotent) GetAccounts() []*solana.AccountMeta {
	return inst.AccountMetaSlice
}

// NewCreateIdempotentInstruction declares a new CreateIdempotent instruction with the provided parameters.
func NewCreateIdempotentInstruction(
	payer solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
	tokenProgram solana.PublicKey,
) *CreateIdempotent {
	return NewCreateIdempotentInstructionBuilder().
		SetPayer(payer).
		SetOwner(owner).
		SetMint(mint).
		SetTokenProgram(tokenProgram)
}
