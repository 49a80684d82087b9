package ata

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

func IsTokenProgram(program solana.PublicKey) bool {
	return program.Equals(solana.TokenProgramID) || program.Equals(solana.Token2022ProgramID)
}

// Address derives the associated token account of owner for mint under tokenProgram.
// Owners may be PDAs.
func Address(owner, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := solana.FindProgramAddress([][]byte{
		owner[:],
		tokenProgram[:],
		mint[:],
	},
		ProgramID,
	)
	return address, err
}

// WrapSOL funds owner's WSOL account with lamports: create it if missing, transfer, sync.
func WrapSOL(payer, owner solana.PublicKey, lamports uint64) ([]solana.Instruction, error) {
	create, err := NewCreateIdempotentInstruction(payer, owner, solana.SolMint, solana.TokenProgramID).ValidateAndBuild()
	if err != nil {
		return nil, err
	}
	wsol, err := Address(owner, solana.SolMint, solana.TokenProgramID)
	if err != nil {
		return nil, err
	}
	return []solana.Instruction{
		create,
		system.NewTransferInstruction(lamports, owner, wsol).Build(),
		token.NewSyncNativeInstruction(wsol).Build(),
	}, nil
}

// UnwrapSOL closes owner's WSOL account, returning its lamports to owner.
func UnwrapSOL(owner solana.PublicKey) (solana.Instruction, error) {
	wsol, err := Address(owner, solana.SolMint, solana.TokenProgramID)
	if err != nil {
		return nil, err
	}
	return token.NewCloseAccountInstruction(wsol, owner, owner, []solana.PublicKey{}).Build(), nil
}

// DecodeAccount reads the base token account layout. Token-2022 extension data past it is ignored.
func DecodeAccount(data []byte) (*token.Account, error) {
	var account token.Account
	if err := bin.NewBinDecoder(data).Decode(&account); err != nil {
		return nil, fmt.Errorf("decode token account: %w", err)
	}
	return &account, nil
}

func DecodeMint(data []byte) (*token.Mint, error) {
	var mint token.Mint
	if err := bin.NewBinDecoder(data).Decode(&mint); err != nil {
		return nil, fmt.Errorf("decode mint: %w", err)
	}
	return &mint, nil
}
