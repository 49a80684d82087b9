package lookup

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	addresslookuptable "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	"github.com/gagliardetto/solana-go/rpc"
)

var ProgramID = solana.AddressLookupTableProgramID

const (
	instructionCreate uint32 = 0
	instructionExtend uint32 = 2

	// MaxExtendAddresses keeps one extend instruction within a legacy transaction.
	MaxExtendAddresses = 30
)

var (
	ErrInvalidTable = errors.New("lookup: invalid table account data")
	ErrDeactivated  = errors.New("lookup: table is deactivated")
)

// DeriveAddress returns the table address for authority created at recentSlot.
func DeriveAddress(authority solana.PublicKey, recentSlot uint64) (solana.PublicKey, uint8, error) {
	slot := make([]byte, 8)
	binary.LittleEndian.PutUint64(slot, recentSlot)
	return solana.FindProgramAddress([][]byte{authority[:], slot}, ProgramID)
}

// Create builds the create_lookup_table instruction and returns the new table address.
func Create(authority, payer solana.PublicKey, recentSlot uint64) (solana.Instruction, solana.PublicKey, error) {
	table, bump, err := DeriveAddress(authority, recentSlot)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}

	buf := make([]byte, 4+8+1)
	binary.LittleEndian.PutUint32(buf[0:], instructionCreate)
	binary.LittleEndian.PutUint64(buf[4:], recentSlot)
	buf[12] = bump

	accounts := solana.AccountMetaSlice{
		solana.Meta(table).WRITE(),
		solana.Meta(authority).SIGNER(),
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(solana.SystemProgramID),
	}
	return solana.NewInstruction(ProgramID, accounts, buf), table, nil
}

// Extend appends addresses to table, split into instructions of at most MaxExtendAddresses each.
func Extend(table, authority, payer solana.PublicKey, addresses solana.PublicKeySlice) []solana.Instruction {
	var out []solana.Instruction
	for start := 0; start < len(addresses); start += MaxExtendAddresses {
		end := start + MaxExtendAddresses
		if end > len(addresses) {
			end = len(addresses)
		}
		chunk := addresses[start:end]

		buf := make([]byte, 4+8+32*len(chunk))
		binary.LittleEndian.PutUint32(buf[0:], instructionExtend)
		binary.LittleEndian.PutUint64(buf[4:], uint64(len(chunk)))
		for i, address := range chunk {
			copy(buf[12+32*i:], address[:])
		}

		accounts := solana.AccountMetaSlice{
			solana.Meta(table).WRITE(),
			solana.Meta(authority).SIGNER(),
			solana.Meta(payer).WRITE().SIGNER(),
			solana.Meta(solana.SystemProgramID),
		}
		out = append(out, solana.NewInstruction(ProgramID, accounts, buf))
	}
	return out
}

// Table is the decoded state of a lookup table account.
type Table = addresslookuptable.AddressLookupTableState

// Decode parses table account data. Deactivated tables are returned with ErrDeactivated.
func Decode(data []byte) (*Table, error) {
	if len(data) < addresslookuptable.LOOKUP_TABLE_META_SIZE || (len(data)-addresslookuptable.LOOKUP_TABLE_META_SIZE)%32 != 0 {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidTable, len(data))
	}
	t, err := addresslookuptable.DecodeAddressLookupTableState(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if t.TypeIndex != 1 {
		return nil, fmt.Errorf("%w: type %d", ErrInvalidTable, t.TypeIndex)
	}
	if !t.IsActive() {
		return t, fmt.Errorf("%w: since slot %d", ErrDeactivated, t.DeactivationSlot)
	}
	return t, nil
}

type AccountGetter interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
}

func Fetch(ctx context.Context, client AccountGetter, table solana.PublicKey) (*Table, error) {
	out, err := client.GetAccountInfo(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("lookup: fetch %s: %w", table, err)
	}
	if out == nil || out.Value == nil {
		return nil, fmt.Errorf("lookup: table %s not found", table)
	}
	if !out.Value.Owner.Equals(ProgramID) {
		return nil, fmt.Errorf("%w: %s owned by %s", ErrInvalidTable, table, out.Value.Owner)
	}
	t, err := Decode(out.Value.Data.GetBinary())
	if err != nil {
		return nil, fmt.Errorf("lookup: table %s: %w", table, err)
	}
	return t, nil
}

// Missing returns the addresses not already in the table, deduplicated, in first-seen order.
func Missing(t *Table, addresses solana.PublicKeySlice) solana.PublicKeySlice {
	seen := make(map[solana.PublicKey]struct{}, len(addresses))
	if t != nil {
		for _, address := range t.Addresses {
			seen[address] = struct{}{}
		}
	}
	var out solana.PublicKeySlice
	for _, address := range addresses {
		if _, ok := seen[address]; ok {
			continue
		}
		seen[address] = struct{}{}
		out = append(out, address)
	}
	return out
}

// AccountsOf collects the account keys referenced by instructions, program IDs excluded.
func AccountsOf(instructions ...solana.Instruction) solana.PublicKeySlice {
	var out solana.PublicKeySlice
	for _, ix := range instructions {
		for _, meta := range ix.Accounts() {
			out = append(out, meta.PublicKey)
		}
	}
	return Missing(nil, out)
}
