package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"vault-ops/pkg/ata"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrUnknownProtocol = errors.New("protocol: unknown protocol")
	ErrMissingAccount  = errors.New("protocol: required account not configured")
)

// Strategy identifies the vault side of a strategy: the PDA that owns the strategy's
// positions and the asset it moves.
type Strategy struct {
	Auth              solana.PublicKey
	AssetMint         solana.PublicKey
	AssetTokenProgram solana.PublicKey
}

// TokenAccount is an associated token account a plan expects to exist before its
// instruction runs.
type TokenAccount struct {
	Owner        solana.PublicKey
	Mint         solana.PublicKey
	TokenProgram solana.PublicKey
}

func (t TokenAccount) Address() (solana.PublicKey, error) {
	return ata.Address(t.Owner, t.Mint, t.TokenProgram)
}

func (t TokenAccount) CreateIdempotent(payer solana.PublicKey) (solana.Instruction, error) {
	return ata.NewCreateIdempotentInstruction(payer, t.Owner, t.Mint, t.TokenProgram).ValidateAndBuild()
}

// Plan is what the vault instruction needs from a protocol for one operation.
type Plan struct {
	Remaining     []*solana.AccountMeta
	TokenAccounts []TokenAccount
	// Signers co-sign the transaction, e.g. accounts the protocol creates during init.
	Signers []solana.PrivateKey
	// Outputs are addresses created by the operation that operators need to record.
	Outputs map[string]solana.PublicKey
}

// Adaptor derives the protocol accounts the lending adaptor program forwards to.
type Adaptor interface {
	Name() string
	CounterPartyTokenAccount(assetMint solana.PublicKey) (solana.PublicKey, error)
	// AdditionalArgs are passed through to the adaptor on deposit, withdraw and direct withdraw.
	AdditionalArgs() []byte
	Init(s Strategy, recentSlot uint64) (*Plan, error)
	Deposit(s Strategy) (*Plan, error)
	// Withdraw also serves direct withdrawals. counterPartyTaAuth owns the counter-party token account.
	Withdraw(s Strategy, counterPartyTaAuth solana.PublicKey) (*Plan, error)
}

// Registry looks adaptors up by name.
type Registry map[string]Adaptor

func NewRegistry(adaptors ...Adaptor) Registry {
	r := make(Registry, len(adaptors))
	for _, a := range adaptors {
		r[a.Name()] = a
	}
	return r
}

func (r Registry) Get(name string) (Adaptor, error) {
	a, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProtocol, name)
	}
	return a, nil
}

func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func u16le(v uint16) []byte {
	return binary.LittleEndian.AppendUint16(nil, v)
}

func pda(program solana.PublicKey, seeds ...[]byte) (solana.PublicKey, error) {
	address, _, err := solana.FindProgramAddress(seeds, program)
	return address, err
}

func ro(key solana.PublicKey) *solana.AccountMeta { return solana.Meta(key) }
func w(key solana.PublicKey) *solana.AccountMeta  { return solana.Meta(key).WRITE() }

func configured(name string, key solana.PublicKey) error {
	if key.IsZero() {
		return fmt.Errorf("%w: %s", ErrMissingAccount, name)
	}
	return nil
}
