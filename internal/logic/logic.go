package logic

import (
	"context"

	"vault-ops/internal/protocol"
	"vault-ops/internal/submit"
	"vault-ops/internal/svc"
	"vault-ops/pkg/ata"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/zeromicro/go-zero/core/logx"
)

// Outcome is what a call site reports back: the confirmed signature and any addresses it created.
type Outcome struct {
	Name      string
	Signature solana.Signature
	Outputs   map[string]solana.PublicKey
}

type base struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func newBase(ctx context.Context, svcCtx *svc.ServiceContext) base {
	return base{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// send submits instructions through the optimized submitter, compiling against a lookup table
// when one is configured.
func (b *base) send(name string, payer solana.PrivateKey, instructions []solana.Instruction, signers ...solana.PrivateKey) (*Outcome, error) {
	req := submit.Request{
		Instructions: instructions,
		Payer:        payer,
		Signers:      signers,
	}
	if b.svcCtx.Config.LookupTable.Enabled {
		tables, err := b.lookupTables(payer, instructions)
		if err != nil {
			return nil, errors.Wrap(err, "setup lookup table")
		}
		req.AddressTables = tables
	}

	res, err := b.svcCtx.Submitter.Submit(b.ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", name)
	}
	b.Infof("%s confirmed: %s (attempts=%d units=%d limit=%d price=%d)",
		name, res.Signature, res.Attempts, res.UnitsConsumed, res.ComputeUnitLimit, res.MicroLamports)
	return &Outcome{Name: name, Signature: res.Signature}, nil
}

// createTokenAccounts returns idempotent create instructions so a rerun after a partial landing is safe.
func createTokenAccounts(payer solana.PublicKey, accounts ...protocol.TokenAccount) ([]solana.Instruction, error) {
	out := make([]solana.Instruction, 0, len(accounts))
	seen := make(map[solana.PublicKey]struct{}, len(accounts))
	for _, account := range accounts {
		address, err := account.Address()
		if err != nil {
			return nil, err
		}
		if _, ok := seen[address]; ok {
			continue
		}
		seen[address] = struct{}{}
		ix, err := account.CreateIdempotent(payer)
		if err != nil {
			return nil, errors.Wrapf(err, "create token account %s", address)
		}
		out = append(out, ix)
	}
	return out, nil
}

func (b *base) assetAccount(owner solana.PublicKey) protocol.TokenAccount {
	return protocol.TokenAccount{
		Owner:        owner,
		Mint:         b.svcCtx.Vault.AssetMint,
		TokenProgram: b.svcCtx.Vault.AssetTokenProgram,
	}
}

func (b *base) lpAccount(owner solana.PublicKey) protocol.TokenAccount {
	return protocol.TokenAccount{
		Owner:        owner,
		Mint:         b.svcCtx.Vault.Programs.VaultLpMint(b.vault()),
		TokenProgram: solana.TokenProgramID,
	}
}

func (b *base) vault() solana.PublicKey {
	return b.svcCtx.Vault.Address
}

func (b *base) requireVault() error {
	if b.vault().IsZero() {
		return errors.New("Vault.Address is not configured; run vault init first")
	}
	return nil
}

func (b *base) nativeAsset() bool {
	return b.svcCtx.Vault.AssetMint.Equals(solana.SolMint)
}

// tokenAccount reads a token account, returning nil when it does not exist.
func (b *base) tokenAccount(address solana.PublicKey) (*tokenAccountState, error) {
	info, err := b.svcCtx.Rpc.GetAccountInfo(b.ctx, address)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "get token account %s", address)
	}
	if info == nil || info.Value == nil {
		return nil, nil
	}
	account, err := ata.DecodeAccount(info.Value.Data.GetBinary())
	if err != nil {
		return nil, err
	}
	return &tokenAccountState{Owner: account.Owner, Amount: account.Amount}, nil
}

type tokenAccountState struct {
	Owner  solana.PublicKey
	Amount uint64
}

func isNotFound(err error) bool {
	return errors.Is(err, rpc.ErrNotFound)
}
