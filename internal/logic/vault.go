package logic

import (
	"context"

	"vault-ops/internal/keys"
	"vault-ops/internal/svc"
	"vault-ops/internal/vault"
	"vault-ops/pkg/ata"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

const OutputVault = "vault"

// WithdrawMode picks how a withdrawal request is sized.
type WithdrawMode int

const (
	WithdrawAsset WithdrawMode = iota
	WithdrawLp
	WithdrawAll
)

func (m WithdrawMode) args(amount uint64) vault.RequestWithdrawVaultArgs {
	switch m {
	case WithdrawLp:
		return vault.RequestWithdrawVaultArgs{Amount: amount, IsAmountInLp: true}
	case WithdrawAll:
		return vault.RequestWithdrawVaultArgs{IsAmountInLp: true, IsWithdrawAll: true}
	default:
		return vault.RequestWithdrawVaultArgs{Amount: amount}
	}
}

type VaultLogic struct {
	base
	// newVaultKey generates the keypair of a new vault account.
	newVaultKey func() (solana.PrivateKey, error)
}

func NewVaultLogic(ctx context.Context, svcCtx *svc.ServiceContext) *VaultLogic {
	return &VaultLogic{
		base:        newBase(ctx, svcCtx),
		newVaultKey: solana.NewRandomPrivateKey,
	}
}

// Init creates a vault owned by the admin, managed by the manager, and registers the lending adaptor.
func (l *VaultLogic) Init() (*Outcome, error) {
	admin, err := l.svcCtx.Keys.Get(keys.Admin)
	if err != nil {
		return nil, err
	}
	manager, err := l.svcCtx.Keys.Get(keys.Manager)
	if err != nil {
		return nil, err
	}
	vaultKey, err := l.newVaultKey()
	if err != nil {
		return nil, errors.Wrap(err, "generate vault key")
	}
	programs := l.svcCtx.Vault.Programs

	initVault, err := programs.InitializeVault(l.svcCtx.Vault.Params, vault.InitializeVaultAccounts{
		Payer:             admin.PublicKey(),
		Admin:             admin.PublicKey(),
		Manager:           manager.PublicKey(),
		Vault:             vaultKey.PublicKey(),
		AssetMint:         l.svcCtx.Vault.AssetMint,
		AssetTokenProgram: l.svcCtx.Vault.AssetTokenProgram,
	})
	if err != nil {
		return nil, err
	}
	addAdaptor := programs.AddAdaptor(vault.AdminAccounts{
		Payer: admin.PublicKey(),
		Admin: admin.PublicKey(),
		Vault: vaultKey.PublicKey(),
	})

	out, err := l.send("initialize vault", admin, []solana.Instruction{initVault, addAdaptor}, vaultKey)
	if err != nil {
		return nil, err
	}
	out.Outputs = map[string]solana.PublicKey{OutputVault: vaultKey.PublicKey()}
	return out, nil
}

// Update replaces the vault config with the configured fees, cap and start time.
func (l *VaultLogic) Update() (*Outcome, error) {
	if err := l.requireVault(); err != nil {
		return nil, err
	}
	admin, err := l.svcCtx.Keys.Get(keys.Admin)
	if err != nil {
		return nil, err
	}
	ix := l.svcCtx.Vault.Programs.UpdateVault(l.svcCtx.Vault.Params.Config, admin.PublicKey(), l.vault())
	return l.send("update vault", admin, []solana.Instruction{ix})
}

// HarvestFee mints accrued fees to the manager, admin and protocol admin LP accounts.
func (l *VaultLogic) HarvestFee() (*Outcome, error) {
	if err := l.requireVault(); err != nil {
		return nil, err
	}
	if l.svcCtx.Vault.ProtocolAdmin.IsZero() {
		return nil, errors.New("Vault.ProtocolAdmin is not configured")
	}
	admin, err := l.svcCtx.Keys.Get(keys.Admin)
	if err != nil {
		return nil, err
	}
	manager, err := l.svcCtx.Keys.Get(keys.Manager)
	if err != nil {
		return nil, err
	}

	instructions, err := createTokenAccounts(admin.PublicKey(),
		l.lpAccount(admin.PublicKey()),
		l.lpAccount(manager.PublicKey()),
		l.lpAccount(l.svcCtx.Vault.ProtocolAdmin),
	)
	if err != nil {
		return nil, err
	}
	harvest, err := l.svcCtx.Vault.Programs.HarvestFee(vault.HarvestFeeAccounts{
		Harvester:     admin.PublicKey(),
		Manager:       manager.PublicKey(),
		Admin:         admin.PublicKey(),
		ProtocolAdmin: l.svcCtx.Vault.ProtocolAdmin,
		Vault:         l.vault(),
	})
	if err != nil {
		return nil, err
	}
	return l.send("harvest fee", admin, append(instructions, harvest))
}

// Deposit moves amount of the asset from the user into the vault, wrapping SOL first when
// the asset is the native mint.
func (l *VaultLogic) Deposit(amount uint64) (*Outcome, error) {
	if err := l.requireVault(); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, errors.New("deposit amount must be positive")
	}
	user, err := l.svcCtx.Keys.Get(keys.User)
	if err != nil {
		return nil, err
	}

	var instructions []solana.Instruction
	if l.nativeAsset() {
		wrap, err := ata.WrapSOL(user.PublicKey(), user.PublicKey(), amount)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, wrap...)
	}
	lp, err := createTokenAccounts(user.PublicKey(), l.lpAccount(user.PublicKey()))
	if err != nil {
		return nil, err
	}
	instructions = append(instructions, lp...)

	deposit, err := l.svcCtx.Vault.Programs.DepositVault(amount, l.userAccounts(user.PublicKey()))
	if err != nil {
		return nil, err
	}
	return l.send("deposit vault", user, append(instructions, deposit))
}

// RequestWithdraw escrows LP for a later withdrawal.
func (l *VaultLogic) RequestWithdraw(mode WithdrawMode, amount uint64) (*Outcome, error) {
	if err := l.requireVault(); err != nil {
		return nil, err
	}
	user, err := l.svcCtx.Keys.Get(keys.User)
	if err != nil {
		return nil, err
	}
	instructions, err := l.requestWithdrawInstructions(user.PublicKey(), mode, amount)
	if err != nil {
		return nil, err
	}
	return l.send("request withdraw vault", user, instructions)
}

// Withdraw redeems a matured request. With request set, the request is made in the same
// transaction, which only succeeds when the vault has no waiting period.
func (l *VaultLogic) Withdraw(request bool, mode WithdrawMode, amount uint64) (*Outcome, error) {
	if err := l.requireVault(); err != nil {
		return nil, err
	}
	user, err := l.svcCtx.Keys.Get(keys.User)
	if err != nil {
		return nil, err
	}

	var instructions []solana.Instruction
	if request {
		if instructions, err = l.requestWithdrawInstructions(user.PublicKey(), mode, amount); err != nil {
			return nil, err
		}
	}
	asset, err := createTokenAccounts(user.PublicKey(), l.assetAccount(user.PublicKey()))
	if err != nil {
		return nil, err
	}
	instructions = append(instructions, asset...)

	withdraw, err := l.svcCtx.Vault.Programs.WithdrawVault(l.userAccounts(user.PublicKey()))
	if err != nil {
		return nil, err
	}
	instructions = append(instructions, withdraw)

	if l.nativeAsset() {
		unwrap, err := ata.UnwrapSOL(user.PublicKey())
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, unwrap)
	}

	name := "withdraw vault"
	if request {
		name = "request and withdraw vault"
	}
	return l.send(name, user, instructions)
}

func (l *VaultLogic) userAccounts(user solana.PublicKey) vault.UserAccounts {
	return vault.UserAccounts{
		User:              user,
		Vault:             l.vault(),
		AssetMint:         l.svcCtx.Vault.AssetMint,
		AssetTokenProgram: l.svcCtx.Vault.AssetTokenProgram,
	}
}

// requestWithdrawInstructions creates the escrow LP account owned by the request receipt, then requests.
func (b *base) requestWithdrawInstructions(user solana.PublicKey, mode WithdrawMode, amount uint64) ([]solana.Instruction, error) {
	if mode != WithdrawAll && amount == 0 {
		return nil, errors.New("withdraw amount must be positive")
	}
	programs := b.svcCtx.Vault.Programs
	receipt := programs.RequestWithdrawVaultReceipt(b.vault(), user)

	instructions, err := createTokenAccounts(user, b.lpAccount(receipt))
	if err != nil {
		return nil, err
	}
	request, err := programs.RequestWithdrawVault(mode.args(amount), user, user, b.vault())
	if err != nil {
		return nil, err
	}
	return append(instructions, request), nil
}
