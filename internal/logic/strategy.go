package logic

import (
	"context"

	"vault-ops/internal/keys"
	"vault-ops/internal/protocol"
	"vault-ops/internal/svc"
	"vault-ops/internal/vault"
	"vault-ops/pkg/ata"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
)

type StrategyLogic struct {
	base
}

func NewStrategyLogic(ctx context.Context, svcCtx *svc.ServiceContext) *StrategyLogic {
	return &StrategyLogic{base: newBase(ctx, svcCtx)}
}

// target is one protocol strategy resolved against the configured vault.
type target struct {
	adaptor  protocol.Adaptor
	cpTa     solana.PublicKey
	addrs    vault.StrategyAddresses
	strategy protocol.Strategy
}

func (l *StrategyLogic) resolve(name string) (*target, error) {
	if err := l.requireVault(); err != nil {
		return nil, err
	}
	adaptor, err := l.svcCtx.Protocols.Get(name)
	if err != nil {
		return nil, err
	}
	cpTa, err := adaptor.CounterPartyTokenAccount(l.svcCtx.Vault.AssetMint)
	if err != nil {
		return nil, errors.Wrapf(err, "%s counter-party token account", name)
	}
	addrs := l.svcCtx.Vault.Programs.StrategyAddresses(l.vault(), cpTa)
	return &target{
		adaptor: adaptor,
		cpTa:    cpTa,
		addrs:   addrs,
		strategy: protocol.Strategy{
			Auth:              addrs.VaultStrategyAuth,
			AssetMint:         l.svcCtx.Vault.AssetMint,
			AssetTokenProgram: l.svcCtx.Vault.AssetTokenProgram,
		},
	}, nil
}

// counterPartyTaAuth reads the owner of the counter-party token account, which the adaptor
// passes to the protocol on withdrawals.
func (l *StrategyLogic) counterPartyTaAuth(t *target) (solana.PublicKey, error) {
	account, err := l.tokenAccount(t.cpTa)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if account == nil {
		return solana.PublicKey{}, errors.Errorf("%s counter-party token account %s not found", t.adaptor.Name(), t.cpTa)
	}
	return account.Owner, nil
}

func (l *StrategyLogic) strategyAsset(t *target) protocol.TokenAccount {
	return l.assetAccount(t.addrs.VaultStrategyAuth)
}

// Init registers a strategy for the protocol and creates the accounts it holds positions in.
func (l *StrategyLogic) Init(name string) (*Outcome, error) {
	t, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	admin, err := l.svcCtx.Keys.Get(keys.Admin)
	if err != nil {
		return nil, err
	}
	manager, err := l.svcCtx.Keys.Get(keys.Manager)
	if err != nil {
		return nil, err
	}
	slot, err := l.svcCtx.Rpc.GetSlot(l.ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, errors.Wrap(err, "get slot")
	}
	plan, err := t.adaptor.Init(t.strategy, slot)
	if err != nil {
		return nil, errors.Wrapf(err, "%s init accounts", name)
	}

	instructions, err := createTokenAccounts(admin.PublicKey(), append([]protocol.TokenAccount{l.strategyAsset(t)}, plan.TokenAccounts...)...)
	if err != nil {
		return nil, err
	}
	instructions = append(instructions, l.svcCtx.Vault.Programs.InitializeStrategy(vault.InitializeStrategyArgs{}, vault.InitializeStrategyAccounts{
		Payer:          admin.PublicKey(),
		Manager:        manager.PublicKey(),
		Vault:          l.vault(),
		CounterPartyTa: t.cpTa,
		Remaining:      plan.Remaining,
	}))

	signers := append([]solana.PrivateKey{manager}, plan.Signers...)
	out, err := l.send(name+" initialize strategy", admin, instructions, signers...)
	if err != nil {
		return nil, err
	}
	out.Outputs = plan.Outputs
	return out, nil
}

// InitDirectWithdraw lets users withdraw straight from the protocol's strategy.
func (l *StrategyLogic) InitDirectWithdraw(name string) (*Outcome, error) {
	t, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	admin, err := l.svcCtx.Keys.Get(keys.Admin)
	if err != nil {
		return nil, err
	}
	ix := l.svcCtx.Vault.Programs.InitializeDirectWithdrawStrategy(vault.InitializeDirectWithdrawStrategyArgs{
		AdditionalArgs: t.adaptor.AdditionalArgs(),
	}, vault.InitializeDirectWithdrawAccounts{
		Payer:          admin.PublicKey(),
		Admin:          admin.PublicKey(),
		Vault:          l.vault(),
		CounterPartyTa: t.cpTa,
	})
	return l.send(name+" initialize direct withdraw", admin, []solana.Instruction{ix})
}

// Deposit moves amount of idle assets into the protocol.
func (l *StrategyLogic) Deposit(name string, amount uint64) (*Outcome, error) {
	if amount == 0 {
		return nil, errors.New("strategy deposit amount must be positive")
	}
	t, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	manager, err := l.svcCtx.Keys.Get(keys.Manager)
	if err != nil {
		return nil, err
	}
	plan, err := t.adaptor.Deposit(t.strategy)
	if err != nil {
		return nil, errors.Wrapf(err, "%s deposit accounts", name)
	}
	instructions, err := createTokenAccounts(manager.PublicKey(), append(plan.TokenAccounts, l.strategyAsset(t))...)
	if err != nil {
		return nil, err
	}
	ix, err := l.svcCtx.Vault.Programs.DepositStrategy(vault.StrategyAmountArgs{
		Amount:         amount,
		AdditionalArgs: t.adaptor.AdditionalArgs(),
	}, l.strategyAccounts(manager.PublicKey(), t, plan))
	if err != nil {
		return nil, err
	}
	return l.send(name+" deposit strategy", manager, append(instructions, ix))
}

// Withdraw moves amount of assets from the protocol back to the vault's idle account.
func (l *StrategyLogic) Withdraw(name string, amount uint64) (*Outcome, error) {
	if amount == 0 {
		return nil, errors.New("strategy withdraw amount must be positive")
	}
	t, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	manager, err := l.svcCtx.Keys.Get(keys.Manager)
	if err != nil {
		return nil, err
	}
	auth, err := l.counterPartyTaAuth(t)
	if err != nil {
		return nil, err
	}
	plan, err := t.adaptor.Withdraw(t.strategy, auth)
	if err != nil {
		return nil, errors.Wrapf(err, "%s withdraw accounts", name)
	}
	instructions, err := createTokenAccounts(manager.PublicKey(), append(plan.TokenAccounts, l.strategyAsset(t))...)
	if err != nil {
		return nil, err
	}
	ix, err := l.svcCtx.Vault.Programs.WithdrawStrategy(vault.StrategyAmountArgs{
		Amount:         amount,
		AdditionalArgs: t.adaptor.AdditionalArgs(),
	}, l.strategyAccounts(manager.PublicKey(), t, plan))
	if err != nil {
		return nil, err
	}
	return l.send(name+" withdraw strategy", manager, append(instructions, ix))
}

// DirectWithdraw redeems the user's withdrawal request from the protocol instead of idle
// assets. With request set, amount LP is requested in the same transaction.
func (l *StrategyLogic) DirectWithdraw(name string, request bool, amount uint64) (*Outcome, error) {
	t, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	user, err := l.svcCtx.Keys.Get(keys.User)
	if err != nil {
		return nil, err
	}
	auth, err := l.counterPartyTaAuth(t)
	if err != nil {
		return nil, err
	}
	plan, err := t.adaptor.Withdraw(t.strategy, auth)
	if err != nil {
		return nil, errors.Wrapf(err, "%s withdraw accounts", name)
	}

	var instructions []solana.Instruction
	if request {
		if instructions, err = l.requestWithdrawInstructions(user.PublicKey(), WithdrawLp, amount); err != nil {
			return nil, err
		}
	}
	accounts := append([]protocol.TokenAccount{l.assetAccount(user.PublicKey())}, plan.TokenAccounts...)
	create, err := createTokenAccounts(user.PublicKey(), append(accounts, l.strategyAsset(t))...)
	if err != nil {
		return nil, err
	}
	instructions = append(instructions, create...)

	ix, err := l.svcCtx.Vault.Programs.DirectWithdrawStrategy(vault.DirectWithdrawStrategyArgs{}, vault.DirectWithdrawAccounts{
		User:              user.PublicKey(),
		Vault:             l.vault(),
		CounterPartyTa:    t.cpTa,
		AssetMint:         l.svcCtx.Vault.AssetMint,
		AssetTokenProgram: l.svcCtx.Vault.AssetTokenProgram,
		Remaining:         plan.Remaining,
	})
	if err != nil {
		return nil, err
	}
	instructions = append(instructions, ix)

	if l.nativeAsset() {
		unwrap, err := ata.UnwrapSOL(user.PublicKey())
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, unwrap)
	}
	return l.send(name+" direct withdraw strategy", user, instructions)
}

func (l *StrategyLogic) strategyAccounts(manager solana.PublicKey, t *target, plan *protocol.Plan) vault.StrategyAccounts {
	return vault.StrategyAccounts{
		Manager:           manager,
		Vault:             l.vault(),
		CounterPartyTa:    t.cpTa,
		AssetMint:         l.svcCtx.Vault.AssetMint,
		AssetTokenProgram: l.svcCtx.Vault.AssetTokenProgram,
		Remaining:         plan.Remaining,
	}
}

// Names expands "all" into every configured protocol.
func (l *StrategyLogic) Names(arg string) []string {
	if arg == "all" {
		return l.svcCtx.Protocols.Names()
	}
	return []string{arg}
}
