package logic

import (
	"context"
	"math/big"

	"vault-ops/internal/keys"
	"vault-ops/internal/svc"
	"vault-ops/pkg/ata"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type StrategyPosition struct {
	Protocol      string
	Strategy      solana.PublicKey
	Initialized   bool
	Value         uint64
	LastUpdatedTs uint64
	// UserValue is the user's LP share of Value. Zero when no user key is configured.
	UserValue uint64
}

type Positions struct {
	Strategies []StrategyPosition
	// Idle is the asset balance held by the vault outside any strategy.
	Idle     uint64
	Invested uint64
	// Total is Idle plus Invested.
	Total     uint64
	UserIdle  uint64
	UserTotal uint64
	UserLp    uint64
	LpSupply  uint64
}

type PositionsLogic struct {
	base
}

func NewPositionsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *PositionsLogic {
	return &PositionsLogic{base: newBase(ctx, svcCtx)}
}

// Query reads the idle balance and the position value of every configured strategy concurrently.
// When a user key is configured, each value is also scaled by the user's share of the LP supply.
func (l *PositionsLogic) Query() (*Positions, error) {
	if err := l.requireVault(); err != nil {
		return nil, err
	}
	names := l.svcCtx.Protocols.Names()
	strategies := make([]StrategyPosition, len(names))

	g, ctx := errgroup.WithContext(l.ctx)
	for i, name := range names {
		g.Go(func() error {
			position, err := l.strategyPosition(ctx, name)
			if err != nil {
				return err
			}
			strategies[i] = *position
			return nil
		})
	}

	var idle, userLp, supply uint64
	g.Go(func() (err error) {
		idle, err = l.idleBalance()
		return err
	})
	g.Go(func() (err error) {
		userLp, supply, err = l.userShare(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Positions{
		Strategies: strategies,
		Idle:       idle,
		UserIdle:   share(idle, userLp, supply),
		UserLp:     userLp,
		LpSupply:   supply,
	}
	out.UserTotal = out.UserIdle
	for i := range out.Strategies {
		s := &out.Strategies[i]
		s.UserValue = share(s.Value, userLp, supply)
		out.Invested += s.Value
		out.UserTotal += s.UserValue
	}
	out.Total = out.Idle + out.Invested
	return out, nil
}

func (l *PositionsLogic) strategyPosition(ctx context.Context, name string) (*StrategyPosition, error) {
	adaptor, err := l.svcCtx.Protocols.Get(name)
	if err != nil {
		return nil, err
	}
	cpTa, err := adaptor.CounterPartyTokenAccount(l.svcCtx.Vault.AssetMint)
	if err != nil {
		return nil, errors.Wrapf(err, "%s counter-party token account", name)
	}
	programs := l.svcCtx.Vault.Programs
	strategy := programs.Strategy(cpTa)
	position := &StrategyPosition{Protocol: name, Strategy: strategy}

	receipt, err := programs.FetchStrategyInitReceipt(ctx, l.svcCtx.Rpc, l.vault(), strategy)
	switch {
	case isNotFound(err):
		l.Infof("%s strategy %s is not initialized", name, strategy)
		return position, nil
	case err != nil:
		return nil, errors.Wrapf(err, "%s position", name)
	}
	position.Initialized = true
	position.Value = receipt.PositionValue
	position.LastUpdatedTs = receipt.LastUpdatedTs
	return position, nil
}

// idleBalance reads the vault's idle asset account. A missing account holds nothing.
func (l *PositionsLogic) idleBalance() (uint64, error) {
	idleAuth := l.svcCtx.Vault.Programs.VaultAssetIdleAuth(l.vault())
	address, err := l.assetAccount(idleAuth).Address()
	if err != nil {
		return 0, err
	}
	account, err := l.tokenAccount(address)
	if err != nil || account == nil {
		return 0, err
	}
	return account.Amount, nil
}

// userShare returns the user's LP balance and the LP supply. Both are zero without a user key.
func (l *PositionsLogic) userShare(ctx context.Context) (uint64, uint64, error) {
	user, err := l.svcCtx.Keys.Get(keys.User)
	if errors.Is(err, keys.ErrNoKeyFile) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}

	lpMint := l.svcCtx.Vault.Programs.VaultLpMint(l.vault())
	info, err := l.svcCtx.Rpc.GetAccountInfo(ctx, lpMint)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "get lp mint %s", lpMint)
	}
	if info == nil || info.Value == nil {
		return 0, 0, errors.Errorf("lp mint %s not found", lpMint)
	}
	mint, err := ata.DecodeMint(info.Value.Data.GetBinary())
	if err != nil {
		return 0, 0, err
	}

	lpAta, err := l.lpAccount(user.PublicKey()).Address()
	if err != nil {
		return 0, 0, err
	}
	account, err := l.tokenAccount(lpAta)
	if err != nil {
		return 0, 0, err
	}
	if account == nil {
		return 0, mint.Supply, nil
	}
	return account.Amount, mint.Supply, nil
}

// share computes value*lp/supply without overflowing.
func share(value, lp, supply uint64) uint64 {
	if supply == 0 || lp == 0 {
		return 0
	}
	v := new(big.Int).SetUint64(value)
	v.Mul(v, new(big.Int).SetUint64(lp))
	v.Quo(v, new(big.Int).SetUint64(supply))
	return v.Uint64()
}
