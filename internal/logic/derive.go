package logic

import (
	"context"

	"vault-ops/internal/keys"
	"vault-ops/internal/svc"

	"github.com/pkg/errors"
)

// StrategyAddressSet is what an operator needs to inspect one protocol strategy.
type StrategyAddressSet struct {
	CounterPartyTa            string `yaml:"counterPartyTa"`
	Strategy                  string `yaml:"strategy"`
	VaultStrategyAuth         string `yaml:"vaultStrategyAuth"`
	StrategyInitReceipt       string `yaml:"strategyInitReceipt"`
	DirectWithdrawInitReceipt string `yaml:"directWithdrawInitReceipt"`
	StrategyAssetAta          string `yaml:"strategyAssetAta"`
}

type AddressSet struct {
	VaultProgram       string                        `yaml:"vaultProgram"`
	AdaptorProgram     string                        `yaml:"adaptorProgram"`
	Protocol           string                        `yaml:"protocol"`
	Vault              string                        `yaml:"vault"`
	VaultLpMint        string                        `yaml:"vaultLpMint"`
	VaultLpMintAuth    string                        `yaml:"vaultLpMintAuth"`
	VaultAssetIdleAuth string                        `yaml:"vaultAssetIdleAuth"`
	VaultAssetIdleAta  string                        `yaml:"vaultAssetIdleAta"`
	AdaptorAddReceipt  string                        `yaml:"adaptorAddReceipt"`
	Keys               map[string]string             `yaml:"keys,omitempty"`
	RequestReceipt     string                        `yaml:"userRequestWithdrawReceipt,omitempty"`
	Strategies         map[string]StrategyAddressSet `yaml:"strategies"`
}

type DeriveLogic struct {
	base
}

func NewDeriveLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DeriveLogic {
	return &DeriveLogic{base: newBase(ctx, svcCtx)}
}

// Derive computes every address the call sites use without touching the network.
func (l *DeriveLogic) Derive() (*AddressSet, error) {
	if err := l.requireVault(); err != nil {
		return nil, err
	}
	programs := l.svcCtx.Vault.Programs
	addrs := programs.VaultAddresses(l.vault())
	idleAta, err := l.assetAccount(addrs.VaultAssetIdleAuth).Address()
	if err != nil {
		return nil, err
	}

	set := &AddressSet{
		VaultProgram:       programs.Vault.String(),
		AdaptorProgram:     programs.Adaptor.String(),
		Protocol:           addrs.Protocol.String(),
		Vault:              l.vault().String(),
		VaultLpMint:        addrs.VaultLpMint.String(),
		VaultLpMintAuth:    addrs.VaultLpMintAuth.String(),
		VaultAssetIdleAuth: addrs.VaultAssetIdleAuth.String(),
		VaultAssetIdleAta:  idleAta.String(),
		AdaptorAddReceipt:  addrs.AdaptorAddReceipt.String(),
		Keys:               map[string]string{},
		Strategies:         map[string]StrategyAddressSet{},
	}
	for _, role := range []keys.Role{keys.Admin, keys.Manager, keys.User} {
		key, err := l.svcCtx.Keys.Get(role)
		if errors.Is(err, keys.ErrNoKeyFile) {
			continue
		}
		if err != nil {
			return nil, err
		}
		set.Keys[string(role)] = key.PublicKey().String()
		if role == keys.User {
			set.RequestReceipt = programs.RequestWithdrawVaultReceipt(l.vault(), key.PublicKey()).String()
		}
	}

	for _, name := range l.svcCtx.Protocols.Names() {
		adaptor, err := l.svcCtx.Protocols.Get(name)
		if err != nil {
			return nil, err
		}
		cpTa, err := adaptor.CounterPartyTokenAccount(l.svcCtx.Vault.AssetMint)
		if err != nil {
			return nil, errors.Wrapf(err, "%s counter-party token account", name)
		}
		s := programs.StrategyAddresses(l.vault(), cpTa)
		strategyAta, err := l.assetAccount(s.VaultStrategyAuth).Address()
		if err != nil {
			return nil, err
		}
		set.Strategies[name] = StrategyAddressSet{
			CounterPartyTa:            cpTa.String(),
			Strategy:                  s.Strategy.String(),
			VaultStrategyAuth:         s.VaultStrategyAuth.String(),
			StrategyInitReceipt:       s.StrategyInitReceipt.String(),
			DirectWithdrawInitReceipt: s.DirectWithdrawInitReceipt.String(),
			StrategyAssetAta:          strategyAta.String(),
		}
	}
	return set, nil
}
