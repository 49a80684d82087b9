package vault

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	DefaultProgramID        = solana.MustPublicKeyFromBase58("vVoLTRjQmtFpiYoegx285Ze4gsLJ8ZxgFKVcuvmG1a8")
	DefaultAdaptorProgramID = solana.MustPublicKeyFromBase58("aVoLTRCRt3NnnchvLYH6rMYehJHwM5m45RmLBZq7PGz")
)

const (
	SeedProtocol                    = "protocol"
	SeedVaultLpMint                 = "vault_lp_mint"
	SeedVaultLpMintAuth             = "vault_lp_mint_auth"
	SeedVaultAssetIdleAuth          = "vault_asset_idle_auth"
	SeedVaultStrategyAuth           = "vault_strategy_auth"
	SeedStrategy                    = "strategy"
	SeedStrategyInitReceipt         = "strategy_init_receipt"
	SeedAdaptorAddReceipt           = "adaptor_add_receipt"
	SeedDirectWithdrawInitReceipt   = "direct_withdraw_init_receipt"
	SeedRequestWithdrawVaultReceipt = "request_withdraw_vault_receipt"
)

// Programs holds the vault program and the lending adaptor program it delegates strategies to.
type Programs struct {
	Vault   solana.PublicKey
	Adaptor solana.PublicKey
}

func DefaultPrograms() Programs {
	return Programs{Vault: DefaultProgramID, Adaptor: DefaultAdaptorProgramID}
}

func pda(program solana.PublicKey, seeds ...[]byte) solana.PublicKey {
	address, _, err := solana.FindProgramAddress(seeds, program)
	if err != nil {
		// only reachable with seeds longer than 32 bytes
		panic(fmt.Sprintf("find program address: %v", err))
	}
	return address
}

func (p Programs) Protocol() solana.PublicKey {
	return pda(p.Vault, []byte(SeedProtocol))
}

func (p Programs) VaultLpMint(vault solana.PublicKey) solana.PublicKey {
	return pda(p.Vault, []byte(SeedVaultLpMint), vault[:])
}

func (p Programs) VaultLpMintAuth(vault solana.PublicKey) solana.PublicKey {
	return pda(p.Vault, []byte(SeedVaultLpMintAuth), vault[:])
}

func (p Programs) VaultAssetIdleAuth(vault solana.PublicKey) solana.PublicKey {
	return pda(p.Vault, []byte(SeedVaultAssetIdleAuth), vault[:])
}

func (p Programs) VaultStrategyAuth(vault, strategy solana.PublicKey) solana.PublicKey {
	return pda(p.Vault, []byte(SeedVaultStrategyAuth), vault[:], strategy[:])
}

func (p Programs) StrategyInitReceipt(vault, strategy solana.PublicKey) solana.PublicKey {
	return pda(p.Vault, []byte(SeedStrategyInitReceipt), vault[:], strategy[:])
}

func (p Programs) AdaptorAddReceipt(vault solana.PublicKey) solana.PublicKey {
	return pda(p.Vault, []byte(SeedAdaptorAddReceipt), vault[:], p.Adaptor[:])
}

func (p Programs) DirectWithdrawInitReceipt(vault, strategy solana.PublicKey) solana.PublicKey {
	return pda(p.Vault, []byte(SeedDirectWithdrawInitReceipt), vault[:], strategy[:])
}

func (p Programs) RequestWithdrawVaultReceipt(vault, user solana.PublicKey) solana.PublicKey {
	return pda(p.Vault, []byte(SeedRequestWithdrawVaultReceipt), vault[:], user[:])
}

// Strategy is keyed by the counter-party token account the adaptor moves funds into.
func (p Programs) Strategy(counterPartyTa solana.PublicKey) solana.PublicKey {
	return pda(p.Adaptor, []byte(SeedStrategy), counterPartyTa[:])
}

// VaultAddresses are the per-vault accounts most instructions reference.
type VaultAddresses struct {
	Protocol           solana.PublicKey
	VaultLpMint        solana.PublicKey
	VaultLpMintAuth    solana.PublicKey
	VaultAssetIdleAuth solana.PublicKey
	AdaptorAddReceipt  solana.PublicKey
}

func (p Programs) VaultAddresses(vault solana.PublicKey) VaultAddresses {
	return VaultAddresses{
		Protocol:           p.Protocol(),
		VaultLpMint:        p.VaultLpMint(vault),
		VaultLpMintAuth:    p.VaultLpMintAuth(vault),
		VaultAssetIdleAuth: p.VaultAssetIdleAuth(vault),
		AdaptorAddReceipt:  p.AdaptorAddReceipt(vault),
	}
}

type StrategyAddresses struct {
	Strategy                  solana.PublicKey
	VaultStrategyAuth         solana.PublicKey
	StrategyInitReceipt       solana.PublicKey
	DirectWithdrawInitReceipt solana.PublicKey
}

func (p Programs) StrategyAddresses(vault, counterPartyTa solana.PublicKey) StrategyAddresses {
	strategy := p.Strategy(counterPartyTa)
	return StrategyAddresses{
		Strategy:                  strategy,
		VaultStrategyAuth:         p.VaultStrategyAuth(vault, strategy),
		StrategyInitReceipt:       p.StrategyInitReceipt(vault, strategy),
		DirectWithdrawInitReceipt: p.DirectWithdrawInitReceipt(vault, strategy),
	}
}
