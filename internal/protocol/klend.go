package protocol

import (
	"vault-ops/internal/lookup"

	"github.com/gagliardetto/solana-go"
)

var KlendProgramID = solana.MustPublicKeyFromBase58("KLend2g3cP87fffoy8q1mQqGKjrxjC8boSyAYavgmjD")

type Klend struct {
	Program       solana.PublicKey
	LendingMarket solana.PublicKey
	Reserve       solana.PublicKey
	ScopeOracle   solana.PublicKey
	// OutputMint selects the reserve when it differs from the vault asset. Zero means the asset mint.
	OutputMint solana.PublicKey
}

func (p *Klend) Name() string { return "klend" }

func (p *Klend) AdditionalArgs() []byte { return nil }

func (p *Klend) reserveMint(assetMint solana.PublicKey) solana.PublicKey {
	if p.OutputMint.IsZero() {
		return assetMint
	}
	return p.OutputMint
}

func (p *Klend) CounterPartyTokenAccount(assetMint solana.PublicKey) (solana.PublicKey, error) {
	mint := p.reserveMint(assetMint)
	return pda(p.Program, []byte("reserve_liq_supply"), p.LendingMarket[:], mint[:])
}

func (p *Klend) CollateralMint(assetMint solana.PublicKey) (solana.PublicKey, error) {
	mint := p.reserveMint(assetMint)
	return pda(p.Program, []byte("reserve_coll_mint"), p.LendingMarket[:], mint[:])
}

func (p *Klend) collateral(s Strategy) (TokenAccount, solana.PublicKey, error) {
	mint, err := p.CollateralMint(s.AssetMint)
	if err != nil {
		return TokenAccount{}, solana.PublicKey{}, err
	}
	account := TokenAccount{Owner: s.Auth, Mint: mint, TokenProgram: solana.TokenProgramID}
	address, err := account.Address()
	return account, address, err
}

// Init registers the strategy's user metadata, which references a lookup table owned by
// the strategy authority and derived from recentSlot.
func (p *Klend) Init(s Strategy, recentSlot uint64) (*Plan, error) {
	userMeta, err := pda(p.Program, []byte("user_meta"), s.Auth[:])
	if err != nil {
		return nil, err
	}
	table, _, err := lookup.DeriveAddress(s.Auth, recentSlot)
	if err != nil {
		return nil, err
	}
	collateral, _, err := p.collateral(s)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Remaining: []*solana.AccountMeta{
			ro(p.Program),
			w(userMeta),
			ro(table),
			ro(solana.SysVarRentPubkey),
		},
		TokenAccounts: []TokenAccount{collateral},
	}, nil
}

func (p *Klend) Deposit(s Strategy) (*Plan, error) {
	cpTa, err := p.CounterPartyTokenAccount(s.AssetMint)
	if err != nil {
		return nil, err
	}
	collateral, collateralAta, err := p.collateral(s)
	if err != nil {
		return nil, err
	}
	marketAuthority, err := pda(p.Program, []byte("lma"), p.LendingMarket[:])
	if err != nil {
		return nil, err
	}
	return &Plan{
		Remaining: []*solana.AccountMeta{
			w(cpTa),
			ro(p.Program),
			ro(p.LendingMarket),
			w(marketAuthority),
			w(p.Reserve),
			w(collateral.Mint),
			w(collateralAta),
			ro(solana.TokenProgramID),
			ro(solana.SysVarInstructionsPubkey),
			ro(p.ScopeOracle),
		},
		TokenAccounts: []TokenAccount{collateral},
	}, nil
}

func (p *Klend) Withdraw(s Strategy, counterPartyTaAuth solana.PublicKey) (*Plan, error) {
	cpTa, err := p.CounterPartyTokenAccount(s.AssetMint)
	if err != nil {
		return nil, err
	}
	collateral, collateralAta, err := p.collateral(s)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Remaining: []*solana.AccountMeta{
			w(counterPartyTaAuth),
			w(cpTa),
			ro(p.Program),
			ro(p.LendingMarket),
			w(p.Reserve),
			w(collateral.Mint),
			w(collateralAta),
			ro(solana.TokenProgramID),
			ro(solana.SysVarInstructionsPubkey),
			ro(p.ScopeOracle),
		},
		TokenAccounts: []TokenAccount{collateral},
	}, nil
}
