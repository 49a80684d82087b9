package protocol

import (
	"github.com/gagliardetto/solana-go"
)

var SolendProgramID = solana.MustPublicKeyFromBase58("So1endDq2YkqhipRh3WViPa8hdiSpxWy6z3Z6tMCpAo")

// Solend supplies into a reserve and holds the collateral (cTokens) in the strategy's ATA.
// Its liquidity supply account is not derivable and comes from configuration.
type Solend struct {
	Program           solana.PublicKey
	CounterPartyTa    solana.PublicKey
	LendingMarket     solana.PublicKey
	Reserve           solana.PublicKey
	CollateralMint    solana.PublicKey
	PythOracle        solana.PublicKey
	SwitchboardOracle solana.PublicKey
}

func (p *Solend) Name() string { return "solend" }

func (p *Solend) AdditionalArgs() []byte { return nil }

func (p *Solend) CounterPartyTokenAccount(solana.PublicKey) (solana.PublicKey, error) {
	if err := configured("solend counter-party token account", p.CounterPartyTa); err != nil {
		return solana.PublicKey{}, err
	}
	return p.CounterPartyTa, nil
}

// Obligation is created with seed from the first 32 characters of the market address.
func (p *Solend) Obligation(strategyAuth solana.PublicKey) (solana.PublicKey, error) {
	seed := p.LendingMarket.String()
	if len(seed) > 32 {
		seed = seed[:32]
	}
	return solana.CreateWithSeed(strategyAuth, seed, p.Program)
}

func (p *Solend) collateral(s Strategy) TokenAccount {
	return TokenAccount{Owner: s.Auth, Mint: p.CollateralMint, TokenProgram: solana.TokenProgramID}
}

func (p *Solend) Init(s Strategy, _ uint64) (*Plan, error) {
	obligation, err := p.Obligation(s.Auth)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Remaining: []*solana.AccountMeta{
			ro(p.Program),
			w(obligation),
			w(p.LendingMarket),
			ro(solana.SysVarClockPubkey),
			ro(solana.SysVarRentPubkey),
			ro(solana.TokenProgramID),
			ro(solana.SPLAssociatedTokenAccountProgramID),
		},
		TokenAccounts: []TokenAccount{p.collateral(s)},
	}, nil
}

func (p *Solend) Deposit(s Strategy) (*Plan, error) {
	collateral := p.collateral(s)
	collateralAta, err := collateral.Address()
	if err != nil {
		return nil, err
	}
	marketAuthority, err := pda(p.Program, p.LendingMarket[:])
	if err != nil {
		return nil, err
	}
	return &Plan{
		Remaining: []*solana.AccountMeta{
			w(p.CounterPartyTa),
			ro(p.Program),
			w(collateralAta),
			w(p.Reserve),
			w(p.CollateralMint),
			w(p.LendingMarket),
			ro(marketAuthority),
			ro(p.PythOracle),
			ro(p.SwitchboardOracle),
			ro(solana.TokenProgramID),
		},
		TokenAccounts: []TokenAccount{collateral},
	}, nil
}

func (p *Solend) Withdraw(s Strategy, counterPartyTaAuth solana.PublicKey) (*Plan, error) {
	collateral := p.collateral(s)
	collateralAta, err := collateral.Address()
	if err != nil {
		return nil, err
	}
	return &Plan{
		Remaining: []*solana.AccountMeta{
			w(counterPartyTaAuth),
			w(p.CounterPartyTa),
			ro(p.Program),
			w(collateralAta),
			w(p.Reserve),
			w(p.CollateralMint),
			w(p.LendingMarket),
			ro(p.PythOracle),
			ro(p.SwitchboardOracle),
			ro(solana.TokenProgramID),
		},
		TokenAccounts: []TokenAccount{collateral},
	}, nil
}
