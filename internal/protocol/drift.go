package protocol

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	DriftProgramID = solana.MustPublicKeyFromBase58("dRiftyHA39MWEi3m9aunc5MzRF1JYuBsbn6VPcn33UH")
	DriftState     = solana.MustPublicKeyFromBase58("5zpq7DvB6UdFFvpmBPspGPNfUGoBRRCE2HHg5u3gxcsN")
)

// Drift spot markets by index. Oracles per market are listed by market index.
var DriftSpotOracles = map[uint16]solana.PublicKey{
	0: solana.MustPublicKeyFromBase58("En8hkHLkRe9d9DraYmBTrus518BvmVH448YcvmrFM6Ce"), // USDC
	1: solana.MustPublicKeyFromBase58("BAtFj4kQttZRVep3UZS2aZRDixkGYgWsbqTBVDbnSsPF"), // SOL
	5: solana.MustPublicKeyFromBase58("BekJ3P5G3iFeC97sXHuKnUHofCFj9Sbo7uyF2fkKwvit"), // USDT
}

type Drift struct {
	Program     solana.PublicKey
	State       solana.PublicKey
	MarketIndex uint16
	SubAccount  uint16
	// Oracle of the spot market. Zero falls back to DriftSpotOracles.
	Oracle solana.PublicKey
}

func (p *Drift) Name() string { return "drift" }

// AdditionalArgs is the spot market index.
func (p *Drift) AdditionalArgs() []byte { return u16le(p.MarketIndex) }

func (p *Drift) CounterPartyTokenAccount(solana.PublicKey) (solana.PublicKey, error) {
	return pda(p.Program, []byte("spot_market_vault"), u16le(p.MarketIndex))
}

func (p *Drift) oracle() (solana.PublicKey, error) {
	if !p.Oracle.IsZero() {
		return p.Oracle, nil
	}
	oracle, ok := DriftSpotOracles[p.MarketIndex]
	if !ok {
		return solana.PublicKey{}, fmt.Errorf("%w: drift oracle for market %d", ErrMissingAccount, p.MarketIndex)
	}
	return oracle, nil
}

type driftAccounts struct {
	user       solana.PublicKey
	userStats  solana.PublicKey
	spotMarket solana.PublicKey
}

func (p *Drift) accounts(auth solana.PublicKey) (a driftAccounts, err error) {
	if a.userStats, err = pda(p.Program, []byte("user_stats"), auth[:]); err != nil {
		return a, err
	}
	if a.user, err = pda(p.Program, []byte("user"), auth[:], u16le(p.SubAccount)); err != nil {
		return a, err
	}
	if a.spotMarket, err = pda(p.Program, []byte("spot_market"), u16le(p.MarketIndex)); err != nil {
		return a, err
	}
	return a, nil
}

func (p *Drift) Init(s Strategy, _ uint64) (*Plan, error) {
	a, err := p.accounts(s.Auth)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Remaining: []*solana.AccountMeta{
			ro(p.Program),
			w(a.userStats),
			w(p.State),
			w(a.user),
			ro(solana.SysVarRentPubkey),
		},
	}, nil
}

func (p *Drift) Deposit(s Strategy) (*Plan, error) {
	a, err := p.accounts(s.Auth)
	if err != nil {
		return nil, err
	}
	cpTa, err := p.CounterPartyTokenAccount(s.AssetMint)
	if err != nil {
		return nil, err
	}
	oracle, err := p.oracle()
	if err != nil {
		return nil, err
	}
	return &Plan{
		Remaining: []*solana.AccountMeta{
			w(cpTa),
			ro(p.Program),
			ro(p.State),
			w(a.user),
			w(a.userStats),
			ro(oracle),
			w(a.spotMarket),
		},
	}, nil
}

func (p *Drift) Withdraw(s Strategy, counterPartyTaAuth solana.PublicKey) (*Plan, error) {
	a, err := p.accounts(s.Auth)
	if err != nil {
		return nil, err
	}
	cpTa, err := p.CounterPartyTokenAccount(s.AssetMint)
	if err != nil {
		return nil, err
	}
	oracle, err := p.oracle()
	if err != nil {
		return nil, err
	}
	return &Plan{
		Remaining: []*solana.AccountMeta{
			w(counterPartyTaAuth),
			w(cpTa),
			ro(p.Program),
			ro(p.State),
			w(a.user),
			w(a.userStats),
			ro(oracle),
			w(a.spotMarket),
		},
	}, nil
}
