package protocol

import (
	"testing"

	"vault-ops/internal/lookup"
	"vault-ops/pkg/ata"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func keysOf(metas []*solana.AccountMeta) []solana.PublicKey {
	out := make([]solana.PublicKey, len(metas))
	for i, m := range metas {
		out[i] = m.PublicKey
	}
	return out
}

func newStrategy() Strategy {
	return Strategy{Auth: newKey(), AssetMint: newKey(), AssetTokenProgram: solana.TokenProgramID}
}

func findPDA(t *testing.T, program solana.PublicKey, seeds ...[]byte) solana.PublicKey {
	t.Helper()
	address, _, err := solana.FindProgramAddress(seeds, program)
	require.NoError(t, err)
	return address
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(&Solend{}, &Marginfi{}, &Klend{}, &Drift{})
	assert.Equal(t, []string{"drift", "klend", "marginfi", "solend"}, r.Names())

	a, err := r.Get("klend")
	require.NoError(t, err)
	assert.Equal(t, "klend", a.Name())

	_, err = r.Get("mango")
	assert.ErrorIs(t, err, ErrUnknownProtocol)
}

func TestWithdrawPrependsCounterPartyAuthority(t *testing.T) {
	s := newStrategy()
	cpTaAuth := newKey()
	adaptors := []Adaptor{
		&Solend{Program: SolendProgramID, CounterPartyTa: newKey(), LendingMarket: newKey()},
		&Marginfi{Program: MarginfiProgramID, Bank: newKey(), Account: newKey()},
		&Klend{Program: KlendProgramID, LendingMarket: newKey()},
		&Drift{Program: DriftProgramID, State: DriftState},
	}
	for _, a := range adaptors {
		t.Run(a.Name(), func(t *testing.T) {
			cpTa, err := a.CounterPartyTokenAccount(s.AssetMint)
			require.NoError(t, err)

			deposit, err := a.Deposit(s)
			require.NoError(t, err)
			assert.Equal(t, cpTa, deposit.Remaining[0].PublicKey)
			assert.True(t, deposit.Remaining[0].IsWritable)

			withdraw, err := a.Withdraw(s, cpTaAuth)
			require.NoError(t, err)
			assert.Equal(t, cpTaAuth, withdraw.Remaining[0].PublicKey)
			assert.Equal(t, cpTa, withdraw.Remaining[1].PublicKey)
			assert.Equal(t, keysOf(deposit.Remaining)[1], keysOf(withdraw.Remaining)[2])
		})
	}
}

func TestSolend(t *testing.T) {
	s := newStrategy()
	p := &Solend{
		Program:           SolendProgramID,
		CounterPartyTa:    newKey(),
		LendingMarket:     newKey(),
		Reserve:           newKey(),
		CollateralMint:    newKey(),
		PythOracle:        newKey(),
		SwitchboardOracle: newKey(),
	}

	obligation, err := p.Obligation(s.Auth)
	require.NoError(t, err)
	want, err := solana.CreateWithSeed(s.Auth, p.LendingMarket.String()[:32], SolendProgramID)
	require.NoError(t, err)
	assert.Equal(t, want, obligation)

	initPlan, err := p.Init(s, 0)
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{
		SolendProgramID,
		obligation,
		p.LendingMarket,
		solana.SysVarClockPubkey,
		solana.SysVarRentPubkey,
		solana.TokenProgramID,
		solana.SPLAssociatedTokenAccountProgramID,
	}, keysOf(initPlan.Remaining))
	require.Len(t, initPlan.TokenAccounts, 1)
	assert.Equal(t, p.CollateralMint, initPlan.TokenAccounts[0].Mint)

	collateralAta, err := ata.Address(s.Auth, p.CollateralMint, solana.TokenProgramID)
	require.NoError(t, err)

	deposit, err := p.Deposit(s)
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{
		p.CounterPartyTa,
		SolendProgramID,
		collateralAta,
		p.Reserve,
		p.CollateralMint,
		p.LendingMarket,
		findPDA(t, SolendProgramID, p.LendingMarket[:]),
		p.PythOracle,
		p.SwitchboardOracle,
		solana.TokenProgramID,
	}, keysOf(deposit.Remaining))

	withdraw, err := p.Withdraw(s, newKey())
	require.NoError(t, err)
	assert.Len(t, withdraw.Remaining, 10)
	assert.NotContains(t, keysOf(withdraw.Remaining), findPDA(t, SolendProgramID, p.LendingMarket[:]))

	_, err = (&Solend{}).CounterPartyTokenAccount(s.AssetMint)
	assert.ErrorIs(t, err, ErrMissingAccount)
}

func TestMarginfi(t *testing.T) {
	s := newStrategy()
	generated := solana.NewWallet().PrivateKey
	p := &Marginfi{
		Program: MarginfiProgramID,
		Bank:    newKey(),
		Group:   newKey(),
		Oracle:  newKey(),
		NewAccount: func() (solana.PrivateKey, error) {
			return generated, nil
		},
	}

	cpTa, err := p.CounterPartyTokenAccount(s.AssetMint)
	require.NoError(t, err)
	assert.Equal(t, findPDA(t, MarginfiProgramID, []byte("liquidity_vault"), p.Bank[:]), cpTa)

	initPlan, err := p.Init(s, 0)
	require.NoError(t, err)
	require.Len(t, initPlan.Remaining, 3)
	assert.Equal(t, generated.PublicKey(), initPlan.Remaining[2].PublicKey)
	assert.True(t, initPlan.Remaining[2].IsSigner)
	assert.Equal(t, []solana.PrivateKey{generated}, initPlan.Signers)
	assert.Equal(t, generated.PublicKey(), initPlan.Outputs[OutputMarginfiAccount])

	_, err = p.Deposit(s)
	assert.ErrorIs(t, err, ErrMissingAccount)

	p.Account = generated.PublicKey()
	withdraw, err := p.Withdraw(s, newKey())
	require.NoError(t, err)
	assert.Equal(t, p.Oracle, withdraw.Remaining[6].PublicKey)
}

func TestKlend(t *testing.T) {
	s := newStrategy()
	p := &Klend{
		Program:       KlendProgramID,
		LendingMarket: newKey(),
		Reserve:       newKey(),
		ScopeOracle:   newKey(),
	}

	cpTa, err := p.CounterPartyTokenAccount(s.AssetMint)
	require.NoError(t, err)
	assert.Equal(t, findPDA(t, KlendProgramID, []byte("reserve_liq_supply"), p.LendingMarket[:], s.AssetMint[:]), cpTa)

	initPlan, err := p.Init(s, 99)
	require.NoError(t, err)
	table, _, err := lookup.DeriveAddress(s.Auth, 99)
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{
		KlendProgramID,
		findPDA(t, KlendProgramID, []byte("user_meta"), s.Auth[:]),
		table,
		solana.SysVarRentPubkey,
	}, keysOf(initPlan.Remaining))

	collateralMint := findPDA(t, KlendProgramID, []byte("reserve_coll_mint"), p.LendingMarket[:], s.AssetMint[:])
	require.Len(t, initPlan.TokenAccounts, 1)
	assert.Equal(t, collateralMint, initPlan.TokenAccounts[0].Mint)

	deposit, err := p.Deposit(s)
	require.NoError(t, err)
	require.Len(t, deposit.Remaining, 10)
	assert.Equal(t, findPDA(t, KlendProgramID, []byte("lma"), p.LendingMarket[:]), deposit.Remaining[3].PublicKey)
	assert.Equal(t, p.ScopeOracle, deposit.Remaining[9].PublicKey)

	withdraw, err := p.Withdraw(s, newKey())
	require.NoError(t, err)
	assert.Len(t, withdraw.Remaining, 10)

	output := newKey()
	p.OutputMint = output
	outCpTa, err := p.CounterPartyTokenAccount(s.AssetMint)
	require.NoError(t, err)
	assert.Equal(t, findPDA(t, KlendProgramID, []byte("reserve_liq_supply"), p.LendingMarket[:], output[:]), outCpTa)
}

func TestDrift(t *testing.T) {
	s := newStrategy()
	p := &Drift{Program: DriftProgramID, State: DriftState, MarketIndex: 1}

	assert.Equal(t, []byte{1, 0}, p.AdditionalArgs())

	cpTa, err := p.CounterPartyTokenAccount(s.AssetMint)
	require.NoError(t, err)
	assert.Equal(t, findPDA(t, DriftProgramID, []byte("spot_market_vault"), []byte{1, 0}), cpTa)

	user := findPDA(t, DriftProgramID, []byte("user"), s.Auth[:], []byte{0, 0})
	userStats := findPDA(t, DriftProgramID, []byte("user_stats"), s.Auth[:])

	initPlan, err := p.Init(s, 0)
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{DriftProgramID, userStats, DriftState, user, solana.SysVarRentPubkey}, keysOf(initPlan.Remaining))

	deposit, err := p.Deposit(s)
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{
		cpTa,
		DriftProgramID,
		DriftState,
		user,
		userStats,
		DriftSpotOracles[1],
		findPDA(t, DriftProgramID, []byte("spot_market"), []byte{1, 0}),
	}, keysOf(deposit.Remaining))

	_, err = (&Drift{Program: DriftProgramID, MarketIndex: 999}).Deposit(s)
	assert.ErrorIs(t, err, ErrMissingAccount)
}

func TestTokenAccountCreateIdempotent(t *testing.T) {
	payer := newKey()
	account := TokenAccount{Owner: newKey(), Mint: newKey(), TokenProgram: solana.Token2022ProgramID}

	ix, err := account.CreateIdempotent(payer)
	require.NoError(t, err)
	address, err := account.Address()
	require.NoError(t, err)
	assert.Equal(t, address, ix.Accounts()[1].PublicKey)
}
