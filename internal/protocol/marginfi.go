package protocol

import (
	"github.com/gagliardetto/solana-go"
)

var MarginfiProgramID = solana.MustPublicKeyFromBase58("MFv2hWf31Z9kbCa1snEPYctwafyhdvnV7FZnsebVacA")

const OutputMarginfiAccount = "marginfi_account"

type Marginfi struct {
	Program solana.PublicKey
	Bank    solana.PublicKey
	Group   solana.PublicKey
	// Account is the marginfi account created by Init. Deposit and Withdraw need it.
	Account solana.PublicKey
	Oracle  solana.PublicKey

	// NewAccount generates the keypair of the account created during Init.
	NewAccount func() (solana.PrivateKey, error)
}

func (p *Marginfi) Name() string { return "marginfi" }

func (p *Marginfi) AdditionalArgs() []byte { return nil }

func (p *Marginfi) CounterPartyTokenAccount(solana.PublicKey) (solana.PublicKey, error) {
	return pda(p.Program, []byte("liquidity_vault"), p.Bank[:])
}

func (p *Marginfi) Init(Strategy, uint64) (*Plan, error) {
	newAccount := p.NewAccount
	if newAccount == nil {
		newAccount = solana.NewRandomPrivateKey
	}
	account, err := newAccount()
	if err != nil {
		return nil, err
	}
	return &Plan{
		Remaining: []*solana.AccountMeta{
			ro(p.Program),
			ro(p.Group),
			solana.Meta(account.PublicKey()).WRITE().SIGNER(),
		},
		Signers: []solana.PrivateKey{account},
		Outputs: map[string]solana.PublicKey{OutputMarginfiAccount: account.PublicKey()},
	}, nil
}

func (p *Marginfi) Deposit(Strategy) (*Plan, error) {
	if err := configured("marginfi account", p.Account); err != nil {
		return nil, err
	}
	cpTa, err := p.CounterPartyTokenAccount(solana.PublicKey{})
	if err != nil {
		return nil, err
	}
	return &Plan{
		Remaining: []*solana.AccountMeta{
			w(cpTa),
			ro(p.Program),
			w(p.Group),
			w(p.Account),
			w(p.Bank),
		},
	}, nil
}

func (p *Marginfi) Withdraw(_ Strategy, counterPartyTaAuth solana.PublicKey) (*Plan, error) {
	if err := configured("marginfi account", p.Account); err != nil {
		return nil, err
	}
	cpTa, err := p.CounterPartyTokenAccount(solana.PublicKey{})
	if err != nil {
		return nil, err
	}
	return &Plan{
		Remaining: []*solana.AccountMeta{
			w(counterPartyTaAuth),
			w(cpTa),
			ro(p.Program),
			w(p.Group),
			w(p.Account),
			w(p.Bank),
			ro(p.Oracle),
		},
	}, nil
}
