package config

import (
	"fmt"
	"sort"
	"strings"

	"vault-ops/internal/fee"
	"vault-ops/internal/keys"
	"vault-ops/internal/protocol"
	"vault-ops/internal/submit"
	"vault-ops/internal/vault"

	"github.com/gagliardetto/solana-go"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

var (
	validate = validator.New()
	trans    ut.Translator
)

func init() {
	english := en.New()
	trans, _ = ut.New(english, english).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(err)
	}
}

// Validate checks field constraints and that every address and amount parses.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Errorf("invalid config: %s", translate(err))
	}
	if _, err := c.Vault.Parse(); err != nil {
		return err
	}
	if _, err := c.Amounts.Parse(); err != nil {
		return err
	}
	if _, err := c.Protocols.Registry(); err != nil {
		return err
	}
	if c.LookupTable.Address != "" {
		if _, err := solana.PublicKeyFromBase58(c.LookupTable.Address); err != nil {
			return errors.Wrap(err, "LookupTable.Address")
		}
	}
	return nil
}

// translate renders validator errors as sorted "Namespace: message" lines.
func translate(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Namespace()+": "+fe.Translate(trans))
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

type keyParser struct {
	errs []string
}

// key parses s into a public key. Empty strings yield the zero key.
func (p *keyParser) key(field, s string) solana.PublicKey {
	if s == "" {
		return solana.PublicKey{}
	}
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: %v", field, err))
	}
	return key
}

func (p *keyParser) err() error {
	if len(p.errs) == 0 {
		return nil
	}
	return errors.Errorf("invalid addresses: %s", strings.Join(p.errs, "; "))
}

// Vault is VaultConf with addresses parsed.
type Vault struct {
	Programs          vault.Programs
	Address           solana.PublicKey
	AssetMint         solana.PublicKey
	AssetTokenProgram solana.PublicKey
	ProtocolAdmin     solana.PublicKey
	Params            vault.InitializeVaultArgs
}

func (c VaultConf) Parse() (Vault, error) {
	var p keyParser
	v := Vault{
		Programs: vault.Programs{
			Vault:   p.key("Vault.Program", c.Program),
			Adaptor: p.key("Vault.AdaptorProgram", c.AdaptorProgram),
		},
		Address:           p.key("Vault.Address", c.Address),
		AssetMint:         p.key("Vault.AssetMint", c.AssetMint),
		AssetTokenProgram: p.key("Vault.AssetTokenProgram", c.AssetTokenProgram),
		ProtocolAdmin:     p.key("Vault.ProtocolAdmin", c.ProtocolAdmin),
	}
	if err := p.err(); err != nil {
		return Vault{}, err
	}
	if !v.AssetTokenProgram.Equals(solana.TokenProgramID) && !v.AssetTokenProgram.Equals(solana.Token2022ProgramID) {
		return Vault{}, errors.Errorf("Vault.AssetTokenProgram: %s is not a token program", v.AssetTokenProgram)
	}
	maxCap, err := ParseAmount(c.MaxCap)
	if err != nil {
		return Vault{}, errors.Wrap(err, "Vault.MaxCap")
	}
	v.Params = vault.InitializeVaultArgs{
		Config: vault.VaultConfig{
			MaxCap:                maxCap,
			StartAtTs:             c.StartAtTs,
			ManagerPerformanceFee: c.ManagerPerformanceFee,
			AdminPerformanceFee:   c.AdminPerformanceFee,
			ManagerManagementFee:  c.ManagerManagementFee,
			AdminManagementFee:    c.AdminManagementFee,
		},
		Name:        c.Name,
		Description: c.Description,
	}
	return v, nil
}

// ParseAmount reads a non-negative integer amount. Underscores and 0x prefixes are accepted.
func ParseAmount(s string) (uint64, error) {
	return cast.ToUint64E(strings.TrimSpace(s))
}

type Amounts struct {
	Deposit                     uint64
	Withdraw                    uint64
	DepositPerStrategy          uint64
	WithdrawPerStrategy         uint64
	DirectWithdrawLpPerStrategy uint64
}

func (c AmountsConf) Parse() (Amounts, error) {
	var (
		a   Amounts
		err error
	)
	for _, f := range []struct {
		name string
		raw  string
		dst  *uint64
	}{
		{"Amounts.Deposit", c.Deposit, &a.Deposit},
		{"Amounts.Withdraw", c.Withdraw, &a.Withdraw},
		{"Amounts.DepositPerStrategy", c.DepositPerStrategy, &a.DepositPerStrategy},
		{"Amounts.WithdrawPerStrategy", c.WithdrawPerStrategy, &a.WithdrawPerStrategy},
		{"Amounts.DirectWithdrawLpPerStrategy", c.DirectWithdrawLpPerStrategy, &a.DirectWithdrawLpPerStrategy},
	} {
		if *f.dst, err = ParseAmount(f.raw); err != nil {
			return Amounts{}, errors.Wrap(err, f.name)
		}
	}
	return a, nil
}

func (c SubmitConf) Options() submit.Options {
	opts := submit.Options{
		MaxAttempts:      c.MaxAttempts,
		PriorityLevel:    fee.PriorityLevel(c.PriorityLevel),
		MaxFeeAge:        c.MaxFeeAge,
		MaxMicroLamports: c.MaxMicroLamports,
		ConfirmTimeout:   c.ConfirmTimeout,
		PollInterval:     c.PollInterval,
		SkipPreflight:    c.SkipPreflight,
	}
	switch c.Backoff {
	case "exponential":
		opts.Backoff = submit.ExponentialBackoff{
			Base:   c.BaseDelay,
			Max:    c.MaxDelay,
			Jitter: c.Jitter,
		}
	case "none":
		opts.Backoff = submit.NoRetry{}
	default:
		opts.Backoff = submit.ConstantBackoff{Delay: c.BaseDelay}
	}
	return opts
}

// Registry builds an adaptor for every protocol that has its identifying account configured.
func (c ProtocolsConf) Registry() (protocol.Registry, error) {
	var (
		p        keyParser
		adaptors []protocol.Adaptor
	)
	if c.Solend.CounterPartyTa != "" {
		adaptors = append(adaptors, &protocol.Solend{
			Program:           p.key("Protocols.Solend.Program", c.Solend.Program),
			CounterPartyTa:    p.key("Protocols.Solend.CounterPartyTa", c.Solend.CounterPartyTa),
			LendingMarket:     p.key("Protocols.Solend.LendingMarket", c.Solend.LendingMarket),
			Reserve:           p.key("Protocols.Solend.Reserve", c.Solend.Reserve),
			CollateralMint:    p.key("Protocols.Solend.CollateralMint", c.Solend.CollateralMint),
			PythOracle:        p.key("Protocols.Solend.PythOracle", c.Solend.PythOracle),
			SwitchboardOracle: p.key("Protocols.Solend.SwitchboardOracle", c.Solend.SwitchboardOracle),
		})
	}
	if c.Marginfi.Bank != "" {
		adaptors = append(adaptors, &protocol.Marginfi{
			Program: p.key("Protocols.Marginfi.Program", c.Marginfi.Program),
			Bank:    p.key("Protocols.Marginfi.Bank", c.Marginfi.Bank),
			Group:   p.key("Protocols.Marginfi.Group", c.Marginfi.Group),
			Account: p.key("Protocols.Marginfi.Account", c.Marginfi.Account),
			Oracle:  p.key("Protocols.Marginfi.Oracle", c.Marginfi.Oracle),
		})
	}
	if c.Klend.LendingMarket != "" {
		adaptors = append(adaptors, &protocol.Klend{
			Program:       p.key("Protocols.Klend.Program", c.Klend.Program),
			LendingMarket: p.key("Protocols.Klend.LendingMarket", c.Klend.LendingMarket),
			Reserve:       p.key("Protocols.Klend.Reserve", c.Klend.Reserve),
			ScopeOracle:   p.key("Protocols.Klend.ScopeOracle", c.Klend.ScopeOracle),
			OutputMint:    p.key("Protocols.Klend.OutputMint", c.Klend.OutputMint),
		})
	}
	if c.Drift.MarketIndex >= 0 {
		adaptors = append(adaptors, &protocol.Drift{
			Program:     p.key("Protocols.Drift.Program", c.Drift.Program),
			State:       p.key("Protocols.Drift.State", c.Drift.State),
			MarketIndex: uint16(c.Drift.MarketIndex),
			SubAccount:  c.Drift.SubAccount,
			Oracle:      p.key("Protocols.Drift.Oracle", c.Drift.Oracle),
		})
	}
	if err := p.err(); err != nil {
		return nil, err
	}
	return protocol.NewRegistry(adaptors...), nil
}

func (c KeysConf) Ring() *keys.Ring {
	return keys.NewRing(c.Admin, c.Manager, c.User)
}
