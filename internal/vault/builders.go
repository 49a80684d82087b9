package vault

import (
	"vault-ops/pkg/ata"

	"github.com/gagliardetto/solana-go"
)

const (
	InstructionInitializeVault                  = "initialize_vault"
	InstructionAddAdaptor                       = "add_adaptor"
	InstructionUpdateVault                      = "update_vault"
	InstructionHarvestFee                       = "harvest_fee"
	InstructionDepositVault                     = "deposit_vault"
	InstructionRequestWithdrawVault             = "request_withdraw_vault"
	InstructionWithdrawVault                    = "withdraw_vault"
	InstructionInitializeStrategy               = "initialize_strategy"
	InstructionDepositStrategy                  = "deposit_strategy"
	InstructionWithdrawStrategy                 = "withdraw_strategy"
	InstructionInitializeDirectWithdrawStrategy = "initialize_direct_withdraw_strategy"
	InstructionDirectWithdrawStrategy           = "direct_withdraw_strategy"
)

// LP mints are always created under the SPL Token program.
var LpTokenProgram = solana.TokenProgramID

func ro(key solana.PublicKey) *solana.AccountMeta { return solana.Meta(key) }
func w(key solana.PublicKey) *solana.AccountMeta  { return solana.Meta(key).WRITE() }
func s(key solana.PublicKey) *solana.AccountMeta  { return solana.Meta(key).SIGNER() }
func ws(key solana.PublicKey) *solana.AccountMeta { return solana.Meta(key).WRITE().SIGNER() }

type InitializeVaultAccounts struct {
	Payer             solana.PublicKey
	Admin             solana.PublicKey
	Manager           solana.PublicKey
	Vault             solana.PublicKey
	AssetMint         solana.PublicKey
	AssetTokenProgram solana.PublicKey
}

// InitializeVault creates the vault account and its LP mint. Vault must co-sign.
func (p Programs) InitializeVault(args InitializeVaultArgs, a InitializeVaultAccounts) (*Instruction, error) {
	addrs := p.VaultAddresses(a.Vault)
	idleAta, err := ata.Address(addrs.VaultAssetIdleAuth, a.AssetMint, a.AssetTokenProgram)
	if err != nil {
		return nil, err
	}
	return newInstruction(p.Vault, InstructionInitializeVault, args, solana.AccountMetaSlice{
		ws(a.Payer),
		s(a.Admin),
		ro(a.Manager),
		ws(a.Vault),
		w(addrs.VaultLpMint),
		ro(addrs.VaultLpMintAuth),
		ro(a.AssetMint),
		ro(addrs.VaultAssetIdleAuth),
		w(idleAta),
		ro(addrs.Protocol),
		ro(a.AssetTokenProgram),
		ro(LpTokenProgram),
		ro(ata.ProgramID),
		ro(solana.SystemProgramID),
		ro(solana.SysVarRentPubkey),
	}), nil
}

type AdminAccounts struct {
	Payer solana.PublicKey
	Admin solana.PublicKey
	Vault solana.PublicKey
}

// AddAdaptor registers the adaptor program with the vault.
func (p Programs) AddAdaptor(a AdminAccounts) *Instruction {
	return newInstruction(p.Vault, InstructionAddAdaptor, nil, solana.AccountMetaSlice{
		ws(a.Payer),
		s(a.Admin),
		ro(p.Protocol()),
		w(a.Vault),
		w(p.AdaptorAddReceipt(a.Vault)),
		ro(p.Adaptor),
		ro(solana.SystemProgramID),
	})
}

func (p Programs) UpdateVault(config VaultConfig, admin, vault solana.PublicKey) *Instruction {
	return newInstruction(p.Vault, InstructionUpdateVault, config, solana.AccountMetaSlice{
		s(admin),
		w(vault),
	})
}

type HarvestFeeAccounts struct {
	Harvester     solana.PublicKey
	Manager       solana.PublicKey
	Admin         solana.PublicKey
	ProtocolAdmin solana.PublicKey
	Vault         solana.PublicKey
}

// HarvestFee mints accrued fees as LP to the manager, admin and protocol admin LP accounts,
// which must already exist.
func (p Programs) HarvestFee(a HarvestFeeAccounts) (*Instruction, error) {
	addrs := p.VaultAddresses(a.Vault)
	lpAccounts := make([]solana.PublicKey, 0, 3)
	for _, owner := range []solana.PublicKey{a.Manager, a.Admin, a.ProtocolAdmin} {
		address, err := ata.Address(owner, addrs.VaultLpMint, LpTokenProgram)
		if err != nil {
			return nil, err
		}
		lpAccounts = append(lpAccounts, address)
	}
	return newInstruction(p.Vault, InstructionHarvestFee, nil, solana.AccountMetaSlice{
		s(a.Harvester),
		ro(a.Manager),
		ro(a.Admin),
		ro(a.ProtocolAdmin),
		ro(addrs.Protocol),
		w(a.Vault),
		w(addrs.VaultLpMint),
		ro(addrs.VaultLpMintAuth),
		w(lpAccounts[0]),
		w(lpAccounts[1]),
		w(lpAccounts[2]),
		ro(LpTokenProgram),
	}), nil
}

type UserAccounts struct {
	User              solana.PublicKey
	Vault             solana.PublicKey
	AssetMint         solana.PublicKey
	AssetTokenProgram solana.PublicKey
}

func (p Programs) DepositVault(amount uint64, a UserAccounts) (*Instruction, error) {
	addrs := p.VaultAddresses(a.Vault)
	userAsset, err := ata.Address(a.User, a.AssetMint, a.AssetTokenProgram)
	if err != nil {
		return nil, err
	}
	idleAta, err := ata.Address(addrs.VaultAssetIdleAuth, a.AssetMint, a.AssetTokenProgram)
	if err != nil {
		return nil, err
	}
	userLp, err := ata.Address(a.User, addrs.VaultLpMint, LpTokenProgram)
	if err != nil {
		return nil, err
	}
	return newInstruction(p.Vault, InstructionDepositVault, amountArgs{Amount: amount}, solana.AccountMetaSlice{
		s(a.User),
		ro(addrs.Protocol),
		w(a.Vault),
		ro(a.AssetMint),
		w(addrs.VaultLpMint),
		w(userAsset),
		w(idleAta),
		w(addrs.VaultAssetIdleAuth),
		w(userLp),
		ro(addrs.VaultLpMintAuth),
		ro(a.AssetTokenProgram),
		ro(LpTokenProgram),
		ro(solana.SystemProgramID),
	}), nil
}

// RequestWithdrawVault escrows LP into an account owned by the user's request receipt.
func (p Programs) RequestWithdrawVault(args RequestWithdrawVaultArgs, payer, user, vault solana.PublicKey) (*Instruction, error) {
	addrs := p.VaultAddresses(vault)
	receipt := p.RequestWithdrawVaultReceipt(vault, user)
	userLp, err := ata.Address(user, addrs.VaultLpMint, LpTokenProgram)
	if err != nil {
		return nil, err
	}
	escrowLp, err := ata.Address(receipt, addrs.VaultLpMint, LpTokenProgram)
	if err != nil {
		return nil, err
	}
	return newInstruction(p.Vault, InstructionRequestWithdrawVault, args, solana.AccountMetaSlice{
		ws(payer),
		s(user),
		ro(addrs.Protocol),
		ro(vault),
		ro(addrs.VaultLpMint),
		w(userLp),
		w(escrowLp),
		w(receipt),
		ro(LpTokenProgram),
		ro(solana.SystemProgramID),
	}), nil
}

// WithdrawVault redeems a matured request from the idle balance.
func (p Programs) WithdrawVault(a UserAccounts) (*Instruction, error) {
	addrs := p.VaultAddresses(a.Vault)
	receipt := p.RequestWithdrawVaultReceipt(a.Vault, a.User)
	escrowLp, err := ata.Address(receipt, addrs.VaultLpMint, LpTokenProgram)
	if err != nil {
		return nil, err
	}
	idleAta, err := ata.Address(addrs.VaultAssetIdleAuth, a.AssetMint, a.AssetTokenProgram)
	if err != nil {
		return nil, err
	}
	userAsset, err := ata.Address(a.User, a.AssetMint, a.AssetTokenProgram)
	if err != nil {
		return nil, err
	}
	return newInstruction(p.Vault, InstructionWithdrawVault, nil, solana.AccountMetaSlice{
		ws(a.User),
		ro(addrs.Protocol),
		w(a.Vault),
		w(a.AssetMint),
		w(addrs.VaultLpMint),
		w(escrowLp),
		w(idleAta),
		w(addrs.VaultAssetIdleAuth),
		w(userAsset),
		ro(addrs.VaultLpMintAuth),
		w(receipt),
		ro(a.AssetTokenProgram),
		ro(LpTokenProgram),
		ro(solana.SystemProgramID),
	}), nil
}

type InitializeStrategyAccounts struct {
	Payer          solana.PublicKey
	Manager        solana.PublicKey
	Vault          solana.PublicKey
	CounterPartyTa solana.PublicKey
	Remaining      []*solana.AccountMeta
}

func (p Programs) InitializeStrategy(args InitializeStrategyArgs, a InitializeStrategyAccounts) *Instruction {
	strategy := p.StrategyAddresses(a.Vault, a.CounterPartyTa)
	return newInstruction(p.Vault, InstructionInitializeStrategy, args, solana.AccountMetaSlice{
		ws(a.Payer),
		s(a.Manager),
		ro(p.Protocol()),
		ro(a.Vault),
		ro(strategy.Strategy),
		ro(p.AdaptorAddReceipt(a.Vault)),
		w(strategy.StrategyInitReceipt),
		w(strategy.VaultStrategyAuth),
		ro(p.Adaptor),
		ro(solana.SystemProgramID),
	}).WithRemainingAccounts(a.Remaining...)
}

type StrategyAccounts struct {
	Manager           solana.PublicKey
	Vault             solana.PublicKey
	CounterPartyTa    solana.PublicKey
	AssetMint         solana.PublicKey
	AssetTokenProgram solana.PublicKey
	Remaining         []*solana.AccountMeta
}

// DepositStrategy moves idle assets into the strategy's counter-party.
func (p Programs) DepositStrategy(args StrategyAmountArgs, a StrategyAccounts) (*Instruction, error) {
	return p.strategyTransfer(InstructionDepositStrategy, args, a)
}

func (p Programs) WithdrawStrategy(args StrategyAmountArgs, a StrategyAccounts) (*Instruction, error) {
	return p.strategyTransfer(InstructionWithdrawStrategy, args, a)
}

func (p Programs) strategyTransfer(name string, args StrategyAmountArgs, a StrategyAccounts) (*Instruction, error) {
	addrs := p.VaultAddresses(a.Vault)
	strategy := p.StrategyAddresses(a.Vault, a.CounterPartyTa)
	idleAta, err := ata.Address(addrs.VaultAssetIdleAuth, a.AssetMint, a.AssetTokenProgram)
	if err != nil {
		return nil, err
	}
	strategyAsset, err := ata.Address(strategy.VaultStrategyAuth, a.AssetMint, a.AssetTokenProgram)
	if err != nil {
		return nil, err
	}
	return newInstruction(p.Vault, name, args, solana.AccountMetaSlice{
		s(a.Manager),
		ro(addrs.Protocol),
		w(a.Vault),
		w(strategy.VaultStrategyAuth),
		ro(strategy.Strategy),
		ro(addrs.AdaptorAddReceipt),
		w(strategy.StrategyInitReceipt),
		w(addrs.VaultAssetIdleAuth),
		w(idleAta),
		w(strategyAsset),
		w(a.AssetMint),
		ro(a.AssetTokenProgram),
		ro(p.Adaptor),
	}).WithRemainingAccounts(a.Remaining...), nil
}

type InitializeDirectWithdrawAccounts struct {
	Payer          solana.PublicKey
	Admin          solana.PublicKey
	Vault          solana.PublicKey
	CounterPartyTa solana.PublicKey
}

// InitializeDirectWithdrawStrategy records which adaptor instruction users may call to
// withdraw straight from the strategy.
func (p Programs) InitializeDirectWithdrawStrategy(args InitializeDirectWithdrawStrategyArgs, a InitializeDirectWithdrawAccounts) *Instruction {
	strategy := p.StrategyAddresses(a.Vault, a.CounterPartyTa)
	return newInstruction(p.Vault, InstructionInitializeDirectWithdrawStrategy, args, solana.AccountMetaSlice{
		ws(a.Payer),
		s(a.Admin),
		ro(p.Protocol()),
		ro(a.Vault),
		ro(strategy.Strategy),
		ro(p.AdaptorAddReceipt(a.Vault)),
		ro(strategy.StrategyInitReceipt),
		w(strategy.DirectWithdrawInitReceipt),
		ro(solana.SystemProgramID),
	})
}

type DirectWithdrawAccounts struct {
	User              solana.PublicKey
	Vault             solana.PublicKey
	CounterPartyTa    solana.PublicKey
	AssetMint         solana.PublicKey
	AssetTokenProgram solana.PublicKey
	Remaining         []*solana.AccountMeta
}

// DirectWithdrawStrategy burns the user's requested LP and pays out from the strategy.
func (p Programs) DirectWithdrawStrategy(args DirectWithdrawStrategyArgs, a DirectWithdrawAccounts) (*Instruction, error) {
	addrs := p.VaultAddresses(a.Vault)
	strategy := p.StrategyAddresses(a.Vault, a.CounterPartyTa)
	receipt := p.RequestWithdrawVaultReceipt(a.Vault, a.User)
	strategyAsset, err := ata.Address(strategy.VaultStrategyAuth, a.AssetMint, a.AssetTokenProgram)
	if err != nil {
		return nil, err
	}
	userAsset, err := ata.Address(a.User, a.AssetMint, a.AssetTokenProgram)
	if err != nil {
		return nil, err
	}
	escrowLp, err := ata.Address(receipt, addrs.VaultLpMint, LpTokenProgram)
	if err != nil {
		return nil, err
	}
	return newInstruction(p.Vault, InstructionDirectWithdrawStrategy, args, solana.AccountMetaSlice{
		ws(a.User),
		ro(addrs.Protocol),
		w(a.Vault),
		ro(strategy.Strategy),
		ro(addrs.AdaptorAddReceipt),
		w(strategy.StrategyInitReceipt),
		ro(strategy.DirectWithdrawInitReceipt),
		w(addrs.VaultAssetIdleAuth),
		w(strategy.VaultStrategyAuth),
		w(addrs.VaultLpMint),
		ro(addrs.VaultLpMintAuth),
		w(a.AssetMint),
		w(strategyAsset),
		w(userAsset),
		w(escrowLp),
		w(receipt),
		ro(a.AssetTokenProgram),
		ro(LpTokenProgram),
		ro(p.Adaptor),
		ro(solana.SystemProgramID),
	}).WithRemainingAccounts(a.Remaining...), nil
}
