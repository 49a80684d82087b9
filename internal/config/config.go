package config

import (
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

type Config struct {
	Rpc         RpcConf
	Log         LogConf
	Banner      BannerConf
	Keys        KeysConf
	Vault       VaultConf
	Amounts     AmountsConf
	Submit      SubmitConf
	LookupTable LookupTableConf
	Protocols   ProtocolsConf
}

type RpcConf struct {
	Url string `json:"Url" validate:"required,url"`
	// FeeUrl serves getPriorityFeeEstimate. Empty uses Url.
	FeeUrl  string        `json:",optional" validate:"omitempty,url"`
	Timeout time.Duration `json:",default=10s"`
}

func (c RpcConf) FeeEndpoint() string {
	if c.FeeUrl != "" {
		return c.FeeUrl
	}
	return c.Url
}

type LogConf struct {
	logx.LogConf
}

type BannerConf struct {
	Text     string `json:",default=VAULT-OPS"`
	Color    string `json:",default=green"`
	FontName string `json:",default=standard,options=big|larry3d|starwars|standard"`
	Disabled bool   `json:",optional"`
}

// KeysConf points at solana-keygen JSON files per role.
type KeysConf struct {
	Admin   string `json:",optional"`
	Manager string `json:",optional"`
	User    string `json:",optional"`
}

type VaultConf struct {
	Program           string `json:",default=vVoLTRjQmtFpiYoegx285Ze4gsLJ8ZxgFKVcuvmG1a8"`
	AdaptorProgram    string `json:",default=aVoLTRCRt3NnnchvLYH6rMYehJHwM5m45RmLBZq7PGz"`
	Address           string `json:",optional"`
	AssetMint         string `json:"AssetMint" validate:"required"`
	AssetTokenProgram string `json:",default=TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"`
	// ProtocolAdmin receives the protocol's share on harvest.
	ProtocolAdmin string `json:",optional"`

	Name                  string `json:",optional" validate:"max=32"`
	Description           string `json:",optional" validate:"max=64"`
	MaxCap                string `json:",default=0"`
	StartAtTs             uint64 `json:",default=0"`
	ManagerPerformanceFee uint16 `json:",default=0" validate:"lte=10000"`
	AdminPerformanceFee   uint16 `json:",default=0" validate:"lte=10000"`
	ManagerManagementFee  uint16 `json:",default=0" validate:"lte=10000"`
	AdminManagementFee    uint16 `json:",default=0" validate:"lte=10000"`
}

// AmountsConf holds base-unit amounts as strings so large values and underscores survive YAML.
// LP amounts always have 9 decimals.
type AmountsConf struct {
	Deposit                     string `json:",default=0"`
	Withdraw                    string `json:",default=0"`
	DepositPerStrategy          string `json:",default=0"`
	WithdrawPerStrategy         string `json:",default=0"`
	DirectWithdrawLpPerStrategy string `json:",default=0"`
}

type SubmitConf struct {
	MaxAttempts   uint          `json:",default=5" validate:"gte=1,lte=5"`
	Backoff       string        `json:",default=constant,options=constant|exponential|none"`
	BaseDelay     time.Duration `json:",default=1s"`
	MaxDelay      time.Duration `json:",default=8s"`
	Jitter        time.Duration `json:",default=250ms"`
	PriorityLevel string        `json:",default=High,options=Min|Low|Medium|High|VeryHigh|UnsafeMax"`
	MaxFeeAge     time.Duration `json:",default=30s"`
	// MaxMicroLamports caps the compute unit price. Zero disables the cap.
	MaxMicroLamports uint64        `json:",default=0"`
	ConfirmTimeout   time.Duration `json:",default=60s"`
	PollInterval     time.Duration `json:",default=500ms"`
	SkipPreflight    bool          `json:",optional"`
}

type LookupTableConf struct {
	Enabled bool `json:",optional"`
	// Address reuses an existing table. Empty creates one owned by the payer.
	Address string `json:",optional"`
	// WaitTimeout bounds how long to wait for a new or extended table to become usable.
	WaitTimeout time.Duration `json:",default=30s"`
}

type ProtocolsConf struct {
	Solend   SolendConf
	Marginfi MarginfiConf
	Klend    KlendConf
	Drift    DriftConf
}

type SolendConf struct {
	Program           string `json:",default=So1endDq2YkqhipRh3WViPa8hdiSpxWy6z3Z6tMCpAo"`
	CounterPartyTa    string `json:",optional"`
	LendingMarket     string `json:",optional"`
	Reserve           string `json:",optional"`
	CollateralMint    string `json:",optional"`
	PythOracle        string `json:",optional"`
	SwitchboardOracle string `json:",optional"`
}

type MarginfiConf struct {
	Program string `json:",default=MFv2hWf31Z9kbCa1snEPYctwafyhdvnV7FZnsebVacA"`
	Bank    string `json:",optional"`
	Group   string `json:",optional"`
	// Account is printed by strategy init and recorded here afterwards.
	Account string `json:",optional"`
	Oracle  string `json:",optional"`
}

type KlendConf struct {
	Program       string `json:",default=KLend2g3cP87fffoy8q1mQqGKjrxjC8boSyAYavgmjD"`
	LendingMarket string `json:",optional"`
	Reserve       string `json:",optional"`
	ScopeOracle   string `json:",optional"`
	OutputMint    string `json:",optional"`
}

type DriftConf struct {
	Program string `json:",default=dRiftyHA39MWEi3m9aunc5MzRF1JYuBsbn6VPcn33UH"`
	State   string `json:",default=5zpq7DvB6UdFFvpmBPspGPNfUGoBRRCE2HHg5u3gxcsN"`
	// MarketIndex of -1 leaves Drift unconfigured.
	MarketIndex int    `json:",default=-1" validate:"gte=-1,lte=65535"`
	SubAccount  uint16 `json:",default=0"`
	Oracle      string `json:",optional"`
}
