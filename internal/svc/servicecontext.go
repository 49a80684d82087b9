package svc

import (
	"context"

	"vault-ops/internal/config"
	"vault-ops/internal/fee"
	"vault-ops/internal/keys"
	"vault-ops/internal/protocol"
	"vault-ops/internal/submit"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Chain is the read side of the RPC client used by call sites.
type Chain interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetSlot(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
}

type Submitter interface {
	Submit(ctx context.Context, req submit.Request) (*submit.Result, error)
}

type ServiceContext struct {
	Config config.Config

	Rpc       Chain
	Submitter Submitter
	Keys      *keys.Ring

	Vault     config.Vault
	Amounts   config.Amounts
	Protocols protocol.Registry
}

func NewServiceContext(c config.Config) (*ServiceContext, error) {
	v, err := c.Vault.Parse()
	if err != nil {
		return nil, err
	}
	amounts, err := c.Amounts.Parse()
	if err != nil {
		return nil, err
	}
	protocols, err := c.Protocols.Registry()
	if err != nil {
		return nil, err
	}

	client := rpc.New(c.Rpc.Url)
	fees := fee.NewHeliusClient(c.Rpc.FeeEndpoint(), fee.WithTimeout(c.Rpc.Timeout))

	return &ServiceContext{
		Config:    c,
		Rpc:       client,
		Submitter: submit.New(client, fees, c.Submit.Options()),
		Keys:      c.Keys.Ring(),
		Vault:     v,
		Amounts:   amounts,
		Protocols: protocols,
	}, nil
}
