package vault

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var ErrNotStrategyInitReceipt = errors.New("vault: account is not a strategy init receipt")

// AccountDiscriminator is the 8-byte anchor account tag sha256("account:<name>")[:8].
func AccountDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("account:" + name))
	return sum[:8]
}

type StrategyInitReceipt struct {
	Vault         solana.PublicKey
	Strategy      solana.PublicKey
	Adaptor       solana.PublicKey
	PositionValue uint64
	LastUpdatedTs uint64
}

func (r *StrategyInitReceipt) UnmarshalWithDecoder(dec *bin.Decoder) error {
	tag, err := dec.ReadNBytes(8)
	if err != nil {
		return err
	}
	if !bytes.Equal(tag, AccountDiscriminator("StrategyInitReceipt")) {
		return ErrNotStrategyInitReceipt
	}
	for _, key := range []*solana.PublicKey{&r.Vault, &r.Strategy, &r.Adaptor} {
		v, err := dec.ReadNBytes(32)
		if err != nil {
			return err
		}
		*key = solana.PublicKeyFromBytes(v)
	}
	if r.PositionValue, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return err
	}
	if r.LastUpdatedTs, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return err
	}
	return nil
}

func DecodeStrategyInitReceipt(data []byte) (*StrategyInitReceipt, error) {
	var receipt StrategyInitReceipt
	if err := bin.NewBinDecoder(data).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("decode strategy init receipt: %w", err)
	}
	return &receipt, nil
}

type AccountGetter interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
}

// FetchStrategyInitReceipt loads the receipt of strategy within vault.
func (p Programs) FetchStrategyInitReceipt(ctx context.Context, client AccountGetter, vault, strategy solana.PublicKey) (*StrategyInitReceipt, error) {
	address := p.StrategyInitReceipt(vault, strategy)
	info, err := client.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("get strategy init receipt %s: %w", address, err)
	}
	if info == nil || info.Value == nil {
		return nil, fmt.Errorf("strategy init receipt %s: %w", address, rpc.ErrNotFound)
	}
	if !info.Value.Owner.Equals(p.Vault) {
		return nil, fmt.Errorf("strategy init receipt %s: %w", address, ErrNotStrategyInitReceipt)
	}
	return DecodeStrategyInitReceipt(info.Value.Data.GetBinary())
}
