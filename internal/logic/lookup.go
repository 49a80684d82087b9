package logic

import (
	"time"

	"vault-ops/internal/lookup"
	"vault-ops/internal/submit"

	"github.com/avast/retry-go"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
)

const lookupPollInterval = 500 * time.Millisecond

var errTableNotReady = errors.New("lookup table not active yet")

// lookupTables makes sure every account of instructions is in the configured table, creating
// the table when no address is configured, and waits until the table is usable.
func (b *base) lookupTables(payer solana.PrivateKey, instructions []solana.Instruction) (map[solana.PublicKey]solana.PublicKeySlice, error) {
	addresses := lookup.AccountsOf(instructions...)
	table, err := b.prepareTable(payer, addresses)
	if err != nil {
		return nil, err
	}

	active, err := b.waitForTable(table, addresses)
	if err != nil {
		return nil, err
	}
	return map[solana.PublicKey]solana.PublicKeySlice{table: active.Addresses}, nil
}

func (b *base) prepareTable(payer solana.PrivateKey, addresses solana.PublicKeySlice) (solana.PublicKey, error) {
	authority := payer.PublicKey()

	if configured := b.svcCtx.Config.LookupTable.Address; configured != "" {
		table, err := solana.PublicKeyFromBase58(configured)
		if err != nil {
			return solana.PublicKey{}, err
		}
		existing, err := lookup.Fetch(b.ctx, b.svcCtx.Rpc, table)
		if err != nil {
			return solana.PublicKey{}, err
		}
		missing := lookup.Missing(existing, addresses)
		if len(missing) == 0 {
			return table, nil
		}
		b.Infof("extending lookup table %s with %d addresses", table, len(missing))
		return table, b.extendTable(payer, lookup.Extend(table, authority, authority, missing))
	}

	slot, err := b.svcCtx.Rpc.GetSlot(b.ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.PublicKey{}, errors.Wrap(err, "get slot")
	}
	create, table, err := lookup.Create(authority, authority, slot)
	if err != nil {
		return solana.PublicKey{}, err
	}
	extends := lookup.Extend(table, authority, authority, addresses)
	first := []solana.Instruction{create}
	if len(extends) > 0 {
		first = append(first, extends[0])
		extends = extends[1:]
	}
	if _, err := b.svcCtx.Submitter.Submit(b.ctx, submit.Request{Instructions: first, Payer: payer}); err != nil {
		return solana.PublicKey{}, errors.Wrap(err, "create lookup table")
	}
	b.Infof("created lookup table %s; set LookupTable.Address to reuse it", table)
	return table, b.extendTable(payer, extends)
}

// extendTable sends each extend instruction in its own transaction to stay within the size limit.
func (b *base) extendTable(payer solana.PrivateKey, extends []solana.Instruction) error {
	for i, ix := range extends {
		if _, err := b.svcCtx.Submitter.Submit(b.ctx, submit.Request{Instructions: []solana.Instruction{ix}, Payer: payer}); err != nil {
			return errors.Wrapf(err, "extend lookup table (%d/%d)", i+1, len(extends))
		}
	}
	return nil
}

// waitForTable polls until the table holds every address and has advanced past its last extension slot.
func (b *base) waitForTable(table solana.PublicKey, addresses solana.PublicKeySlice) (*lookup.Table, error) {
	timeout := b.svcCtx.Config.LookupTable.WaitTimeout
	attempts := uint(timeout/lookupPollInterval) + 1

	var active *lookup.Table
	err := retry.Do(
		func() error {
			t, err := lookup.Fetch(b.ctx, b.svcCtx.Rpc, table)
			if errors.Is(err, lookup.ErrDeactivated) {
				return retry.Unrecoverable(err)
			}
			if err != nil {
				return err
			}
			if len(lookup.Missing(t, addresses)) > 0 {
				return errTableNotReady
			}
			slot, err := b.svcCtx.Rpc.GetSlot(b.ctx, rpc.CommitmentConfirmed)
			if err != nil {
				return err
			}
			if slot <= t.LastExtendedSlot {
				return errTableNotReady
			}
			active = t
			return nil
		},
		retry.Context(b.ctx),
		retry.Attempts(attempts),
		retry.Delay(lookupPollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "wait for lookup table %s", table)
	}
	return active, nil
}
