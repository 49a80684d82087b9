package submit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vault-ops/internal/fee"

	"github.com/avast/retry-go"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/zeromicro/go-zero/core/logx"
)

const (
	DefaultMaxAttempts    uint = 5
	DefaultConfirmTimeout      = 60 * time.Second
	DefaultPollInterval        = 500 * time.Millisecond

	preflightFailureCode = -32002
)

// RPC is the subset of *rpc.Client the submitter talks to.
type RPC interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SimulateTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts *rpc.SimulateTransactionOpts) (*rpc.SimulateTransactionResponse, error)
	SendTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
}

type FeeEstimator interface {
	EstimatePriorityFee(ctx context.Context, tx *solana.Transaction, level fee.PriorityLevel) (fee.Estimate, error)
}

type Options struct {
	// MaxAttempts caps send/confirm cycles regardless of what Backoff allows.
	MaxAttempts   uint
	Backoff       Backoff
	PriorityLevel fee.PriorityLevel
	// MaxFeeAge re-quotes the priority fee before an attempt once the estimate is older. Zero disables.
	MaxFeeAge time.Duration
	// MaxMicroLamports clamps the quoted price. Zero disables.
	MaxMicroLamports uint64
	ConfirmTimeout   time.Duration
	PollInterval     time.Duration
	Commitment       rpc.CommitmentType
	SkipPreflight    bool
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts == 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Backoff == nil {
		o.Backoff = ConstantBackoff{Delay: time.Second}
	}
	if o.PriorityLevel == "" {
		o.PriorityLevel = fee.High
	}
	if o.ConfirmTimeout <= 0 {
		o.ConfirmTimeout = DefaultConfirmTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Commitment == "" {
		o.Commitment = rpc.CommitmentConfirmed
	}
	return o
}

type Request struct {
	Instructions []solana.Instruction
	Payer        solana.PrivateKey
	// Signers co-sign alongside the payer, e.g. keypairs of accounts created in the same transaction.
	Signers       []solana.PrivateKey
	AddressTables map[solana.PublicKey]solana.PublicKeySlice
}

type Result struct {
	Signature        solana.Signature
	UnitsConsumed    uint64
	ComputeUnitLimit uint32
	MicroLamports    uint64
	Attempts         uint
}

type Submitter struct {
	rpc  RPC
	fees FeeEstimator
	opts Options
	now  func() time.Time
}

func New(client RPC, fees FeeEstimator, opts Options) *Submitter {
	return &Submitter{
		rpc:  client,
		fees: fees,
		opts: opts.withDefaults(),
		now:  time.Now,
	}
}

// Submit sizes the compute budget from a simulation, prices it with a fresh fee estimate,
// then signs and sends the transaction until it is confirmed or attempts run out.
// The caller's instruction slice is not modified.
func (s *Submitter) Submit(ctx context.Context, req Request) (*Result, error) {
	if len(req.Instructions) == 0 {
		return nil, ErrNoInstructions
	}

	consumed, blockhash, err := s.simulate(ctx, req)
	if err != nil {
		return nil, err
	}
	budget := ComputeUnitBudget(consumed)
	logx.Infof("[submit] simulation consumed %d CUs, limit set to %d", consumed, budget)

	base := make([]solana.Instruction, 0, len(req.Instructions)+2)
	base = append(base, req.Instructions...)
	base = append(base, limitInstruction(budget))

	estimate, err := s.quote(ctx, base, blockhash, req)
	if err != nil {
		return nil, err
	}

	var (
		attempt uint
		delay   time.Duration
		again   bool
		sent    []solana.Signature
		sig     solana.Signature
	)
	err = retry.Do(
		func() error {
			attempt++
			if earlier, ok := s.landed(ctx, sent); ok {
				logx.Infof("[submit] earlier attempt %s confirmed", earlier)
				sig = earlier
				return nil
			}
			if s.opts.MaxFeeAge > 0 && estimate.Age(s.now()) > s.opts.MaxFeeAge {
				logx.Infof("[submit] fee estimate older than %s, re-quoting", s.opts.MaxFeeAge)
				fresh, err := s.quote(ctx, base, blockhash, req)
				if err != nil {
					return retry.Unrecoverable(fmt.Errorf("%w: %v", ErrStaleEstimate, err))
				}
				estimate = fresh
			}

			instructions := append(base[:len(base):len(base)], priceInstruction(s.price(estimate)))
			confirmed, err := s.sendAndConfirm(ctx, instructions, req, &sent)
			if err != nil {
				return err
			}
			sig = confirmed
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(s.opts.MaxAttempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			again = retryable(err)
			if !again {
				return false
			}
			d, ok := s.opts.Backoff.Next(attempt - 1)
			delay = d
			return ok
		}),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return delay
		}),
		retry.OnRetry(func(n uint, err error) {
			logx.Errorf("[submit] attempt %d failed: %v", n+1, err)
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if again {
			return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, attempt, err)
		}
		return nil, err
	}

	return &Result{
		Signature:        sig,
		UnitsConsumed:    consumed,
		ComputeUnitLimit: budget,
		MicroLamports:    s.price(estimate),
		Attempts:         attempt,
	}, nil
}

func (s *Submitter) simulate(ctx context.Context, req Request) (uint64, solana.Hash, error) {
	latest, err := s.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, solana.Hash{}, fmt.Errorf("submit: get latest blockhash: %w", err)
	}
	blockhash := latest.Value.Blockhash

	draft := make([]solana.Instruction, 0, len(req.Instructions)+1)
	draft = append(draft, limitInstruction(MaxComputeUnits))
	draft = append(draft, req.Instructions...)

	tx, err := s.unsigned(draft, blockhash, req)
	if err != nil {
		return 0, solana.Hash{}, err
	}

	out, err := s.rpc.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		SigVerify:              false,
		ReplaceRecentBlockhash: true,
		Commitment:             rpc.CommitmentConfirmed,
	})
	if err != nil {
		return 0, solana.Hash{}, fmt.Errorf("%w: %v", ErrNoUnitsConsumed, err)
	}
	if out == nil || out.Value == nil || out.Value.UnitsConsumed == nil || *out.Value.UnitsConsumed == 0 {
		return 0, solana.Hash{}, ErrNoUnitsConsumed
	}
	if out.Value.Err != nil {
		for _, line := range out.Value.Logs {
			logx.Errorf("[submit] simulation log: %s", line)
		}
		return 0, solana.Hash{}, fmt.Errorf("%w: %v", ErrSimulationFailed, out.Value.Err)
	}
	return *out.Value.UnitsConsumed, blockhash, nil
}

func (s *Submitter) quote(ctx context.Context, instructions []solana.Instruction, blockhash solana.Hash, req Request) (fee.Estimate, error) {
	tx, err := s.unsigned(instructions, blockhash, req)
	if err != nil {
		return fee.Estimate{}, err
	}
	estimate, err := s.fees.EstimatePriorityFee(ctx, tx, s.opts.PriorityLevel)
	if err != nil {
		return fee.Estimate{}, fmt.Errorf("%w: %v", ErrNoFeeEstimate, err)
	}
	logx.Infof("[submit] priority fee estimate %d micro-lamports (%s)", estimate.MicroLamports, s.opts.PriorityLevel)
	return estimate, nil
}

func (s *Submitter) price(estimate fee.Estimate) uint64 {
	if s.opts.MaxMicroLamports > 0 && estimate.MicroLamports > s.opts.MaxMicroLamports {
		logx.Infof("[submit] clamping priority fee %d to %d", estimate.MicroLamports, s.opts.MaxMicroLamports)
		return s.opts.MaxMicroLamports
	}
	return estimate.MicroLamports
}

func (s *Submitter) sendAndConfirm(ctx context.Context, instructions []solana.Instruction, req Request, sent *[]solana.Signature) (solana.Signature, error) {
	latest, err := s.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("submit: get latest blockhash: %w", err)
	}

	tx, err := s.build(instructions, latest.Value.Blockhash, req)
	if err != nil {
		return solana.Signature{}, retry.Unrecoverable(err)
	}
	if _, err := tx.Sign(signerLookup(req)); err != nil {
		return solana.Signature{}, retry.Unrecoverable(fmt.Errorf("submit: sign: %w", err))
	}

	sig, err := s.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       s.opts.SkipPreflight,
		PreflightCommitment: s.opts.Commitment,
	})
	if err != nil {
		var rpcErr *jsonrpc.RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == preflightFailureCode {
			return solana.Signature{}, fmt.Errorf("%w: %s", ErrPreflightRejected, rpcErr.Message)
		}
		return solana.Signature{}, fmt.Errorf("submit: send: %w", err)
	}
	*sent = append(*sent, sig)
	logx.Infof("[submit] sent %s", sig)

	return sig, s.confirm(ctx, sig, latest.Value.LastValidBlockHeight)
}

func (s *Submitter) confirm(parent context.Context, sig solana.Signature, lastValidBlockHeight uint64) error {
	ctx, cancel := context.WithTimeout(parent, s.opts.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		out, err := s.rpc.GetSignatureStatuses(ctx, false, sig)
		if err == nil && out != nil && len(out.Value) > 0 && out.Value[0] != nil {
			status := out.Value[0]
			if status.Err != nil {
				return retry.Unrecoverable(fmt.Errorf("%w: %s: %v", ErrTransactionFailed, sig, status.Err))
			}
			if reached(status.ConfirmationStatus, s.opts.Commitment) {
				return nil
			}
		}

		if height, err := s.rpc.GetBlockHeight(ctx, rpc.CommitmentConfirmed); err == nil && height > lastValidBlockHeight {
			return fmt.Errorf("%w: %s", ErrBlockhashExpired, sig)
		}

		select {
		case <-ctx.Done():
			if err := parent.Err(); err != nil {
				return err
			}
			return fmt.Errorf("%w: %s", ErrConfirmTimeout, sig)
		case <-ticker.C:
		}
	}
}

// landed reports the first earlier signature that already reached the target commitment.
func (s *Submitter) landed(ctx context.Context, sent []solana.Signature) (solana.Signature, bool) {
	if len(sent) == 0 {
		return solana.Signature{}, false
	}
	out, err := s.rpc.GetSignatureStatuses(ctx, true, sent...)
	if err != nil || out == nil {
		return solana.Signature{}, false
	}
	for i, status := range out.Value {
		if i >= len(sent) || status == nil || status.Err != nil {
			continue
		}
		if reached(status.ConfirmationStatus, s.opts.Commitment) {
			return sent[i], true
		}
	}
	return solana.Signature{}, false
}

func (s *Submitter) build(instructions []solana.Instruction, blockhash solana.Hash, req Request) (*solana.Transaction, error) {
	opts := []solana.TransactionOption{solana.TransactionPayer(req.Payer.PublicKey())}
	if len(req.AddressTables) > 0 {
		opts = append(opts, solana.TransactionAddressTables(req.AddressTables))
	}
	tx, err := solana.NewTransaction(instructions, blockhash, opts...)
	if err != nil {
		return nil, fmt.Errorf("submit: build transaction: %w", err)
	}
	return tx, nil
}

// unsigned builds a transaction with zeroed signatures so it can be serialized for
// simulation and fee estimation.
func (s *Submitter) unsigned(instructions []solana.Instruction, blockhash solana.Hash, req Request) (*solana.Transaction, error) {
	tx, err := s.build(instructions, blockhash, req)
	if err != nil {
		return nil, err
	}
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	return tx, nil
}

func signerLookup(req Request) func(solana.PublicKey) *solana.PrivateKey {
	keys := make(map[solana.PublicKey]*solana.PrivateKey, len(req.Signers)+1)
	payer := req.Payer
	keys[payer.PublicKey()] = &payer
	for i := range req.Signers {
		keys[req.Signers[i].PublicKey()] = &req.Signers[i]
	}
	return func(key solana.PublicKey) *solana.PrivateKey {
		return keys[key]
	}
}

func reached(status rpc.ConfirmationStatusType, commitment rpc.CommitmentType) bool {
	switch commitment {
	case rpc.CommitmentFinalized:
		return status == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentProcessed:
		return status != ""
	default:
		return status == rpc.ConfirmationStatusConfirmed || status == rpc.ConfirmationStatusFinalized
	}
}

func retryable(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrTransactionFailed),
		errors.Is(err, ErrPreflightRejected):
		return false
	}
	return true
}
