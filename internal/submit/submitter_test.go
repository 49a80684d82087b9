package submit

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"vault-ops/internal/fee"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/logx"
)

var computeBudgetProgram = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

func TestMain(m *testing.M) {
	logx.Disable()
	os.Exit(m.Run())
}

type fakeRPC struct {
	mu sync.Mutex

	units  *uint64
	simErr interface{}

	// sendErrs[i] is returned by the i-th send, nil or missing means success.
	sendErrs []error
	// pending keeps confirm polling from seeing the signature; the history lookup still does.
	pending  bool
	chainErr interface{}

	blockhashes int
	simulated   []*solana.Transaction
	simOpts     []*rpc.SimulateTransactionOpts
	sent        []*solana.Transaction
}

func (f *fakeRPC) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blockhashes++
	var hash solana.Hash
	hash[0] = byte(f.blockhashes)
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{Blockhash: hash, LastValidBlockHeight: 1000},
	}, nil
}

func (f *fakeRPC) SimulateTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts *rpc.SimulateTransactionOpts) (*rpc.SimulateTransactionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.simulated = append(f.simulated, tx)
	f.simOpts = append(f.simOpts, opts)
	return &rpc.SimulateTransactionResponse{
		Value: &rpc.SimulateTransactionResult{UnitsConsumed: f.units, Err: f.simErr},
	}, nil
}

func (f *fakeRPC) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.sent)
	f.sent = append(f.sent, tx)
	if n < len(f.sendErrs) && f.sendErrs[n] != nil {
		return solana.Signature{}, f.sendErrs[n]
	}
	return tx.Signatures[0], nil
}

func (f *fakeRPC) GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &rpc.GetSignatureStatusesResult{}
	for range sigs {
		if f.pending && !searchTransactionHistory {
			out.Value = append(out.Value, nil)
			continue
		}
		out.Value = append(out.Value, &rpc.SignatureStatusesResult{
			Err:                f.chainErr,
			ConfirmationStatus: rpc.ConfirmationStatusConfirmed,
		})
	}
	return out, nil
}

func (f *fakeRPC) GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error) {
	return 10, nil
}

type fakeFees struct {
	mu       sync.Mutex
	estimate fee.Estimate
	next     *fee.Estimate
	err      error
	calls    int
	levels   []fee.PriorityLevel
}

func (f *fakeFees) EstimatePriorityFee(ctx context.Context, tx *solana.Transaction, level fee.PriorityLevel) (fee.Estimate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.levels = append(f.levels, level)
	if f.err != nil {
		return fee.Estimate{}, f.err
	}
	if f.calls > 1 && f.next != nil {
		return *f.next, nil
	}
	return f.estimate, nil
}

func units(n uint64) *uint64 { return &n }

func newPayer(t *testing.T) solana.PrivateKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key
}

func transfers(payer solana.PublicKey, n int) []solana.Instruction {
	out := make([]solana.Instruction, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, system.NewTransferInstruction(uint64(i+1), payer, solana.NewWallet().PublicKey()).Build())
	}
	return out
}

func fastOptions() Options {
	return Options{
		Backoff:        ConstantBackoff{},
		ConfirmTimeout: 30 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,
	}
}

func programOf(tx *solana.Transaction, ix solana.CompiledInstruction) solana.PublicKey {
	return tx.Message.AccountKeys[ix.ProgramIDIndex]
}

func TestSubmitAppendsLimitThenPrice(t *testing.T) {
	payer := newPayer(t)
	client := &fakeRPC{units: units(200_000)}
	fees := &fakeFees{estimate: fee.Estimate{MicroLamports: 5000, FetchedAt: time.Now()}}
	ixs := transfers(payer.PublicKey(), 3)

	res, err := New(client, fees, fastOptions()).Submit(context.Background(), Request{Instructions: ixs, Payer: payer})
	require.NoError(t, err)
	assert.Equal(t, uint32(220_000), res.ComputeUnitLimit)
	assert.Equal(t, uint64(5000), res.MicroLamports)
	assert.Equal(t, uint(1), res.Attempts)
	assert.Len(t, ixs, 3)

	require.Len(t, client.sent, 1)
	final := client.sent[0]
	require.Len(t, final.Message.Instructions, 5)
	for i := 0; i < 3; i++ {
		data, err := ixs[i].Data()
		require.NoError(t, err)
		assert.Equal(t, solana.SystemProgramID, programOf(final, final.Message.Instructions[i]))
		assert.Equal(t, data, []byte(final.Message.Instructions[i].Data))
	}

	limit := final.Message.Instructions[3]
	assert.Equal(t, computeBudgetProgram, programOf(final, limit))
	require.Len(t, limit.Data, 5)
	assert.Equal(t, byte(2), limit.Data[0])
	assert.Equal(t, uint32(220_000), binary.LittleEndian.Uint32(limit.Data[1:]))

	price := final.Message.Instructions[4]
	assert.Equal(t, computeBudgetProgram, programOf(final, price))
	require.Len(t, price.Data, 9)
	assert.Equal(t, byte(3), price.Data[0])
	assert.Equal(t, uint64(5000), binary.LittleEndian.Uint64(price.Data[1:]))

	assert.Equal(t, res.Signature, final.Signatures[0])
	assert.Equal(t, []fee.PriorityLevel{fee.High}, fees.levels)
}

func TestSubmitSimulatesDraftWithMaxLimit(t *testing.T) {
	payer := newPayer(t)
	client := &fakeRPC{units: units(50_000)}
	fees := &fakeFees{estimate: fee.Estimate{MicroLamports: 1, FetchedAt: time.Now()}}

	_, err := New(client, fees, fastOptions()).Submit(context.Background(), Request{Instructions: transfers(payer.PublicKey(), 2), Payer: payer})
	require.NoError(t, err)

	require.Len(t, client.simulated, 1)
	draft := client.simulated[0]
	require.Len(t, draft.Message.Instructions, 3)
	first := draft.Message.Instructions[0]
	assert.Equal(t, computeBudgetProgram, programOf(draft, first))
	assert.Equal(t, MaxComputeUnits, binary.LittleEndian.Uint32(first.Data[1:]))
	assert.False(t, client.simOpts[0].SigVerify)
	assert.True(t, client.simOpts[0].ReplaceRecentBlockhash)
}

func TestSubmitFailsFastWithoutUnitsConsumed(t *testing.T) {
	payer := newPayer(t)
	client := &fakeRPC{}
	fees := &fakeFees{estimate: fee.Estimate{MicroLamports: 1}}

	_, err := New(client, fees, fastOptions()).Submit(context.Background(), Request{Instructions: transfers(payer.PublicKey(), 1), Payer: payer})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoUnitsConsumed))
	assert.Equal(t, 0, fees.calls)
	assert.Empty(t, client.sent)
}

func TestSubmitFailsOnSimulationError(t *testing.T) {
	payer := newPayer(t)
	client := &fakeRPC{units: units(1200), simErr: map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}}
	fees := &fakeFees{}

	_, err := New(client, fees, fastOptions()).Submit(context.Background(), Request{Instructions: transfers(payer.PublicKey(), 1), Payer: payer})
	assert.True(t, errors.Is(err, ErrSimulationFailed))
	assert.Equal(t, 0, fees.calls)
}

func TestSubmitFailsFastWithoutFeeEstimate(t *testing.T) {
	payer := newPayer(t)
	client := &fakeRPC{units: units(10_000)}
	fees := &fakeFees{err: fee.ErrNoEstimate}

	_, err := New(client, fees, fastOptions()).Submit(context.Background(), Request{Instructions: transfers(payer.PublicKey(), 1), Payer: payer})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoFeeEstimate))
	assert.Empty(t, client.sent)
}

func TestSubmitRejectsEmptyInstructions(t *testing.T) {
	client := &fakeRPC{units: units(1)}
	_, err := New(client, &fakeFees{}, fastOptions()).Submit(context.Background(), Request{Payer: newPayer(t)})
	assert.Equal(t, ErrNoInstructions, err)
	assert.Empty(t, client.simulated)
}

func TestSubmitStopsAfterMaxAttempts(t *testing.T) {
	payer := newPayer(t)
	boom := errors.New("connection reset")
	client := &fakeRPC{units: units(10_000), sendErrs: []error{boom, boom, boom, boom, boom, boom, boom, boom}}
	fees := &fakeFees{estimate: fee.Estimate{MicroLamports: 1, FetchedAt: time.Now()}}

	opts := fastOptions()
	opts.MaxAttempts = 0 // default of 5
	_, err := New(client, fees, opts).Submit(context.Background(), Request{Instructions: transfers(payer.PublicKey(), 1), Payer: payer})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRetriesExhausted))
	assert.Len(t, client.sent, 5)
}

func TestSubmitBackoffCanGiveUpEarly(t *testing.T) {
	payer := newPayer(t)
	boom := errors.New("connection reset")
	client := &fakeRPC{units: units(10_000), sendErrs: []error{boom, boom, boom, boom, boom}}
	fees := &fakeFees{estimate: fee.Estimate{MicroLamports: 1, FetchedAt: time.Now()}}

	opts := fastOptions()
	opts.Backoff = ExponentialBackoff{Base: time.Millisecond, MaxAttempts: 2}
	_, err := New(client, fees, opts).Submit(context.Background(), Request{Instructions: transfers(payer.PublicKey(), 1), Payer: payer})
	assert.True(t, errors.Is(err, ErrRetriesExhausted))
	assert.Len(t, client.sent, 2)
}

func TestSubmitResignsWithFreshBlockhash(t *testing.T) {
	payer := newPayer(t)
	boom := errors.New("node is behind")
	client := &fakeRPC{units: units(10_000), sendErrs: []error{boom, boom}}
	fees := &fakeFees{estimate: fee.Estimate{MicroLamports: 7, FetchedAt: time.Now()}}

	res, err := New(client, fees, fastOptions()).Submit(context.Background(), Request{Instructions: transfers(payer.PublicKey(), 2), Payer: payer})
	require.NoError(t, err)
	assert.Equal(t, uint(3), res.Attempts)
	require.Len(t, client.sent, 3)
	assert.NotEqual(t, client.sent[0].Message.RecentBlockhash, client.sent[1].Message.RecentBlockhash)
	assert.NotEqual(t, client.sent[1].Message.RecentBlockhash, client.sent[2].Message.RecentBlockhash)
	assert.Equal(t, 1, fees.calls)
}

func TestSubmitReturnsEarlierSignatureThatLanded(t *testing.T) {
	payer := newPayer(t)
	client := &fakeRPC{units: units(10_000), pending: true}
	fees := &fakeFees{estimate: fee.Estimate{MicroLamports: 1, FetchedAt: time.Now()}}

	res, err := New(client, fees, fastOptions()).Submit(context.Background(), Request{Instructions: transfers(payer.PublicKey(), 1), Payer: payer})
	require.NoError(t, err)
	require.Len(t, client.sent, 1)
	assert.Equal(t, client.sent[0].Signatures[0], res.Signature)
	assert.Equal(t, uint(2), res.Attempts)
}

func TestSubmitDoesNotRetryOnChainFailure(t *testing.T) {
	payer := newPayer(t)
	client := &fakeRPC{units: units(10_000), chainErr: map[string]interface{}{"InstructionError": []interface{}{1, "Custom"}}}
	fees := &fakeFees{estimate: fee.Estimate{MicroLamports: 1, FetchedAt: time.Now()}}

	_, err := New(client, fees, fastOptions()).Submit(context.Background(), Request{Instructions: transfers(payer.PublicKey(), 1), Payer: payer})
	assert.True(t, errors.Is(err, ErrTransactionFailed))
	assert.False(t, errors.Is(err, ErrRetriesExhausted))
	assert.Len(t, client.sent, 1)
}

func TestSubmitDoesNotRetryPreflightRejection(t *testing.T) {
	payer := newPayer(t)
	rejected := &jsonrpc.RPCError{Code: -32002, Message: "Transaction simulation failed"}
	client := &fakeRPC{units: units(10_000), sendErrs: []error{rejected, rejected}}
	fees := &fakeFees{estimate: fee.Estimate{MicroLamports: 1, FetchedAt: time.Now()}}

	_, err := New(client, fees, fastOptions()).Submit(context.Background(), Request{Instructions: transfers(payer.PublicKey(), 1), Payer: payer})
	assert.True(t, errors.Is(err, ErrPreflightRejected))
	assert.Len(t, client.sent, 1)
}

func TestSubmitRequotesStaleEstimate(t *testing.T) {
	payer := newPayer(t)
	client := &fakeRPC{units: units(10_000)}
	quotedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fees := &fakeFees{
		estimate: fee.Estimate{MicroLamports: 100, FetchedAt: quotedAt},
		next:     &fee.Estimate{MicroLamports: 900, FetchedAt: quotedAt.Add(time.Minute)},
	}

	opts := fastOptions()
	opts.MaxFeeAge = 10 * time.Second
	s := New(client, fees, opts)
	s.now = func() time.Time { return quotedAt.Add(time.Minute) }

	res, err := s.Submit(context.Background(), Request{Instructions: transfers(payer.PublicKey(), 1), Payer: payer})
	require.NoError(t, err)
	assert.Equal(t, 2, fees.calls)
	assert.Equal(t, uint64(900), res.MicroLamports)

	final := client.sent[0]
	price := final.Message.Instructions[len(final.Message.Instructions)-1]
	assert.Equal(t, uint64(900), binary.LittleEndian.Uint64(price.Data[1:]))
}

func TestSubmitClampsFee(t *testing.T) {
	payer := newPayer(t)
	client := &fakeRPC{units: units(10_000)}
	fees := &fakeFees{estimate: fee.Estimate{MicroLamports: 1_000_000, FetchedAt: time.Now()}}

	opts := fastOptions()
	opts.MaxMicroLamports = 50_000
	res, err := New(client, fees, opts).Submit(context.Background(), Request{Instructions: transfers(payer.PublicKey(), 1), Payer: payer})
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000), res.MicroLamports)
}

func TestSubmitSignsWithCoSigners(t *testing.T) {
	payer := newPayer(t)
	account := newPayer(t)
	create := system.NewCreateAccountInstruction(1_000_000, 165, solana.TokenProgramID, payer.PublicKey(), account.PublicKey()).Build()

	client := &fakeRPC{units: units(3_000)}
	fees := &fakeFees{estimate: fee.Estimate{MicroLamports: 1, FetchedAt: time.Now()}}

	_, err := New(client, fees, fastOptions()).Submit(context.Background(), Request{
		Instructions: []solana.Instruction{create},
		Payer:        payer,
		Signers:      []solana.PrivateKey{account},
	})
	require.NoError(t, err)

	final := client.sent[0]
	require.Len(t, final.Signatures, 2)
	assert.Equal(t, payer.PublicKey(), final.Message.AccountKeys[0])
	for _, sig := range final.Signatures {
		assert.False(t, sig.IsZero())
	}
}

func TestSubmitHonoursContextCancellation(t *testing.T) {
	payer := newPayer(t)
	client := &fakeRPC{units: units(10_000), pending: true}
	fees := &fakeFees{estimate: fee.Estimate{MicroLamports: 1, FetchedAt: time.Now()}}

	opts := fastOptions()
	opts.ConfirmTimeout = time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := New(client, fees, opts).Submit(ctx, Request{Instructions: transfers(payer.PublicKey(), 1), Payer: payer})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Len(t, client.sent, 1)
}
