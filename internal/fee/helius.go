package fee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/valyala/fasthttp"
)

type PriorityLevel string

const (
	Min       PriorityLevel = "Min"
	Low       PriorityLevel = "Low"
	Medium    PriorityLevel = "Medium"
	High      PriorityLevel = "High"
	VeryHigh  PriorityLevel = "VeryHigh"
	UnsafeMax PriorityLevel = "UnsafeMax"

	defaultTimeout = 10 * time.Second
)

var ErrNoEstimate = errors.New("fee: no priority fee estimate returned")

// Estimate is a price per compute unit in micro-lamports and the time it was quoted.
type Estimate struct {
	MicroLamports uint64
	FetchedAt     time.Time
}

func (e Estimate) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("fee: rpc error %d: %s", e.Code, e.Message)
}

type estimateRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	Id      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type estimateParams struct {
	Transaction string          `json:"transaction"`
	Options     estimateOptions `json:"options"`
}

type estimateOptions struct {
	PriorityLevel PriorityLevel `json:"priorityLevel"`
}

type estimateResponse struct {
	Result *struct {
		PriorityFeeEstimate *float64 `json:"priorityFeeEstimate"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

// HeliusClient quotes priority fees through the getPriorityFeeEstimate JSON-RPC method.
type HeliusClient struct {
	url     string
	client  *fasthttp.Client
	timeout time.Duration
	now     func() time.Time
}

type Option func(*HeliusClient)

func WithHTTPClient(client *fasthttp.Client) Option {
	return func(c *HeliusClient) { c.client = client }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *HeliusClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *HeliusClient) { c.now = now }
}

func NewHeliusClient(url string, opts ...Option) *HeliusClient {
	c := &HeliusClient{
		url:     url,
		client:  &fasthttp.Client{},
		timeout: defaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HeliusClient) EstimatePriorityFee(ctx context.Context, tx *solana.Transaction, level PriorityLevel) (Estimate, error) {
	if err := ctx.Err(); err != nil {
		return Estimate{}, err
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return Estimate{}, fmt.Errorf("fee: serialize transaction: %w", err)
	}

	body, err := json.Marshal(estimateRequest{
		Jsonrpc: "2.0",
		Id:      "1",
		Method:  "getPriorityFeeEstimate",
		Params: []interface{}{
			estimateParams{
				Transaction: base58.Encode(raw),
				Options:     estimateOptions{PriorityLevel: level},
			},
		},
	})
	if err != nil {
		return Estimate{}, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return Estimate{}, fmt.Errorf("fee: request: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return Estimate{}, fmt.Errorf("fee: unexpected status %d", resp.StatusCode())
	}

	var out estimateResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return Estimate{}, fmt.Errorf("fee: decode response: %w", err)
	}
	if out.Error != nil {
		return Estimate{}, out.Error
	}
	if out.Result == nil || out.Result.PriorityFeeEstimate == nil {
		return Estimate{}, ErrNoEstimate
	}

	value := *out.Result.PriorityFeeEstimate
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return Estimate{}, fmt.Errorf("fee: invalid estimate %v", value)
	}

	return Estimate{
		MicroLamports: uint64(math.Ceil(value)),
		FetchedAt:     c.now(),
	}, nil
}
