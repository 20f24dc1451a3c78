// Package chain talks to the indexer REST API used for balances, UTXOs,
// spent-output checks, broadcasts and the USD price.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/99minutos/apitoken-system/internal/core/domain"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("indexer returned %d: %s", e.Code, e.Body)
}

// RESTClient implements ports.Indexer, ports.Broadcaster and ports.PriceOracle.
type RESTClient struct {
	base  *url.URL
	token string
	http  *http.Client
}

func NewRESTClient(baseURL, token string, timeout time.Duration) (*RESTClient, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("indexer url: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &RESTClient{base: base, token: token, http: &http.Client{Timeout: timeout}}, nil
}

type balanceResponse struct {
	Success bool `json:"success"`
	Balance struct {
		Confirmed   int64 `json:"confirmed"`
		Unconfirmed int64 `json:"unconfirmed"`
	} `json:"balance"`
}

func (c *RESTClient) Balance(ctx context.Context, address string) (domain.Balance, error) {
	var res balanceResponse
	if err := c.get(ctx, &res, "electrumx", "balance", address); err != nil {
		return domain.Balance{}, err
	}
	if !res.Success {
		return domain.Balance{}, fmt.Errorf("balance of %s: indexer reported failure", address)
	}
	return domain.Balance{Confirmed: res.Balance.Confirmed, Unconfirmed: res.Balance.Unconfirmed}, nil
}

type utxosResponse struct {
	Success bool `json:"success"`
	UTXOs   []struct {
		Height int64  `json:"height"`
		TxHash string `json:"tx_hash"`
		TxPos  uint32 `json:"tx_pos"`
		Value  int64  `json:"value"`
	} `json:"utxos"`
}

func (c *RESTClient) UTXOs(ctx context.Context, address string) ([]domain.UTXO, error) {
	var res utxosResponse
	if err := c.get(ctx, &res, "electrumx", "utxos", address); err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("utxos of %s: indexer reported failure", address)
	}
	out := make([]domain.UTXO, 0, len(res.UTXOs))
	for _, u := range res.UTXOs {
		out = append(out, domain.UTXO{TxHash: u.TxHash, OutputIndex: u.TxPos, Value: u.Value})
	}
	return out, nil
}

// IsSpent asks the full node for the output. A null answer means it is no
// longer in the UTXO set.
func (c *RESTClient) IsSpent(ctx context.Context, txHash string, outputIndex uint32) (bool, error) {
	var res json.RawMessage
	if err := c.get(ctx, &res, "blockchain", "getTxOut", txHash, fmt.Sprint(outputIndex)); err != nil {
		return false, err
	}
	trimmed := bytes.TrimSpace(res)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")), nil
}

func (c *RESTClient) Submit(ctx context.Context, signedTxHex string) (string, error) {
	var res json.RawMessage
	if err := c.get(ctx, &res, "rawtransactions", "sendRawTransaction", signedTxHex); err != nil {
		return "", err
	}
	var txid string
	if err := json.Unmarshal(res, &txid); err == nil && txid != "" {
		return txid, nil
	}
	var txids []string
	if err := json.Unmarshal(res, &txids); err == nil && len(txids) > 0 {
		return txids[0], nil
	}
	return "", fmt.Errorf("unexpected broadcast response: %s", truncate(string(res)))
}

type priceResponse struct {
	USD json.Number `json:"usd"`
}

// FiatPrice returns the USD price of one whole coin. Only the indexer's
// native asset is priced.
func (c *RESTClient) FiatPrice(ctx context.Context, asset string) (decimal.Decimal, error) {
	var res priceResponse
	if err := c.get(ctx, &res, "price", "usd"); err != nil {
		return decimal.Zero, err
	}
	price, err := decimal.NewFromString(res.USD.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s price %q: %w", asset, res.USD, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s price must be positive, got %s", asset, price)
	}
	return price, nil
}

func (c *RESTClient) get(ctx context.Context, out any, segments ...string) error {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	ref, err := url.Parse(strings.Join(escaped, "/"))
	if err != nil {
		return err
	}
	endpoint := c.base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", segments[0]+"/"+segments[1], err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", segments[0], err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: truncate(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", segments[0], err)
	}
	return nil
}

func truncate(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
