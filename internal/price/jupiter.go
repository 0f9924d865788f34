package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	solana "github.com/gagliardetto/solana-go"
)

// Jupiter fetches spot prices from the Jupiter price v2 API.
type Jupiter struct {
	Base string
	Http *http.Client
}

func NewJupiter(base string) *Jupiter {
	return &Jupiter{
		Base: base,
		Http: &http.Client{Timeout: 8 * time.Second},
	}
}

type jupiterPriceResponse struct {
	Data map[string]struct {
		Price string `json:"price"`
	} `json:"data"`
}

func (j *Jupiter) Price(ctx context.Context, mint solana.PublicKey) (float64, error) {
	q := url.Values{}
	q.Set("ids", mint.String())
	u := j.Base + "/price/v2?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	resp, err := j.Http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("jupiter price status %d", resp.StatusCode)
	}

	var payload jupiterPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	entry, ok := payload.Data[mint.String()]
	if !ok || entry.Price == "" {
		return 0, fmt.Errorf("no price for mint %s", mint)
	}
	px, err := strconv.ParseFloat(entry.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", entry.Price, err)
	}
	return px, nil
}
