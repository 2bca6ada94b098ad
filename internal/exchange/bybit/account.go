package bybit

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetAvailableBalance returns the tradable balance of a coin in the unified
// account
func (c *Client) GetAvailableBalance(ctx context.Context, coin string) (float64, error) {
	params := map[string]interface{}{
		"accountType": "UNIFIED",
		"coin":        coin,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetAccountWallet(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get wallet balance: %w", err)
	}

	resultBytes, err := unwrapResult(result)
	if err != nil {
		return 0, err
	}

	var walletResult struct {
		List []struct {
			TotalAvailableBalance string `json:"totalAvailableBalance"`
			Coin                  []struct {
				Coin          string `json:"coin"`
				WalletBalance string `json:"walletBalance"`
				Equity        string `json:"equity"`
			} `json:"coin"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &walletResult); err != nil {
		return 0, fmt.Errorf("failed to unmarshal wallet result: %w", err)
	}
	if len(walletResult.List) == 0 {
		return 0, fmt.Errorf("no account data found")
	}

	account := walletResult.List[0]
	for _, entry := range account.Coin {
		if entry.Coin == coin {
			return parseFloat64(entry.WalletBalance), nil
		}
	}
	return parseFloat64(account.TotalAvailableBalance), nil
}
