package binance

import "context"

// SimulatedClient serves a fixed spot account so the dashboard works without
// exchange credentials. USDT is priced at parity; assets missing from the
// price table stay unpriced.
type SimulatedClient struct {
	balances []Balance
	prices   map[string]float64
}

// NewSimulatedClient returns a client with a representative spot account.
func NewSimulatedClient() *SimulatedClient {
	return &SimulatedClient{
		balances: []Balance{
			{Asset: "BTC", Free: 0.42, Locked: 0},
			{Asset: "ETH", Free: 3.5, Locked: 0.5},
			{Asset: "SOL", Free: 25, Locked: 0},
			{Asset: "USDT", Free: 1250.75, Locked: 0},
			{Asset: "DUST", Free: 0.0001, Locked: 0},
		},
		prices: map[string]float64{
			"BTC":  67250.0,
			"ETH":  3410.5,
			"SOL":  142.3,
			"USDT": 1.0,
		},
	}
}

func (c *SimulatedClient) Balances(_ context.Context) ([]Balance, error) {
	out := make([]Balance, len(c.balances))
	copy(out, c.balances)
	return out, nil
}

func (c *SimulatedClient) PriceUSDT(_ context.Context, asset string) (float64, bool, error) {
	price, ok := c.prices[asset]
	return price, ok, nil
}
