package asset

// Well-known assets quoted by the supported venues.
var (
	BTC  = NewAsset("BTC", "Bitcoin", 8, "bitcoin", "xbt")
	ETH  = NewAsset("ETH", "Ethereum", 18, "ethereum", "ether")
	DOGE = NewAsset("DOGE", "Dogecoin", 8, "dogecoin", "xdg")
	SOL  = NewAsset("SOL", "Solana", 9, "solana")
	ADA  = NewAsset("ADA", "Cardano", 6, "cardano")
)

// DefaultRegistry returns a registry pre-populated with the well-known assets.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range []*Asset{BTC, ETH, DOGE, SOL, ADA} {
		r.Register(a)
	}
	return r
}
