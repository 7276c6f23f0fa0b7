// market/instruments.go
package market

import "strings"

// quoteSuffixes is checked in order; quotes ending in USD come before USD so
// "ETHBUSD" splits as ETH/BUSD.
var quoteSuffixes = []string{"USDT", "USDC", "BUSD", "FDUSD", "USD", "EUR", "GBP", "JPY", "BTC", "ETH"}

// SplitSymbol returns the base and quote assets of a symbol. Separated forms
// ("EUR_USD", "BTC/USDT", "ETH-USD") are split on the separator; compact
// forms ("BTCUSDT") are split on a known quote suffix.
func SplitSymbol(symbol string) (base, quote string) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, sep := range []string{"_", "/", "-"} {
		if i := strings.Index(s, sep); i > 0 {
			return s[:i], s[i+1:]
		}
	}
	for _, q := range quoteSuffixes {
		if len(s) > len(q) && strings.HasSuffix(s, q) {
			return strings.TrimSuffix(s, q), q
		}
	}
	return s, ""
}

// BaseAsset returns the asset whose balance limits a sell.
func BaseAsset(symbol string) string {
	base, _ := SplitSymbol(symbol)
	return base
}
