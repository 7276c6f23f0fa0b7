package market

import (
	"github.com/shopspring/decimal"
)

// AccountContext is a point-in-time snapshot of what the trader can spend in
// one mode. The engine never mutates it and never refreshes it.
type AccountContext struct {
	Mode         Mode
	Balance      decimal.Decimal // quote currency
	AssetBalance decimal.Decimal // base asset, used for sell-side checks
}

func (a AccountContext) Validate() error {
	if a.Mode != Practice && a.Mode != Real {
		return inputErr("mode", "mode must be practice or real, got %q", a.Mode)
	}
	if a.Balance.IsNegative() {
		return inputErr("balance", "balance must not be negative, got %s", a.Balance)
	}
	if a.AssetBalance.IsNegative() {
		return inputErr("assetBalance", "asset balance must not be negative, got %s", a.AssetBalance)
	}
	return nil
}
