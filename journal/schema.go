package journal

// Prices and quantities are stored as decimal text so they round-trip exactly.
const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	order_id TEXT PRIMARY KEY,
	candidate_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	kind TEXT NOT NULL,
	mode TEXT NOT NULL,
	quantity TEXT NOT NULL,
	entry_price TEXT NOT NULL,
	stop_loss TEXT NOT NULL,
	take_profit TEXT NOT NULL,
	notional TEXT NOT NULL,
	dollar_risk TEXT NOT NULL,
	rr TEXT NOT NULL,
	risk_pct TEXT NOT NULL,
	accepted_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_accepted_at ON orders(accepted_at);
CREATE INDEX IF NOT EXISTS idx_orders_symbol ON orders(symbol);
`
