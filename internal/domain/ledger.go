package domain

// DefaultLedgerSize bounds the notified-event ledger.
const DefaultLedgerSize = 50

// Ledger holds the most recent official-event IDs already reminded, oldest first.
type Ledger []string

func (l Ledger) Contains(id string) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Append adds ids and keeps only the newest limit entries.
func (l Ledger) Append(ids []string, limit int) Ledger {
	out := make(Ledger, 0, len(l)+len(ids))
	out = append(out, l...)
	out = append(out, ids...)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
