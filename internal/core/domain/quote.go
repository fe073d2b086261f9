package domain

// Quote is a priced funding decision: the chosen wallet and the fee the
// caller must charge, consumed by the single dispatch that follows it.
// Attempt correlates the checkout and dispatch log lines of one payment.
type Quote struct {
	Attempt string
	Wallet  Wallet
	Fee     Amount
}
