package events

// Topic constants for domain events emitted by the bakery backend.
const (
	TopicOrderCreated    = "order.created"
	TopicVoucherRedeemed = "voucher.redeemed"
	TopicCartMerged      = "cart.merged"
)
