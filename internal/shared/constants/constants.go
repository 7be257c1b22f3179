package constants

const (
	// HTTP Headers
	HeaderContentType = "Content-Type"
	HeaderXRequestID  = "X-Request-ID"
	HeaderHookToken   = "X-Hook-Token"
	HeaderAdminToken  = "X-Admin-Token"

	ContentTypeJSON = "application/json"

	// Context keys
	ContextKeyRequestID = "request_id"

	// Database table names
	TableSubscriptions      = "subscriptions"
	TableChannelCredentials = "channel_credentials"
	TableInstances          = "instances"
	TablePaymentOrders      = "payment_orders"

	// Instance logs
	DefaultLogLimit = 100
	MaxLogLimit     = 1000

	ErrMsgInternalServerError = "Internal server error occurred"
)
