package domain

// ==== Wire Constants ====

// MaxMessageSize is the maximum allowed WebSocket frame size in bytes
const MaxMessageSize = 4096

// MaxContentLength is the maximum length of a direct message body
const MaxContentLength = 2000

// MaxIdentityLength is the maximum length of an identity handle
const MaxIdentityLength = 128

// MaxActivityLength is the maximum length of an activity status string
const MaxActivityLength = 256

// ==== Rate Limit Constants ====

const (
	// DefaultRateLimitAPI is the default rate limit for API endpoints (requests/sec)
	DefaultRateLimitAPI = 10

	// DefaultRateLimitWS is the default rate limit for WebSocket upgrades (req/sec)
	DefaultRateLimitWS = 5

	// DefaultClientEventRate is the per-connection inbound event budget (events/sec)
	DefaultClientEventRate = 20
)

// ==== Buffer Constants ====

const (
	// SendBufferSize is the per-connection outbound queue length
	SendBufferSize = 256

	// DefaultHistoryLimit caps a single conversation history read
	DefaultHistoryLimit = 100
)
