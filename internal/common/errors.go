package common

type ErrorCode string
type ErrorMessage string

const (
	ErrCodeConfigLoadFailed          ErrorCode = "CONFIG_LOAD_FAILED"
	ErrCodeGRPCConnectionFailed      ErrorCode = "GRPC_CONNECTION_FAILED"
	ErrCodeGRPCServeFailed           ErrorCode = "GRPC_SERVE_FAILED"
	ErrCodeHTTPServeFailed           ErrorCode = "HTTP_SERVE_FAILED"
	ErrCodeUniverseFetchFailed       ErrorCode = "UNIVERSE_FETCH_FAILED"
	ErrCodeRankFetchFailed           ErrorCode = "RANK_FETCH_FAILED"
	ErrCodeUnknownExchange           ErrorCode = "UNKNOWN_EXCHANGE"
	ErrCodeSymbolPanic               ErrorCode = "SYMBOL_PANIC"
	ErrCodeCacheReadFailed           ErrorCode = "CACHE_READ_FAILED"
	ErrCodeCacheWriteFailed          ErrorCode = "CACHE_WRITE_FAILED"
	ErrCodeChannelFull               ErrorCode = "CHANNEL_FULL"
	ErrCodeStreamClosed              ErrorCode = "STREAM_CLOSED"
	ErrCodeWebsocketFailed           ErrorCode = "WEBSOCKET_FAILED"
	ErrCodeRefreshScheduleFailed     ErrorCode = "REFRESH_SCHEDULE_FAILED"
	ErrCodeGRPCConnectionCloseFailed ErrorCode = "GRPC_CONNECTION_CLOSE_FAILED"
)

const (
	ErrMsgConfigLoadFailed          ErrorMessage = "Failed to load configuration"
	ErrMsgGRPCConnectionFailed      ErrorMessage = "Failed to connect to gRPC server"
	ErrMsgGRPCServeFailed           ErrorMessage = "Failed to serve gRPC"
	ErrMsgHTTPServeFailed           ErrorMessage = "Failed to serve HTTP"
	ErrMsgUniverseFetchFailed       ErrorMessage = "Failed to fetch symbol universe"
	ErrMsgRankFetchFailed           ErrorMessage = "Failed to fetch market cap ranks"
	ErrMsgUnknownExchange           ErrorMessage = "Unknown exchange, using default"
	ErrMsgSymbolPanic               ErrorMessage = "Recovered from panic while scanning symbol"
	ErrMsgCacheReadFailed           ErrorMessage = "Failed to read cache file"
	ErrMsgCacheWriteFailed          ErrorMessage = "Failed to write cache file"
	ErrMsgChannelFull               ErrorMessage = "Channel is full, message dropped"
	ErrMsgStreamClosed              ErrorMessage = "Stream closed"
	ErrMsgWebsocketFailed           ErrorMessage = "WebSocket connection failed"
	ErrMsgRefreshScheduleFailed     ErrorMessage = "Failed to schedule refresh job"
	ErrMsgGRPCConnectionCloseFailed ErrorMessage = "failed to close gRPC connection"
)

func (e ErrorCode) String() string {
	return string(e)
}

func (m ErrorMessage) String() string {
	return string(m)
}

// SkipReason explains why a symbol produced no signal during a scan.
type SkipReason string

const (
	SkipNone             SkipReason = ""
	SkipFetchFailed      SkipReason = "fetch_failed"
	SkipInsufficientData SkipReason = "insufficient_data"
	SkipNoSignal         SkipReason = "no_signal"
	SkipFiltered         SkipReason = "filtered"
	SkipPanic            SkipReason = "panic"
)

func (r SkipReason) String() string {
	return string(r)
}
