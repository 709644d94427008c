package probe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Response is what a probe observed when the full response arrived.
type Response struct {
	StatusCode int
	Duration   time.Duration // request start to end of body
}

// Classify maps one probe attempt to exactly one Outcome:
//
//	response received        -> status, none, latency (nearest ms)
//	timeout                  -> 408, timeout
//	proxy dial failed        -> 503, connection
//	anything else            -> 503, other
func Classify(target string, resp *Response, err error) Outcome {
	out := Outcome{Target: target}
	switch {
	case err == nil && resp != nil:
		ms := resp.Duration.Round(time.Millisecond).Milliseconds()
		out.StatusCode = resp.StatusCode
		out.Error = TagNone
		out.LatencyMs = &ms
	case err == nil:
		out.StatusCode = http.StatusServiceUnavailable
		out.Error = TagOther
		out.Detail = "no response"
	case isTimeout(err):
		out.StatusCode = http.StatusRequestTimeout
		out.Error = TagTimeout
	case isProxyConnect(err):
		out.StatusCode = http.StatusServiceUnavailable
		out.Error = TagConnection
	default:
		out.StatusCode = http.StatusServiceUnavailable
		out.Error = TagOther
		out.Detail = err.Error()
	}
	return out
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// net/http wraps failures to reach the proxy itself in a "proxyconnect"
// OpError.
func isProxyConnect(err error) bool {
	var op *net.OpError
	return errors.As(err, &op) && op.Op == "proxyconnect"
}
