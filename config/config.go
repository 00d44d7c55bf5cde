package config

import (
	"time"

	"github.com/indigo-web/duplex/http/headers"
)

type (
	// Bounds limits the length of a single token in bytes, both ends inclusive.
	Bounds struct {
		Min, Max int
	}

	RequestLine struct {
		Method  Bounds
		URI     Bounds
		Version Bounds
	}

	StatusLine struct {
		Version Bounds
		Code    Bounds
		Message Bounds `test:"nullable"`
	}
)

type (
	NET struct {
		// BufferSize is the size of both fixed local buffers of a connection. A single read
		// never returns more than that, and a single write never flushes more than that.
		BufferSize int
		// AccumulatorSize caps the growable read and write accumulators sitting above the
		// local buffers. Writes exceeding it are postponed until the peer drains the data.
		AccumulatorSize int
		// AcceptLoopInterruptPeriod controls how often will the Accept() call be interrupted
		// in order to check whether it's time to stop. Defaults to 5 seconds.
		AcceptLoopInterruptPeriod time.Duration
		// AcceptErrorsLimit is the number of consecutive accept errors after which the
		// listener gives up.
		AcceptErrorsLimit int
		// ResolveTimeout bounds a single name resolution.
		ResolveTimeout time.Duration
		// Multicore runs one event loop per CPU core unless NumEventLoop is set.
		Multicore bool
		// NumEventLoop overrides the number of event loops. Zero leaves it up to the
		// event engine.
		NumEventLoop int `test:"nullable"`
	}

	Flow struct {
		// MinRead is the minimal acceptable average read throughput in bytes per minute.
		// Connections falling below it get closed. Zero disables the check.
		MinRead uint64 `test:"nullable"`
		// MinWrite is the same as MinRead, but for the write side.
		MinWrite uint64 `test:"nullable"`
		// Bucket is the sampling period.
		Bucket time.Duration
		// Window is the number of samples the moving average saturates at. With the
		// default bucket of 3 seconds, 20 steps cover a minute.
		Window int
	}

	HTTP struct {
		RequestLine RequestLine
		StatusLine  StatusLine
		// HeaderName limits the length of a header name.
		HeaderName Bounds
		// HeaderLine limits the length of a whole header line, excluding the CRLF.
		HeaderLine int
		// MaxBodySize limits the declared content-length and the decoded length of
		// chunked bodies.
		MaxBodySize int
	}

	Headers struct {
		// Policies override the default per-name header policies. Names must be
		// lower-cased.
		Policies map[string]headers.Policy `test:"nullable"`
	}
)

// Config holds settings used across various parts of duplex, mainly restrictions, limitations
// and the flow monitor.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors.
type Config struct {
	NET     NET
	Flow    Flow
	HTTP    HTTP
	Headers Headers
}

// Default returns default config.
func Default() *Config {
	return &Config{
		NET: NET{
			BufferSize:                1024,
			AccumulatorSize:           1024 * 1024,
			AcceptLoopInterruptPeriod: 5 * time.Second,
			AcceptErrorsLimit:         8,
			ResolveTimeout:            60 * time.Second,
			Multicore:                 true,
		},
		Flow: Flow{
			Bucket: 3 * time.Second,
			Window: 20,
		},
		HTTP: HTTP{
			RequestLine: RequestLine{
				Method:  Bounds{Min: 3, Max: 10},
				URI:     Bounds{Min: 1, Max: 10000},
				Version: Bounds{Min: 1, Max: 10},
			},
			StatusLine: StatusLine{
				Version: Bounds{Min: 1, Max: 10},
				Code:    Bounds{Min: 3, Max: 4},
				Message: Bounds{Min: 0, Max: 1000},
			},
			HeaderName:  Bounds{Min: 3, Max: 100},
			HeaderLine:  10000,
			MaxBodySize: 64 * 1024 * 1024,
		},
		Headers: Headers{
			Policies: make(map[string]headers.Policy),
		},
	}
}
