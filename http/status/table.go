package status

import "strconv"

// Table maps status codes to their reason phrases. It must not be modified after it
// was handed out, so it can be shared between connections.
type Table map[Code]Status

// DefaultTable returns the IANA registry together with widely seen vendor extensions.
// Where a vendor code collides with a registered one, the registered phrase wins.
func DefaultTable() Table {
	return Table{
		Continue:                      "Continue",
		SwitchingProtocols:            "Switching Protocols",
		Processing:                    "Processing",
		EarlyHints:                    "Early Hints",
		OK:                            "OK",
		Created:                       "Created",
		Accepted:                      "Accepted",
		NonAuthoritativeInfo:          "Non-Authoritative Information",
		NoContent:                     "No Content",
		ResetContent:                  "Reset Content",
		PartialContent:                "Partial Content",
		MultiStatus:                   "Multi-Status",
		AlreadyReported:               "Already Reported",
		IMUsed:                        "IM Used",
		MultipleChoices:               "Multiple Choices",
		MovedPermanently:              "Moved Permanently",
		Found:                         "Found",
		SeeOther:                      "See Other",
		NotModified:                   "Not Modified",
		UseProxy:                      "Use Proxy",
		306:                           "Switch Proxy",
		TemporaryRedirect:             "Temporary Redirect",
		PermanentRedirect:             "Permanent Redirect",
		BadRequest:                    "Bad Request",
		Unauthorized:                  "Unauthorized",
		PaymentRequired:               "Payment Required",
		Forbidden:                     "Forbidden",
		NotFound:                      "Not Found",
		MethodNotAllowed:              "Method Not Allowed",
		NotAcceptable:                 "Not Acceptable",
		ProxyAuthRequired:             "Proxy Authentication Required",
		RequestTimeout:                "Request Timeout",
		Conflict:                      "Conflict",
		Gone:                          "Gone",
		LengthRequired:                "Length Required",
		PreconditionFailed:            "Precondition Failed",
		RequestEntityTooLarge:         "Payload Too Large",
		RequestURITooLong:             "URI Too Long",
		UnsupportedMediaType:          "Unsupported Media Type",
		RequestedRangeNotSatisfiable:  "Range Not Satisfiable",
		ExpectationFailed:             "Expectation Failed",
		Teapot:                        "I'm a teapot",
		MethodFailure:                 "Method Failure",
		MisdirectedRequest:            "Misdirected Request",
		UnprocessableEntity:           "Unprocessable Entity",
		Locked:                        "Locked",
		FailedDependency:              "Failed Dependency",
		TooEarly:                      "Too Early",
		UpgradeRequired:               "Upgrade Required",
		PreconditionRequired:          "Precondition Required",
		TooManyRequests:               "Too Many Requests",
		RequestHeaderFieldsTooLarge:   "Request Header Fields Too Large",
		LoginTimeout:                  "Login Time-out",
		NoResponse:                    "No Response",
		RetryWith:                     "Retry With",
		BlockedByParentalControls:     "Blocked by Windows Parental Controls",
		UnavailableForLegalReasons:    "Unavailable For Legal Reasons",
		SSLCertificateError:           "SSL Certificate Error",
		SSLCertificateRequired:        "SSL Certificate Required",
		HTTPRequestSentToHTTPSPort:    "HTTP Request Sent to HTTPS Port",
		InvalidToken:                  "Invalid Token",
		TokenRequired:                 "Token Required",
		InternalServerError:           "Internal Server Error",
		NotImplemented:                "Not Implemented",
		BadGateway:                    "Bad Gateway",
		ServiceUnavailable:            "Service Unavailable",
		GatewayTimeout:                "Gateway Timeout",
		HTTPVersionNotSupported:       "HTTP Version Not Supported",
		VariantAlsoNegotiates:         "Variant Also Negotiates",
		InsufficientStorage:           "Insufficient Storage",
		LoopDetected:                  "Loop Detected",
		BandwidthLimitExceeded:        "Bandwidth Limit Exceeded",
		NotExtended:                   "Not Extended",
		NetworkAuthenticationRequired: "Network Authentication Required",
		WebServerUnknownError:         "Unknown Error",
		WebServerIsDown:               "Web Server Is Down",
		ConnectionTimedOut:            "Connection Timed Out",
		OriginIsUnreachable:           "Origin Is Unreachable",
		TimeoutOccurred:               "A Timeout Occurred",
		SSLHandshakeFailed:            "SSL Handshake Failed",
		InvalidSSLCertificate:         "Invalid SSL Certificate",
		RailgunError:                  "Railgun Error",
		SiteIsFrozen:                  "Site is frozen",
		NetworkReadTimeoutError:       "Network read timeout error",
		NetworkConnectTimeoutError:    "Network connect timeout error",
	}
}

// Text returns the reason phrase of the code, or an empty string if it's unknown.
func (t Table) Text(code Code) Status {
	return t[code]
}

// StringCode returns the code as a decimal string.
func StringCode(code Code) string {
	return strconv.FormatUint(uint64(code), 10)
}
