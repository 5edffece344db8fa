package main

import (
	"net/http"
	"time"
)

// Web-search-grounded requests routinely run tens of seconds, so the
// outbound timeout is generous.
const defaultExternalHTTPTimeout = 120 * time.Second

var externalHTTPClient = &http.Client{
	Timeout: defaultExternalHTTPTimeout,
}

// configureExternalHTTPClient applies the configured timeout. Zero or
// negative values keep the default.
func configureExternalHTTPClient(seconds int) {
	if seconds > 0 {
		externalHTTPClient.Timeout = time.Duration(seconds) * time.Second
	}
}
