// Package auth provides API key checks for the pskrmon serving surfaces.
//
// APIKeyInterceptor(mode, header, key) guards the gRPC health service by
// reading the key from the named metadata header. Middleware(mode, header, key)
// guards the HTTP API the same way using a request header, or the api_key
// query parameter for browser WebSocket clients that cannot set headers.
//
// When mode != "apikey" or key == "", everything passes through.
package auth
