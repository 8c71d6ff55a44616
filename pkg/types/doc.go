// Package types defines the Cabinet and Table interfaces, the business
// resource entities, filter and sort rules, and the standard error values
// shared by the storage backend, the HTTP API, and the client-side store.
package types
