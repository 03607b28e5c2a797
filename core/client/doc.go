// Package client dispatches canonical requests to the provider registered
// for request.Provider and threads every call through a middleware chain.
//
// The primary entry point is [New], which accepts an [ai.Registry] and a set
// of functional options ([WithObserver], [WithMetrics], [WithMiddleware],
// [WithDefaultModel]). [Client.Generate] returns a single result and
// [Client.Stream] returns a canonical chunk stream.
package client
