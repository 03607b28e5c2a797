// Package middleware provides built-in middleware for the unillm client.
// Each constructor returns a [client.MiddlewareConfig] ready to be passed to
// [client.WithMiddleware].
//
//	c, err := client.New(registry,
//	    client.WithMiddleware(middleware.NewTimeoutMiddleware(30*time.Second)),
//	)
//
// Middlewares execute outermost-first: the first entry in WithMiddleware runs
// first on the way in and last on the way out.
package middleware
