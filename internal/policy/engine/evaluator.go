package engine

import "context"

// Input is the request description evaluated by the authorization policy.
type Input struct {
	Method  string // gRPC full method name
	Subject string // user id from the access token; empty when unauthenticated
	Role    string
}

// Evaluator decides whether a request may proceed.
type Evaluator interface {
	Allow(ctx context.Context, in Input) (bool, error)
}
