package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const policyQuery = "data.session_auth.authz.allow"

// DefaultPolicy allows public methods for everyone, admin methods for role ADMIN and every
// other method for any authenticated subject.
const DefaultPolicy = `package session_auth.authz

default allow := false

public_methods := {
	"/auth.v1.AuthService/Register",
	"/auth.v1.AuthService/Login",
	"/auth.v1.AuthService/Refresh",
	"/grpc.health.v1.Health/Check",
	"/grpc.health.v1.Health/List",
	"/grpc.health.v1.Health/Watch",
}

admin_methods := {
	"/auth.v1.AuthService/RevokeUserSessions",
	"/auth.v1.AuthService/DeleteUser",
	"/auth.v1.AuthService/RestoreUser",
	"/auth.v1.AuthService/ListUserAuditLogs",
}

allow if {
	input.method in public_methods
}

allow if {
	not input.method in public_methods
	not input.method in admin_methods
	input.subject != ""
}

allow if {
	input.method in admin_methods
	input.subject != ""
	input.role == "ADMIN"
}
`

// OPAEvaluator evaluates the authorization policy with an in-process OPA Rego engine.
// The query is prepared once; Allow is safe for concurrent use.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles module (DefaultPolicy when empty) and prepares the allow query.
func NewOPAEvaluator(ctx context.Context, module string) (*OPAEvaluator, error) {
	if module == "" {
		module = DefaultPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"authz.rego": module})
	if err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}
	q, err := rego.New(
		rego.Query(policyQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy: %w", err)
	}
	return &OPAEvaluator{query: q}, nil
}

// Allow evaluates the policy for in. Any evaluation error or undefined result denies.
func (e *OPAEvaluator) Allow(ctx context.Context, in Input) (bool, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"method":  in.Method,
		"subject": in.Subject,
		"role":    in.Role,
	}))
	if err != nil {
		return false, fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allow, ok := rs[0].Expressions[0].Value.(bool)
	return ok && allow, nil
}

// HealthCheck verifies that the prepared policy evaluates and denies an anonymous caller on a protected method.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	allow, err := e.Allow(ctx, Input{Method: "/auth.v1.AuthService/GetProfile"})
	if err != nil {
		return err
	}
	if allow {
		return fmt.Errorf("policy allows anonymous access to a protected method")
	}
	return nil
}
