package engine

import (
	"context"
	_ "embed"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const roleChangeQuery = "data.aumigo.role_change"

//go:embed role_change.rego
var defaultRoleChangePolicy string

// OPAEvaluator evaluates the role-change policy using OPA Rego. The query is compiled and
// prepared once; evaluation is safe for concurrent use.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator prepares the embedded role-change policy.
func NewOPAEvaluator(ctx context.Context) (*OPAEvaluator, error) {
	return NewOPAEvaluatorWithPolicy(ctx, defaultRoleChangePolicy)
}

// NewOPAEvaluatorWithPolicy prepares a custom policy. It must define package aumigo.role_change
// with an allow boolean and a reason set.
func NewOPAEvaluatorWithPolicy(ctx context.Context, policy string) (*OPAEvaluator, error) {
	compiler, err := ast.CompileModules(map[string]string{"role_change.rego": policy})
	if err != nil {
		return nil, fmt.Errorf("compile role change policy: %w", err)
	}
	q, err := rego.New(
		rego.Query(roleChangeQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare role change policy: %w", err)
	}
	return &OPAEvaluator{query: q}, nil
}

// HealthCheck evaluates a request the policy must deny (a standard actor granting elevated)
// and fails unless the engine answers with a denial.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	d, err := e.evaluate(ctx, map[string]interface{}{
		"actor":    map[string]interface{}{"id": "health-actor", "role": "user"},
		"target":   map[string]interface{}{"id": "health-target", "role": "user"},
		"new_role": "admin",
	})
	if err != nil {
		return err
	}
	if d.Allow {
		return fmt.Errorf("role change policy allowed a standard actor")
	}
	return nil
}

// EvaluateRoleChange evaluates the policy for in. Evaluation errors are returned; callers
// must treat them as a denial.
func (e *OPAEvaluator) EvaluateRoleChange(ctx context.Context, in RoleChangeInput) (RoleChangeDecision, error) {
	return e.evaluate(ctx, buildInput(in))
}

func buildInput(in RoleChangeInput) map[string]interface{} {
	return map[string]interface{}{
		"actor": map[string]interface{}{
			"id":   in.ActorID,
			"role": in.ActorRole.String(),
		},
		"target": map[string]interface{}{
			"id":   in.TargetID,
			"role": in.TargetRole.String(),
		},
		"new_role": in.NewRole.String(),
	}
}

func (e *OPAEvaluator) evaluate(ctx context.Context, input map[string]interface{}) (RoleChangeDecision, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return RoleChangeDecision{}, fmt.Errorf("eval role change policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return RoleChangeDecision{}, fmt.Errorf("role change policy returned no result")
	}
	doc, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return RoleChangeDecision{}, fmt.Errorf("role change policy returned %T", rs[0].Expressions[0].Value)
	}
	out := RoleChangeDecision{}
	if v, ok := doc["allow"].(bool); ok {
		out.Allow = v
	}
	if reasons, ok := doc["reason"].([]interface{}); ok {
		for _, r := range reasons {
			if s, ok := r.(string); ok {
				out.Reasons = append(out.Reasons, s)
			}
		}
	}
	sort.Strings(out.Reasons)
	if out.Allow && len(out.Reasons) > 0 {
		out.Allow = false
	}
	if !out.Allow && len(out.Reasons) == 0 {
		out.Reasons = []string{ReasonActorNotSuperElevated}
	}
	return out, nil
}
