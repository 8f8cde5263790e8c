package authroles

// Package authroles turns provider token claims and configured defaults into role memberships.

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
	domainauth "github.com/target/oidc-gate/internal/domain/auth"
	"github.com/target/oidc-gate/internal/ports"
)

var _ ports.RoleExtractor = (*ClaimsRoleExtractor)(nil)

// DefaultExpression returns the JMESPath expression selecting client roles for clientID.
func DefaultExpression(clientID string) string {
	return `resource_access."` + strings.ReplaceAll(clientID, `"`, `\"`) + `".roles`
}

// ClaimsRoleExtractor evaluates a JMESPath expression over introspection claims.
type ClaimsRoleExtractor struct {
	expression string
	clientID   string
}

// NewClaimsRoleExtractor validates expr, falling back to the client-roles expression when empty.
func NewClaimsRoleExtractor(expr, clientID string) (*ClaimsRoleExtractor, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		if clientID == "" {
			return nil, errors.New("client ID is required for the default roles expression")
		}
		expr = DefaultExpression(clientID)
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return nil, fmt.Errorf("compile roles expression %q: %w", expr, err)
	}
	return &ClaimsRoleExtractor{expression: expr, clientID: clientID}, nil
}

// Expression returns the compiled expression source.
func (e *ClaimsRoleExtractor) Expression() string { return e.expression }

// Roles returns the de-duplicated, sorted roles selected from tok.
func (e *ClaimsRoleExtractor) Roles(tok domainauth.AccessToken) ([]string, error) {
	data := tok.Claims
	if data == nil {
		data = claimsFromToken(tok)
	}
	res, err := jmespath.Search(e.expression, data)
	if err != nil {
		return nil, fmt.Errorf("evaluate roles expression: %w", err)
	}
	return toRoles(res)
}

func claimsFromToken(tok domainauth.AccessToken) map[string]any {
	ra := make(map[string]any, len(tok.ResourceAccess))
	for client, tr := range tok.ResourceAccess {
		roles := make([]any, len(tr.Roles))
		for i, r := range tr.Roles {
			roles[i] = r
		}
		ra[client] = map[string]any{"roles": roles}
	}
	return map[string]any{
		"active":          tok.Active,
		"username":        tok.Username,
		"resource_access": ra,
	}
}

func toRoles(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return normalize([]string{t}), nil
	case []string:
		return normalize(t), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("roles expression yielded non-string element %T", item)
			}
			out = append(out, s)
		}
		return normalize(out), nil
	default:
		return nil, fmt.Errorf("roles expression yielded %T, want list of strings", v)
	}
}

func normalize(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, r := range in {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
