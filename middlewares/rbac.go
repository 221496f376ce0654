package middlewares

import (
	"fmt"
	"net/http"

	"rockspotter/logger"
	"rockspotter/models"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	mongodbadapter "github.com/casbin/mongodb-adapter/v3"
	"github.com/gin-gonic/gin"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

var enforcer *casbin.Enforcer

var defaultPolicies = [][]string{
	{models.RoleAdmin, "user", "read"},
	{models.RoleAdmin, "user", "update"},
	{models.RoleAdmin, "achievement", "create"},
	{models.RoleAdmin, "achievement", "award"},
	{models.RoleModerator, "user", "read"},
	{models.RoleModerator, "rock", "delete"},
	{models.RoleModerator, "hunt", "delete"},
}

// admins inherit every moderator permission
var defaultGroupings = [][]string{
	{models.RoleAdmin, models.RoleModerator},
}

// InitCasbin creates the enforcer with policies persisted in MongoDB.
// An empty URI keeps policies in memory.
func InitCasbin(mongoURI string) error {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return fmt.Errorf("failed to create Casbin model: %w", err)
	}

	var e *casbin.Enforcer
	if mongoURI == "" {
		e, err = casbin.NewEnforcer(m)
	} else {
		adapter, adapterErr := mongodbadapter.NewAdapter(mongoURI)
		if adapterErr != nil {
			return fmt.Errorf("failed to create Casbin adapter: %w", adapterErr)
		}
		e, err = casbin.NewEnforcer(m, adapter)
	}
	if err != nil {
		return fmt.Errorf("failed to create Casbin enforcer: %w", err)
	}

	if mongoURI != "" {
		if err := e.LoadPolicy(); err != nil {
			return fmt.Errorf("failed to load policy: %w", err)
		}
	}
	if err := ensureDefaultPolicies(e); err != nil {
		return err
	}

	enforcer = e
	logger.Success("Casbin RBAC initialized")
	return nil
}

// ensureDefaultPolicies adds missing default policies; existing ones are kept
func ensureDefaultPolicies(e *casbin.Enforcer) error {
	for _, p := range defaultPolicies {
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return fmt.Errorf("failed to add policy %v: %w", p, err)
		}
	}
	for _, g := range defaultGroupings {
		if _, err := e.AddGroupingPolicy(g[0], g[1]); err != nil {
			return fmt.Errorf("failed to add role inheritance %v: %w", g, err)
		}
	}
	return nil
}

// Allowed reports whether role may perform action on resource
func Allowed(role, resource, action string) bool {
	if enforcer == nil || role == "" {
		return false
	}
	ok, err := enforcer.Enforce(role, resource, action)
	if err != nil {
		logger.Error("Casbin enforce error: %v", err)
		return false
	}
	return ok
}

// RBACMiddleware checks the authenticated user's role against the policy.
// Must run after AuthMiddleware.
func RBACMiddleware(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CurrentRole(c)
		if role == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Role not found"})
			c.Abort()
			return
		}
		if !Allowed(role, resource, action) {
			logger.Warning("Permission denied for role=%s, resource=%s, action=%s", role, resource, action)
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}
		c.Next()
	}
}
