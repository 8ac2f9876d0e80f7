package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/utils"
)

// Named operations guarded by the authorization policy table.
const (
	OpActivityRead   = "activity.read"
	OpActivitySubmit = "activity.submit"
	OpActivityReview = "activity.review"
	OpAnalyticsRead  = "analytics.read"
	OpStudentSelf    = "student.self"
	OpProfileManage  = "profile.manage"
)

// policies maps each guarded operation to the roles allowed to invoke it.
// Every role-gated route consults this table through RequireOperation, so the
// authorization matrix lives in one place instead of ad hoc per-route checks.
var policies = map[string][]string{
	OpActivityRead:   {models.RoleStudent, models.RoleFaculty, models.RoleAdmin},
	OpActivitySubmit: {models.RoleStudent},
	OpActivityReview: {models.RoleFaculty, models.RoleAdmin},
	OpAnalyticsRead:  {models.RoleFaculty, models.RoleAdmin},
	OpStudentSelf:    {models.RoleStudent},
	OpProfileManage:  {models.RoleStudent, models.RoleFaculty, models.RoleAdmin},
}

// RequireOperation ensures the authenticated user's role is allowed to
// perform the named operation. Unknown operations are denied.
func RequireOperation(operation string) fiber.Handler {
	allowed := make(map[string]struct{})
	for _, role := range policies[operation] {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		role := normalizeRoleValue(c.Locals("user_role"))
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

// AllowedRoles returns the roles permitted for an operation. Exposed for tests.
func AllowedRoles(operation string) []string {
	return append([]string(nil), policies[operation]...)
}

func normalizeRoleValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case fmt.Stringer:
		return strings.ToLower(strings.TrimSpace(v.String()))
	default:
		if value == nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", value)))
	}
}
