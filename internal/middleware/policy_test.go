package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack-api/internal/models"
)

func policyApp(operation, role string) *fiber.App {
	app := fiber.New()
	app.Get("/guarded", func(c *fiber.Ctx) error {
		c.Locals("user_role", role)
		return c.Next()
	}, RequireOperation(operation), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireOperationMatrix(t *testing.T) {
	cases := []struct {
		name      string
		operation string
		role      string
		status    int
	}{
		{"student can submit", OpActivitySubmit, models.RoleStudent, fiber.StatusOK},
		{"faculty cannot submit", OpActivitySubmit, models.RoleFaculty, fiber.StatusForbidden},
		{"faculty can review", OpActivityReview, models.RoleFaculty, fiber.StatusOK},
		{"admin can review", OpActivityReview, models.RoleAdmin, fiber.StatusOK},
		{"student cannot review", OpActivityReview, models.RoleStudent, fiber.StatusForbidden},
		{"student cannot read analytics", OpAnalyticsRead, models.RoleStudent, fiber.StatusForbidden},
		{"faculty cannot use student views", OpStudentSelf, models.RoleFaculty, fiber.StatusForbidden},
		{"any role manages own profile", OpProfileManage, models.RoleAdmin, fiber.StatusOK},
		{"missing role denied", OpActivityRead, "", fiber.StatusForbidden},
		{"unknown operation denied", "activity.export", models.RoleAdmin, fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := policyApp(tc.operation, tc.role)
			resp, err := app.Test(httptest.NewRequest("GET", "/guarded", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireOperationNormalizesRole(t *testing.T) {
	app := policyApp(OpActivityReview, "  Faculty ")
	resp, err := app.Test(httptest.NewRequest("GET", "/guarded", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAllowedRolesIsACopy(t *testing.T) {
	roles := AllowedRoles(OpActivityReview)
	require.ElementsMatch(t, []string{models.RoleFaculty, models.RoleAdmin}, roles)

	roles[0] = "intruder"
	require.ElementsMatch(t, []string{models.RoleFaculty, models.RoleAdmin}, AllowedRoles(OpActivityReview))
}

func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func jwtApp(secret string) *fiber.App {
	app := fiber.New()
	app.Get("/me", JWTProtected(secret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals("user_id"),
			"role":    c.Locals("user_role"),
		})
	})
	return app
}

func TestJWTProtectedAcceptsValidToken(t *testing.T) {
	app := jwtApp("test-secret")
	token := signTestToken(t, "test-secret", jwt.MapClaims{
		"sub":  float64(7),
		"role": "student",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTProtectedRejectsBadTokens(t *testing.T) {
	app := jwtApp("test-secret")

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"empty token", "Bearer "},
		{"wrong secret", "Bearer " + signTestToken(t, "other-secret", jwt.MapClaims{"sub": float64(7)})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestJWTProtectedRejectsExpiredToken(t *testing.T) {
	app := jwtApp("test-secret")
	token := signTestToken(t, "test-secret", jwt.MapClaims{
		"sub":  float64(7),
		"role": "student",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
