package middleware

import (
	"meterhub/internal/core/domain"
	"meterhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Operation names a protected API operation
type Operation string

const (
	OpAuthMe         Operation = "auth.me"
	OpCampusList     Operation = "campus.list"
	OpCampusCreate   Operation = "campus.create"
	OpCampusDelete   Operation = "campus.delete"
	OpLocationList   Operation = "location.list"
	OpMeterList      Operation = "meter.list"
	OpMeterCreate    Operation = "meter.create"
	OpMeterDelete    Operation = "meter.delete"
	OpMeterUpdate    Operation = "meter.update"
	OpReadingAppend  Operation = "reading.append"
	OpReadingCorrect Operation = "reading.correct"
	OpReadingHistory Operation = "reading.history"
	OpUserList       Operation = "user.list"
	OpUserGet        Operation = "user.get"
	OpUserCreate     Operation = "user.create"
	OpUserUpdate     Operation = "user.update"
	OpUserDelete     Operation = "user.delete"
)

var (
	anyRole    = domain.Roles
	managers   = []domain.Role{domain.RoleDataManager, domain.RoleAdmin}
	correctors = []domain.Role{domain.RoleDataManager, domain.RoleReader}
	adminsOnly = []domain.Role{domain.RoleAdmin}
)

// Policy maps every protected operation to the roles allowed to run it
var Policy = map[Operation][]domain.Role{
	OpAuthMe:         anyRole,
	OpCampusList:     anyRole,
	OpCampusCreate:   managers,
	OpCampusDelete:   managers,
	OpLocationList:   anyRole,
	OpMeterList:      anyRole,
	OpMeterCreate:    managers,
	OpMeterDelete:    managers,
	OpMeterUpdate:    managers,
	OpReadingAppend:  anyRole,
	OpReadingCorrect: correctors,
	OpReadingHistory: anyRole,
	OpUserList:       adminsOnly,
	OpUserGet:        adminsOnly,
	OpUserCreate:     adminsOnly,
	OpUserUpdate:     adminsOnly,
	OpUserDelete:     adminsOnly,
}

// Allowed reports whether role may run op. Unknown operations allow nobody.
func Allowed(role domain.Role, op Operation) bool {
	for _, r := range Policy[op] {
		if r == role {
			return true
		}
	}
	return false
}

// Require rejects callers whose role the policy does not allow for op.
// It must run after AuthMiddleware.
func Require(op Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		if !Allowed(actor.Role, op) {
			return response.Forbidden(c, "You don't have permission to access this resource")
		}
		return c.Next()
	}
}
