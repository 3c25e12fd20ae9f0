package server

import (
	"strconv"

	"levelforum/internal/models"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps application error codes onto HTTP statuses.
func statusFor(err error) int {
	switch models.ErrorCode(err) {
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeConflict:
		return fiber.StatusConflict
	case models.CodeInvalidInput:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, statusFor(err), err)
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewInvalidInputError("Invalid id")
	}
	return uint(id), nil
}

func parseTargetParam(c *fiber.Ctx) (models.ContentType, uint, error) {
	targetType, err := models.ParseContentType(c.Params("targetType"))
	if err != nil {
		return "", 0, err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return "", 0, err
	}
	return targetType, id, nil
}

func parsePagination(c *fiber.Ctx) (page, pageSize int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	pageSize, _ = strconv.Atoi(c.Query("page_size", "20"))
	return page, pageSize
}

// currentUserID returns the authenticated user id set by the identity
// middleware, or 0 when the request is anonymous.
func currentUserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("userID").(uint); ok {
		return id
	}
	return 0
}

func currentRole(c *fiber.Ctx) models.Role {
	if role, ok := c.Locals("userRole").(models.Role); ok {
		return role
	}
	return models.RoleNone
}

// canModerate reports whether the caller owns the resource or holds at least
// the moderator role.
func canModerate(c *fiber.Ctx, ownerID uint) bool {
	if currentUserID(c) == ownerID {
		return true
	}
	return currentRole(c).AtLeast(models.RoleModerator)
}
