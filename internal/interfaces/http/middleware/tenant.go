package middleware

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"github.com/mes/backend/internal/interfaces/http/dto"
)

// Tenant headers and context keys
const (
	HeaderCompany = "X-Company"
	HeaderPlant   = "X-Plant"
	CompanyKey    = "company"
	PlantKey      = "plant"
)

var tenantCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,20}$`)

// Tenant reads the company and plant the request works on. Both headers are
// optional; a request without them is not narrowed by tenant.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		company := strings.TrimSpace(c.GetHeader(HeaderCompany))
		plant := strings.TrimSpace(c.GetHeader(HeaderPlant))

		if company != "" && !tenantCodePattern.MatchString(company) {
			AbortWithError(c, dto.ErrCodeInvalidInput, "Invalid "+HeaderCompany+" header")
			return
		}
		if plant != "" && !tenantCodePattern.MatchString(plant) {
			AbortWithError(c, dto.ErrCodeInvalidInput, "Invalid "+HeaderPlant+" header")
			return
		}

		if company != "" || plant != "" {
			c.Set(CompanyKey, company)
			c.Set(PlantKey, plant)
			c.Request = c.Request.WithContext(logger.WithTenant(c.Request.Context(), company, plant))
		}
		c.Next()
	}
}

// GetActor returns who is calling and on which plant
func GetActor(c *gin.Context) shared.Actor {
	return shared.Actor{
		UserID:  GetUserID(c),
		Company: c.GetString(CompanyKey),
		Plant:   c.GetString(PlantKey),
	}
}
