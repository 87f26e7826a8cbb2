package middlewares

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/merohisab/retail_backend/models"
	"github.com/merohisab/retail_backend/utils"
)

// CorrelationMiddleware attaches a correlation id to every request context,
// minting one when the caller did not send x-correlation-id.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Header("x-correlation-id", cid)
		c.Next()
	}
}

// ScopeMiddleware reads the company and fiscal-year headers every posting
// endpoint requires and stores them on the request context, where the
// company-scoping gorm plugin picks them up. Requests without both headers
// are rejected before any handler runs.
func ScopeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyId := c.GetHeader("X-Company-Id")
		if companyId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing X-Company-Id header"})
			c.Abort()
			return
		}
		fiscalYearId, err := strconv.Atoi(c.GetHeader("X-Fiscal-Year"))
		if err != nil || fiscalYearId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid X-Fiscal-Year header"})
			c.Abort()
			return
		}

		ctx := utils.SetCompanyIdInContext(c.Request.Context(), companyId)
		ctx = utils.SetFiscalYearIdInContext(ctx, fiscalYearId)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// FiscalYearScope rebuilds the explicit posting scope from a request context
// populated by ScopeMiddleware.
func FiscalYearScope(c *gin.Context) models.FiscalYearContext {
	companyId, _ := utils.GetCompanyIdFromContext(c.Request.Context())
	fiscalYearId, _ := utils.GetFiscalYearIdFromContext(c.Request.Context())
	return models.FiscalYearContext{CompanyId: companyId, FiscalYearId: fiscalYearId}
}
