package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/merohisab/retail_backend/config"
	"github.com/merohisab/retail_backend/middlewares"
	"github.com/merohisab/retail_backend/models"
	"github.com/merohisab/retail_backend/utils"
	"github.com/merohisab/retail_backend/workflow"
)

const defaultPort = "8080"

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// respondError maps the shared error taxonomy onto HTTP statuses. Business
// failures carry the numeric context the caller needs to act; storage
// failures stay opaque.
func respondError(c *gin.Context, err error) {
	var ve *utils.ValidationError
	var nf *utils.NotFoundError
	var is *utils.InsufficientStockError
	var cl *utils.CreditLimitExceededError
	var sc *utils.SequenceConflictError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error(), "resource": nf.Resource})
	case errors.As(err, &is):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":     is.Error(),
			"item_id":   is.ItemId,
			"available": is.Available,
			"required":  is.Required,
		})
	case errors.As(err, &cl):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      cl.Error(),
			"account_id": cl.AccountId,
			"available":  cl.Available,
			"required":   cl.Required,
		})
	case errors.As(err, &sc):
		c.JSON(http.StatusConflict, gin.H{"error": sc.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func bindInput(c *gin.Context, input interface{}) bool {
	if err := c.ShouldBindJSON(input); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		}
		return false
	}
	return true
}

func registerRoutes(r *gin.Engine, logger *logrus.Logger) {
	scoped := r.Group("/", middlewares.ScopeMiddleware())

	scoped.POST("/sales-bills", func(c *gin.Context) {
		var input models.NewSalesBill
		if !bindInput(c, &input) {
			return
		}
		fy := middlewares.FiscalYearScope(c)
		bill, err := workflow.PostSalesBill(c.Request.Context(), config.GetDB(), logger, fy, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, bill)
	})

	scoped.GET("/sales-bills/:id", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		fy := middlewares.FiscalYearScope(c)
		bill, err := workflow.GetSalesBill(config.GetDB().WithContext(c.Request.Context()), fy, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, bill)
	})

	scoped.PUT("/sales-bills/:id", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var input models.NewSalesBill
		if !bindInput(c, &input) {
			return
		}
		fy := middlewares.FiscalYearScope(c)
		bill, err := workflow.EditSalesBill(c.Request.Context(), config.GetDB(), logger, fy, id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, bill)
	})

	scoped.POST("/purchase-bills", func(c *gin.Context) {
		var input models.NewPurchaseBill
		if !bindInput(c, &input) {
			return
		}
		fy := middlewares.FiscalYearScope(c)
		bill, err := workflow.PostPurchaseBill(c.Request.Context(), config.GetDB(), logger, fy, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, bill)
	})

	scoped.GET("/purchase-bills/:id", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		fy := middlewares.FiscalYearScope(c)
		bill, err := workflow.GetPurchaseBill(config.GetDB().WithContext(c.Request.Context()), fy, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, bill)
	})

	scoped.POST("/journal-vouchers", func(c *gin.Context) {
		var input models.NewJournalVoucher
		if !bindInput(c, &input) {
			return
		}
		fy := middlewares.FiscalYearScope(c)
		voucher, err := workflow.PostJournalVoucher(c.Request.Context(), config.GetDB(), logger, fy, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, voucher)
	})

	scoped.POST("/debit-notes", func(c *gin.Context) {
		var input models.NewNote
		if !bindInput(c, &input) {
			return
		}
		fy := middlewares.FiscalYearScope(c)
		note, err := workflow.PostDebitNote(c.Request.Context(), config.GetDB(), logger, fy, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, note)
	})

	scoped.POST("/credit-notes", func(c *gin.Context) {
		var input models.NewNote
		if !bindInput(c, &input) {
			return
		}
		fy := middlewares.FiscalYearScope(c)
		note, err := workflow.PostCreditNote(c.Request.Context(), config.GetDB(), logger, fy, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, note)
	})

	scoped.POST("/payments", func(c *gin.Context) {
		var input models.NewPaymentVoucher
		if !bindInput(c, &input) {
			return
		}
		fy := middlewares.FiscalYearScope(c)
		voucher, err := workflow.PostPaymentVoucher(c.Request.Context(), config.GetDB(), logger, fy, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, voucher)
	})

	scoped.POST("/receipts", func(c *gin.Context) {
		var input models.NewReceiptVoucher
		if !bindInput(c, &input) {
			return
		}
		fy := middlewares.FiscalYearScope(c)
		voucher, err := workflow.PostReceiptVoucher(c.Request.Context(), config.GetDB(), logger, fy, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, voucher)
	})

	scoped.POST("/vouchers/:type/:id/cancel", voucherStatusHandler(logger, workflow.CancelVoucher))
	scoped.POST("/vouchers/:type/:id/reactivate", voucherStatusHandler(logger, workflow.ReactivateVoucher))

	scoped.GET("/accounts/:id/balance", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		fy := middlewares.FiscalYearScope(c)
		var asOf *string
		if v := c.Query("asOf"); v != "" {
			if _, err := time.Parse("2006-01-02", v); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "asOf must be YYYY-MM-DD"})
				return
			}
			asOf = &v
		}
		result, err := workflow.ComputeBalance(config.GetDB().WithContext(c.Request.Context()), logger, fy, id, asOf)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"account_id": result.AccountId, "amount": result.Amount, "sign": result.Sign})
	})

	scoped.GET("/accounts/:id/closing-balance", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		fy := middlewares.FiscalYearScope(c)
		result, err := workflow.ComputeClosingBalance(c.Request.Context(), config.GetDB().WithContext(c.Request.Context()), logger, fy, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"account_id": result.AccountId, "amount": result.Amount, "sign": result.Sign})
	})

	scoped.GET("/bill-numbers/:type/next", func(c *gin.Context) {
		fy := middlewares.FiscalYearScope(c)
		voucherType := models.VoucherType(c.Param("type"))
		number, err := workflow.PeekNextBillNumber(config.GetDB().WithContext(c.Request.Context()), fy, voucherType)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bill_number": number})
	})

	scoped.POST("/accounts", func(c *gin.Context) {
		var input models.NewAccount
		if !bindInput(c, &input) {
			return
		}
		fy := middlewares.FiscalYearScope(c)
		account, err := models.CreateAccount(config.GetDB().WithContext(c.Request.Context()), fy, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, account)
	})

	scoped.POST("/items", func(c *gin.Context) {
		var input models.NewItem
		if !bindInput(c, &input) {
			return
		}
		fy := middlewares.FiscalYearScope(c)
		item, err := models.CreateItem(config.GetDB().WithContext(c.Request.Context()), fy, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	})
}

func voucherStatusHandler(logger *logrus.Logger, flip func(context.Context, *gorm.DB, *logrus.Logger, models.FiscalYearContext, models.VoucherType, int) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		voucherType := models.VoucherType(c.Param("type"))
		fy := middlewares.FiscalYearScope(c)
		if err := flip(c.Request.Context(), config.GetDB(), logger, fy, voucherType, id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP; until DB/Redis are ready, app endpoints 503.
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", "X-Company-Id", "X-Fiscal-Year", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length", "x-correlation-id")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))
	r.Use(gin.Recovery())

	registerRoutes(r, logger)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running it as a
	// separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Panic(err.Error())
		}
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithFields(logrus.Fields{"field": "shutdown"}).Error(err.Error())
		}
	}
}
