package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	httpadp "credit-approval-service/internal/adapter/http"
	appmw "credit-approval-service/internal/adapter/middleware"
	"credit-approval-service/internal/adapter/repository/mysql"
	"credit-approval-service/internal/config"
	customerDomain "credit-approval-service/internal/domain/customer"
	loanDomain "credit-approval-service/internal/domain/loan"
	"credit-approval-service/internal/infrastructure/cache"
	"credit-approval-service/internal/infrastructure/db"
	"credit-approval-service/internal/usecase/credit"
	customerUC "credit-approval-service/internal/usecase/customer"
	ingestUC "credit-approval-service/internal/usecase/ingest"
	loanUC "credit-approval-service/internal/usecase/loan"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	if err := gdb.AutoMigrate(&customerDomain.Customer{}, &loanDomain.Loan{}); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	customers := mysql.NewCustomerRepository(gdb)
	loans := mysql.NewLoanRepository(gdb)
	uow := mysql.NewGormUoW(gdb)
	scorer := credit.NewScorer()

	customerH := httpadp.NewCustomerHandler(customerUC.NewUsecase(customers))
	loanH := httpadp.NewLoanHandler(loanUC.NewUsecase(customers, loans, uow, scorer))
	ingestH := httpadp.NewIngestHandler(ingestUC.NewUsecase(customers, loans, cfg.DataDir))
	h := httpadp.NewHandler()

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())
	e.Use(appmw.APIKeyMiddleware(cfg.APIKeys))

	if cfg.RedisAddr != "" {
		rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		e.Use(appmw.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second))
	} else {
		log.Println("REDIS_ADDR empty, idempotency middleware disabled")
	}

	// routes
	e.GET("/health", h.Health)
	e.POST("/api/register", customerH.Register)
	e.GET("/api/view-customer/:customer_id", customerH.GetCustomer)
	e.POST("/api/check-eligibility", loanH.CheckEligibility)
	e.POST("/api/create-loan", loanH.CreateLoan)
	e.GET("/api/view-loan/:loan_id", loanH.ViewLoan)
	e.GET("/api/view-loans/:customer_id", loanH.ViewLoans)
	e.POST("/api/ingest", ingestH.Ingest)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
