/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env / environment configuration
  2. Parse command-line flags (flags win over environment)
  3. Initialize SQLite store
  4. Build calendar, default accrual policy and workflow
  5. Optionally seed demo data
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default from PORT, else 8080)
  -db      SQLite database path (default from DB_PATH, else breakbook.db)
           Use ":memory:" for in-memory database
  -seed    Load demo employees and holidays on startup

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/breakbook.db"

  # Run with demo data
  ./server -db=":memory:" -seed

ENVIRONMENT:
  PORT, DB_PATH, CORS_ORIGIN, ACCRUAL_POLICY (flat|prorated), FLAT_DAYS,
  ANNUAL_QUOTA, ACCRUAL_WHOLE_DAYS. A .env file is honored when present.

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/breakbook/leave-engine/api"
	"github.com/breakbook/leave-engine/balance"
	"github.com/breakbook/leave-engine/calendar"
	"github.com/breakbook/leave-engine/config"
	"github.com/breakbook/leave-engine/leave"
	"github.com/breakbook/leave-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override environment.
	port := flag.Int("port", cfg.App.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.Database.Path, "SQLite database path")
	seed := flag.Bool("seed", false, "load demo employees and holidays")
	flag.Parse()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Fixed holiday patterns plus dated holidays from the store.
	cal := calendar.New(calendar.DefaultHolidays(), store)

	workflow := leave.NewWorkflow(store, store, cal, defaultPolicy(cfg.Accrual), store)

	logger := api.NewLogger()
	handler := api.NewHandler(workflow, store, logger)
	router := api.NewRouter(handler, logger, cfg.App.CORSOrigins)

	if *seed {
		if err := seedDemoData(context.Background(), store); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
		log.Println("Demo data loaded")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func defaultPolicy(cfg config.AccrualConfig) balance.Policy {
	if cfg.Policy == config.PolicyProrated {
		return balance.ProratedQuota(cfg.AnnualQuota, cfg.WholeDays)
	}
	return balance.FlatDays(cfg.FlatDays)
}

// seedDemoData loads a small demo directory. Existing employees are skipped
// so restarts don't duplicate anything.
func seedDemoData(ctx context.Context, store *sqlite.Store) error {
	quota := 12.0
	employees := []leave.Employee{
		{
			ID:         "emp-alice",
			Name:       "Alice Carter",
			Email:      "alice@breakbook.dev",
			Department: "Engineering",
			JoinDate:   calendar.NewDate(2024, time.March, 1),
			Status:     leave.EmployeeActive,
		},
		{
			ID:          "emp-bob",
			Name:        "Bob Osei",
			Email:       "bob@breakbook.dev",
			Department:  "Finance",
			JoinDate:    calendar.NewDate(2025, time.January, 15),
			Status:      leave.EmployeeActive,
			AnnualQuota: &quota,
		},
	}

	for _, emp := range employees {
		existing, err := store.GetEmployee(ctx, emp.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		emp.CreatedAt = time.Now().UTC()
		if err := store.SaveEmployee(ctx, emp); err != nil {
			return err
		}
	}

	year := time.Now().Year()
	holidays := []struct {
		date calendar.Date
		name string
	}{
		{calendar.NewDate(year, time.August, 15), "Independence Day"},
		{calendar.NewDate(year, time.October, 2), "Gandhi Jayanti"},
	}
	for _, h := range holidays {
		if err := store.SaveHoliday(ctx, uuid.NewString(), h.date, h.name); err != nil {
			return err
		}
	}
	return nil
}
