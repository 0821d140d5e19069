// Command innkeep runs the hotel-booking pipeline: one invocation per
// conversational turn. The first turn takes a free-text query and returns the
// availability shortlist; the booking turn resumes a stored run with a hotel
// selection and guest details.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/innkeep/innkeep/internal/engine"
	"github.com/innkeep/innkeep/internal/expressions"
	"github.com/innkeep/innkeep/internal/extract"
	"github.com/innkeep/innkeep/internal/gateway"
	"github.com/innkeep/innkeep/internal/logging"
	"github.com/innkeep/innkeep/internal/scheduler"
	"github.com/innkeep/innkeep/internal/store"
	"github.com/innkeep/innkeep/internal/validation"
	"github.com/innkeep/innkeep/pkg/hotels"
	"github.com/innkeep/innkeep/pkg/schema"
)

const idleConnectionAge = 10 * time.Minute

func main() {
	resumeID := flag.String("resume", "", "run id to resume with a booking turn")
	hotelID := flag.String("hotel", "", "hotel id to book (with -resume)")
	guestName := flag.String("name", "", "guest name (with -resume)")
	guestEmail := flag.String("email", "", "guest email (with -resume)")
	serveTools := flag.Bool("serve-tools", false, "serve the bundled hotel tool server on stdio and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	cfg := loadConfig()
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serveTools {
		srv := hotels.NewHotelServer(hotels.NewInventory(), logger)
		if err := srv.Serve(ctx); err != nil {
			fatal("tool server: %v", err)
		}
		return
	}

	if err := run(ctx, cfg, logger, *resumeID, *hotelID, *guestName, *guestEmail, flag.Args()); err != nil {
		fatal("%v", err)
	}
}

func run(ctx context.Context, cfg Config, logger *slog.Logger, resumeID, hotelID, guestName, guestEmail string, args []string) error {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	st, err := store.NewLibSQLStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}
	eventLog := store.NewEventLog(st)

	gw := gateway.New(gateway.Options{
		DefaultTimeout:   cfg.toolTimeout(),
		BatchConcurrency: cfg.AvailabilityBatchSize,
		Logger:           logger,
	})
	defer gw.Close()
	if err := registerProviders(gw, cfg, logger); err != nil {
		return err
	}

	guardEngine, err := newGuardEngine(cfg.RouterEngine)
	if err != nil {
		return err
	}
	validator, err := validation.NewPayloadValidator()
	if err != nil {
		return err
	}

	orch, err := engine.NewOrchestrator(engine.Deps{
		Tools:     gw,
		Extractor: extract.NewHeuristic(),
		Validator: validator,
		Appender:  eventLog,
		Runs:      st,
		Engine:    guardEngine,
		Logger:    logger,
	}, engine.Config{
		ExtractionTimeout: cfg.extractionTimeout(),
		ToolTimeout:       cfg.toolTimeout(),
		OverallDeadline:   cfg.overallDeadline(),
	})
	if err != nil {
		return err
	}

	sched, err := scheduler.New(cfg.MaintenanceSchedule, logger)
	if err != nil {
		return err
	}
	sched.Register("sweep_idle_connections", func(context.Context) error {
		gw.SweepIdle(idleConnectionAge)
		return nil
	})
	sched.Register("vacuum_store", st.Vacuum)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	var result *engine.RunResult
	if resumeID != "" {
		result, err = resumeBooking(ctx, orch, st, resumeID, hotelID, guestName, guestEmail)
	} else {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return fmt.Errorf("usage: innkeep \"<booking query>\" | innkeep -resume <run-id> -hotel <id> -name <name> -email <email>")
		}
		result, err = orch.Run(ctx, query)
	}
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if result.Status != schema.RunStatusCompleted {
		os.Exit(1)
	}
	return nil
}

func resumeBooking(ctx context.Context, orch *engine.Orchestrator, st *store.LibSQLStore, runID, hotelID, guestName, guestEmail string) (*engine.RunResult, error) {
	if hotelID == "" || guestName == "" || guestEmail == "" {
		return nil, fmt.Errorf("-resume requires -hotel, -name and -email")
	}
	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(run.FinalState) == 0 {
		return nil, fmt.Errorf("run %s has no stored state to resume", runID)
	}
	var prior schema.BookingState
	if err := json.Unmarshal(run.FinalState, &prior); err != nil {
		return nil, fmt.Errorf("decode stored run state: %w", err)
	}
	guest := &schema.GuestInfo{Name: guestName, Email: guestEmail}
	return orch.ResumeBooking(ctx, &prior, hotelID, guest)
}

// registerProviders wires every configured tool provider into the gateway.
// "inproc" providers share one bundled hotel server; anything else is a
// command line for a stdio MCP server.
func registerProviders(gw *gateway.Gateway, cfg Config, logger *slog.Logger) error {
	var inproc *hotels.HotelServer

	for id, spec := range cfg.Providers {
		switch {
		case spec == "inproc":
			if inproc == nil {
				inproc = hotels.NewHotelServer(hotels.NewInventory(), logger)
			}
			srv := inproc.MCPServer()
			gw.RegisterProvider(id, func(ctx context.Context) (gateway.Transport, error) {
				return gateway.NewInProcessTransport(ctx, srv)
			})

		default:
			parts := strings.Fields(spec)
			if len(parts) == 0 {
				return fmt.Errorf("provider %q has an empty command", id)
			}
			command, cmdArgs := parts[0], parts[1:]
			gw.RegisterProvider(id, func(ctx context.Context) (gateway.Transport, error) {
				return gateway.NewStdioTransport(ctx, command, nil, cmdArgs...)
			})
		}
	}
	return nil
}

func newGuardEngine(name string) (expressions.Engine, error) {
	switch name {
	case "", "expr":
		return expressions.NewExprEngine(), nil
	case "cel":
		return expressions.NewCELEngine()
	default:
		return nil, fmt.Errorf("unknown router_engine %q (want expr or cel)", name)
	}
}

func newLogger(cfg Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var inner slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		inner = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		inner = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(logging.NewCorrelationHandler(inner))
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
