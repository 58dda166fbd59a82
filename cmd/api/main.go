package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/config"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	appHTTP "github.com/cmlabs-hris/hris-attendance-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/mongodb"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-attendance-go/internal/service/attendance"
	serviceAuth "github.com/cmlabs-hris/hris-attendance-go/internal/service/auth"
	leaveService "github.com/cmlabs-hris/hris-attendance-go/internal/service/leave"
	payrollService "github.com/cmlabs-hris/hris-attendance-go/internal/service/payroll"
	reportService "github.com/cmlabs-hris/hris-attendance-go/internal/service/report"
	userService "github.com/cmlabs-hris/hris-attendance-go/internal/service/user"
	"github.com/go-chi/httplog/v3"
)

// repositories is the storage backend selected by DB_DRIVER.
type repositories struct {
	transactor database.Transactor
	users      user.UserRepository
	attendance attendance.AttendanceRepository
	leaves     leave.LeaveRequestRepository
	close      func(ctx context.Context)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-attendance"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open storage", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer repos.close(context.Background())

	lateThreshold, err := attendance.ParseLateThreshold(cfg.Attendance.LateThreshold)
	if err != nil {
		slog.Error("Invalid late threshold", "error", err)
		os.Exit(1)
	}

	var fence *geo.Fence
	if cfg.Attendance.OfficeLatitude != nil {
		fence = &geo.Fence{
			Latitude:     *cfg.Attendance.OfficeLatitude,
			Longitude:    *cfg.Attendance.OfficeLongitude,
			RadiusMeters: cfg.Attendance.OfficeRadiusMeters,
		}
	}

	metrics.Register()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	authSvc := serviceAuth.NewAuthService(repos.users, JWTService)
	userSvc := userService.NewUserService(repos.users)
	attendanceSvc := attendanceService.NewAttendanceService(repos.attendance, JWTService, attendanceService.Options{
		LateThreshold: lateThreshold,
		Location:      cfg.App.Timezone,
		Fence:         fence,
		RequireQR:     cfg.Attendance.RequireQR,
	})
	events := sse.NewHub()
	leaveSvc := leaveService.NewLeaveService(repos.transactor, repos.leaves, repos.users, events, cfg.App.Timezone)
	payrollSvc := payrollService.NewPayrollService(repos.users)
	reportSvc := reportService.NewReportService(repos.attendance, repos.leaves, repos.users, cfg.App.Timezone)

	if err := userSvc.EnsureAdmin(ctx, cfg.Bootstrap.AdminName, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		slog.Error("Failed to bootstrap admin", "error", err)
		os.Exit(1)
	}

	scheduler := cron.NewScheduler()
	cron.NewLeaveJobs(repos.transactor, repos.users, cfg.Leave.AnnualAllowance, cfg.App.Timezone).RegisterJobs(scheduler)
	scheduler.Start()

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		Logger:         logger,
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
		LogLevel:       cfg.SlogLevel(),
	}, JWTService, appHTTP.Handlers{
		Auth:       appHTTP.NewAuthHandler(authSvc),
		User:       appHTTP.NewUserHandler(userSvc),
		Attendance: appHTTP.NewAttendanceHandler(attendanceSvc),
		Leave:      appHTTP.NewLeaveHandler(leaveSvc),
		Payroll:    appHTTP.NewPayrollHandler(payrollSvc),
		Report:     appHTTP.NewReportHandler(reportSvc),
		Events:     appHTTP.NewEventsHandler(events),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "db_driver", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
	scheduler.Stop()
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Database.Driver {
	case config.DriverMongoDB:
		db, err := database.NewMongoDB(cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			return nil, err
		}
		return &repositories{
			transactor: mongodb.NewTransactor(db),
			users:      mongodb.NewUserRepository(db),
			attendance: mongodb.NewAttendanceRepository(db, cfg.App.Timezone),
			leaves:     mongodb.NewLeaveRequestRepository(db, cfg.App.Timezone),
			close: func(ctx context.Context) {
				if err := db.Close(ctx); err != nil {
					slog.Error("Failed to close mongodb", "error", err)
				}
			},
		}, nil

	default:
		db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			return nil, err
		}
		return &repositories{
			transactor: postgresql.NewTransactor(db),
			users:      postgresql.NewUserRepository(db),
			attendance: postgresql.NewAttendanceRepository(db, cfg.App.Timezone),
			leaves:     postgresql.NewLeaveRequestRepository(db, cfg.App.Timezone),
			close:      func(context.Context) { db.Close() },
		}, nil
	}
}
