package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prop-ie/snag-api/internal/app"
	"github.com/prop-ie/snag-api/internal/dto"
	"github.com/prop-ie/snag-api/internal/models"
	"github.com/prop-ie/snag-api/internal/service"
	"github.com/prop-ie/snag-api/pkg/config"
	"github.com/prop-ie/snag-api/pkg/database"
	"github.com/prop-ie/snag-api/pkg/logger"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, logr, nil
}

// openDB connects to Postgres only. The caller must close the pool.
func openDB() (*sqlx.DB, error) {
	cfg, logr, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return database.NewPostgres(cfg.Database, logr)
}

// newApp builds the full application. The caller must defer a.Close().
func newApp(ctx context.Context) (*app.App, error) {
	cfg, logr, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, logr)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var rootCmd = &cobra.Command{
	Use:          "snagctl",
	Short:        "Operator tooling for the snag list service",
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.MigrateUp(db.DB); err != nil {
			return err
		}
		version, err := database.CurrentVersion(db.DB)
		if err != nil {
			return err
		}
		fmt.Printf("Schema at version %d\n", version)
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		return database.MigrateDown(db.DB)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		return database.MigrationStatus(db.DB)
	},
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics <snag-list-id>",
	Short: "Print analytics, progress and recommendations of a snag list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		insights, _, err := a.SnagLists.Insights(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(insights)
	},
}

var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "List active snag lists past their target completion date",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		lists, err := a.SnagLists.Overdue(cmd.Context())
		if err != nil {
			return err
		}
		if len(lists) == 0 {
			fmt.Println("No overdue snag lists")
			return nil
		}
		publish, _ := cmd.Flags().GetBool("publish")
		if !publish {
			return printJSON(lists)
		}
		scheduler, err := a.Scheduler()
		if err != nil {
			return err
		}
		if err := scheduler.OverdueDigest(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Published overdue digest for %d snag lists\n", len(lists))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <snag-list-id>",
	Short: "Render and store a snag list report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		actor := service.Actor{ID: os.Getenv("USER"), Role: models.RoleAdmin, UserAgent: "snagctl"}
		result, err := a.Reports.Generate(cmd.Context(), args[0], dto.SnagReportRequest{
			Format: models.ExportFormat(strings.ToUpper(format)),
		}, actor)
		if err != nil {
			return err
		}
		fmt.Printf("Report %s (%d bytes)\n", result.ID, result.SizeBytes)
		fmt.Printf("Download: %s\n", result.DownloadURL)
		fmt.Printf("Expires:  %s\n", result.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached analytics",
}

var cacheResetCmd = &cobra.Command{
	Use:   "reset [snag-list-id]",
	Short: "Drop cached analytics for one snag list, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			a.SnagLists.Invalidate(cmd.Context(), args[0])
			fmt.Printf("Cache cleared for %s\n", args[0])
			return nil
		}
		if err := a.SnagLists.InvalidateAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Cache cleared")
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup-exports",
	Short: "Delete stored reports past their retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.Reports.Cleanup(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d expired reports\n", removed)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)

	overdueCmd.Flags().Bool("publish", false, "Publish the overdue digest event instead of printing")
	exportCmd.Flags().StringP("format", "f", "pdf", "Report format: pdf or csv")

	cacheCmd.AddCommand(cacheResetCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(overdueCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(cleanupCmd)
}
