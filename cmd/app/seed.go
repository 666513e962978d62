package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
	"course-settlement/internal/infra/api"
	pg "course-settlement/internal/infra/db/postgres"
	"course-settlement/internal/infra/logging"
)

var seedCourses = []model.Course{
	{ID: "course-go-101", Title: "Go from Zero", Price: decimal.RequireFromString("100.00"), InstructorID: "instructor-1"},
	{ID: "course-sql-201", Title: "Practical PostgreSQL", Price: decimal.RequireFromString("249.90"), InstructorID: "instructor-1"},
	{ID: "course-k8s-301", Title: "Kubernetes in Production", Price: decimal.RequireFromString("399.00"), InstructorID: "instructor-2"},
}

var seedSettings = []model.PlatformSetting{
	{Key: model.SettingPlatformFeePercentage, Value: model.DefaultPlatformFeePercentage, Type: model.SettingNumber},
	{Key: model.SettingRefundDaysLimit, Value: fmt.Sprint(model.DefaultRefundDaysLimit), Type: model.SettingNumber},
	{Key: model.SettingMinimumPayout, Value: model.DefaultMinimumPayout, Type: model.SettingNumber},
}

func newSeedCmd(flags *rootFlags) *cobra.Command {
	var tokens bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo courses and default platform settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			log := logging.New(cfg.Log, cfg.Runtime.Dev)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			pool, err := pg.Connect(ctx, cfg.Database.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			courses := pg.NewCourseRepo(pool)
			for i := range seedCourses {
				if err := courses.Upsert(ctx, repository.NoTX, &seedCourses[i]); err != nil {
					return fmt.Errorf("seed course %s: %w", seedCourses[i].ID, err)
				}
			}
			settings := pg.NewSettingsRepo(pool)
			for i := range seedSettings {
				if err := settings.Upsert(ctx, &seedSettings[i]); err != nil {
					return fmt.Errorf("seed setting %s: %w", seedSettings[i].Key, err)
				}
			}
			log.Info().Int("courses", len(seedCourses)).Int("settings", len(seedSettings)).Msg("seed completed")

			if !tokens {
				return nil
			}
			tm := api.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
			for _, a := range []model.Actor{
				{UserID: "student-1", Role: model.RoleStudent},
				{UserID: "instructor-1", Role: model.RoleInstructor},
				{UserID: "admin-1", Role: model.RoleAdmin},
			} {
				tok, err := tm.Mint(a, 24*time.Hour)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n", a.UserID, a.Role, tok)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&tokens, "tokens", false, "print 24h demo session tokens")
	return cmd
}
