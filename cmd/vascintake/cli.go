package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vascintake/vascintake/internal/config"
	"github.com/vascintake/vascintake/internal/domain/coding"
	"github.com/vascintake/vascintake/internal/domain/interview"
	"github.com/vascintake/vascintake/internal/platform/db"
)

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest codes for an intake interview using the built-in catalog",
		Example: `  vascintake suggest --conditions pad --checked leg_pain_walking,night_pain
  vascintake suggest --conditions pad,carotid --answers '{"pain_location":{"text":"right calf"}}' --new-patient`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conditions, _ := cmd.Flags().GetStringSlice("conditions")
			answersJSON, _ := cmd.Flags().GetString("answers")
			checked, _ := cmd.Flags().GetStringSlice("checked")
			newPatient, _ := cmd.Flags().GetBool("new-patient")
			withFHIR, _ := cmd.Flags().GetBool("fhir")

			answers, err := parseAnswers(answersJSON, checked)
			if err != nil {
				return err
			}
			svc := coding.NewService(nil, nil, nil, zerolog.Nop())
			resp, err := svc.Suggest(cmd.Context(), &coding.SuggestionRequest{
				Conditions: conditions,
				Answers:    answers,
				Visit:      interview.VisitContext{NewPatient: newPatient},
			}, withFHIR)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringSlice("conditions", nil, "Condition ids in visit order (pad, venous, carotid, wound, dialysis, aaa, dvt)")
	cmd.Flags().String("answers", "", "Interview answers as a JSON object keyed by question id")
	cmd.Flags().StringSlice("checked", nil, "Question ids to mark as checked")
	cmd.Flags().Bool("new-patient", false, "Use the new patient E&M ladder")
	cmd.Flags().Bool("fhir", false, "Include FHIR CodeableConcepts")
	return cmd
}

// parseAnswers merges a JSON answer object with a list of checked ids.
func parseAnswers(answersJSON string, checked []string) (interview.Answers, error) {
	answers := interview.Answers{}
	if strings.TrimSpace(answersJSON) != "" {
		if err := json.Unmarshal([]byte(answersJSON), &answers); err != nil {
			return nil, fmt.Errorf("parse --answers: %w", err)
		}
	}
	for _, id := range checked {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		a := answers[id]
		a.Checked = true
		answers[id] = a
	}
	return answers, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func rvuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rvu CODE...",
		Short: "Sum the relative value units of CPT codes in the active catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, cleanup, err := activeCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			writeRVUTable(cmd.OutOrStdout(), cat, args)
			return nil
		},
	}
}

func writeRVUTable(out io.Writer, cat *coding.Catalog, codes []string) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tRVU\tDESCRIPTION")
	for _, code := range codes {
		fmt.Fprintf(w, "%s\t%.2f\t%s\n", code, cat.RVU(code), cat.ProcedureDescription(code))
	}
	fmt.Fprintf(w, "TOTAL\t%.2f\t\n", coding.NewEngine(cat).CalculateRVU(codes))
	w.Flush()
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the code catalog",
	}

	// catalog seed
	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Write the built-in catalog to the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			logger := newLogger(cfg)

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := coding.NewService(nil, coding.NewCatalogRepoPG(pool), nil, logger)
			var dx, px int
			err = db.WithTx(ctx, pool, func(ctx context.Context) error {
				dx, px, err = svc.Seed(ctx)
				return err
			})
			if err != nil {
				return fmt.Errorf("seed catalog: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d ICD-10-CM and %d CPT codes.\n", dx, px)
			return nil
		},
	})

	// catalog list
	listCmd := &cobra.Command{
		Use:       "list [icd10|cpt]",
		Short:     "List catalog codes",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"icd10", "cpt"},
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")
			cat, cleanup, err := activeCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			svc := coding.NewService(coding.NewEngine(cat), nil, nil, zerolog.Nop())
			writeCatalogList(cmd.OutOrStdout(), svc, args[0], category)
			return nil
		},
	}
	listCmd.Flags().String("category", "", "Only list codes in this category")
	cmd.AddCommand(listCmd)

	// catalog check
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Report rule codes missing from the active catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, cleanup, err := activeCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			dx, px := cat.MissingCodes()
			out := cmd.OutOrStdout()
			if len(dx)+len(px) == 0 {
				fmt.Fprintln(out, "All referenced codes are present.")
				return nil
			}
			fmt.Fprintf(out, "Missing ICD-10-CM: %s\n", strings.Join(dx, ", "))
			fmt.Fprintf(out, "Missing CPT: %s\n", strings.Join(px, ", "))
			return fmt.Errorf("%d codes missing", len(dx)+len(px))
		},
	})

	return cmd
}

// activeCatalog loads the catalog selected by CATALOG_SOURCE.
func activeCatalog(ctx context.Context) (*coding.Catalog, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.CatalogSource != config.CatalogPostgres {
		return coding.BuiltinCatalog(), func() {}, nil
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	cat, err := coding.LoadCatalog(ctx, coding.NewCatalogRepoPG(pool), zerolog.Nop())
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return cat, pool.Close, nil
}

func writeCatalogList(out io.Writer, svc *coding.Service, system, category string) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	switch system {
	case "icd10":
		fmt.Fprintln(w, "CODE\tCATEGORY\tSIDE\tDESCRIPTION")
		for _, d := range svc.ListDiagnoses(category) {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Code, d.Category, d.Laterality, d.Description)
		}
	case "cpt":
		fmt.Fprintln(w, "CODE\tCATEGORY\tRVU\tDESCRIPTION")
		for _, p := range svc.ListProcedures(category) {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", p.Code, p.Category, p.RVU, p.Description)
		}
	}
	w.Flush()
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	})

	// migrate status
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				writeMigrationStatus(cmd.OutOrStdout(), statuses)
				return nil
			})
		},
	})

	return cmd
}

func withMigrator(fn func(ctx context.Context, m *db.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, db.NewMigrator(pool, db.Migrations()))
}

func writeMigrationStatus(out io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(out, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}
