package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/dazedniteman/pathpal-crm/modules/crm/domain/dataimport"
	"github.com/dazedniteman/pathpal-crm/modules/crm/infrastructure/persistence"
	"github.com/dazedniteman/pathpal-crm/modules/crm/services"
	"github.com/dazedniteman/pathpal-crm/pkg/composables"
	"github.com/dazedniteman/pathpal-crm/pkg/configuration"
	"github.com/dazedniteman/pathpal-crm/pkg/eventbus"
)

type importOptions struct {
	Delimiter   string
	Mapping     []string
	OnDuplicate string
	Force       bool
	DryRun      bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Run a contact import against the database without the review UI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			conf := configuration.Use()
			logger := conf.Logger()

			delim := conf.Import.Delimiter()
			if opts.Delimiter != "" {
				runes := []rune(opts.Delimiter)
				if len(runes) != 1 {
					return errors.New("--delimiter must be a single character")
				}
				delim = runes[0]
			}

			resolution := dataimport.ResolutionUpdate
			if opts.OnDuplicate != "" {
				parsed, ok := dataimport.ParseResolution(opts.OnDuplicate)
				if !ok {
					return errors.New("--on-duplicate must be skip, update, or insert_as_new")
				}
				resolution = parsed
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			pool, err := pgxpool.New(ctx, conf.Database.Opts)
			if err != nil {
				return err
			}
			defer pool.Close()
			ctx = composables.WithPool(ctx, pool)

			svc := services.NewImportService(
				persistence.NewContactRepository(),
				eventbus.NewEventPublisher(logger),
				logger,
				time.Duration(conf.Import.SessionTTLMinutes)*time.Minute,
			)

			session, err := svc.Start(string(data), delim)
			if err != nil {
				return err
			}

			if len(opts.Mapping) > 0 {
				mapping := session.Mapping()
				for _, pair := range opts.Mapping {
					header, field, found := strings.Cut(pair, "=")
					if !found {
						return fmt.Errorf("invalid --map value %q, expected header=field", pair)
					}
					mapping[header] = dataimport.ParseField(field)
				}
				if _, err := svc.SetMapping(session.ID(), mapping); err != nil {
					return err
				}
			}

			session, err = svc.Review(ctx, session.ID())
			if err != nil {
				return err
			}

			for _, fr := range session.FailedRows() {
				for _, fe := range fr.Errors {
					fmt.Fprintf(os.Stderr, "row %d: %s: %s\n", fr.RowIndex, fe.Header, fe.Message)
				}
			}
			if len(session.FailedRows()) > 0 && !opts.Force {
				return fmt.Errorf("%d rows failed validation; fix the file or pass --force to drop them", len(session.FailedRows()))
			}

			for i := range session.Duplicates() {
				if err := svc.SetResolution(session.ID(), i, resolution); err != nil {
					return err
				}
			}

			if opts.DryRun {
				out := map[string]any{
					"parsed":     len(session.Table().Rows),
					"clean":      len(session.Candidates()),
					"failed":     len(session.FailedRows()),
					"duplicates": len(session.Duplicates()),
					"new":        len(session.NewRecords()),
				}
				return printJSON(out)
			}

			report, err := svc.Commit(ctx, session.ID(), opts.Force)
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}

	cmd.Flags().StringVar(&opts.Delimiter, "delimiter", "", "field delimiter (defaults to IMPORT_DEFAULT_DELIMITER)")
	cmd.Flags().StringArrayVar(&opts.Mapping, "map", nil, "override a guessed column mapping, header=field (repeatable)")
	cmd.Flags().StringVar(&opts.OnDuplicate, "on-duplicate", "update", "resolution applied to every duplicate (skip|update|insert_as_new)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "commit even when rows fail validation, dropping them")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "stop after validation and matching, print a summary only")

	return cmd
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
