package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hackgods/doctor-booking-web/internal/db"
	"github.com/hackgods/doctor-booking-web/internal/events"
)

func eventsCmd() *cobra.Command {
	var (
		dsn   string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the latest recorded booking events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return fmt.Errorf("a postgres dsn is required: pass --postgres or set POSTGRES_DSN")
			}

			pool, err := db.ConnectPostgres(cmd.Context(), dsn, "bookingctl")
			if err != nil {
				return err
			}
			defer pool.Close()

			list, err := events.NewPgRecorder(pool).Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tAT\tTYPE\tAPPOINTMENT\tPAYLOAD")
			for _, ev := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
					ev.ID, ev.CreatedAt.Format(time.RFC3339), ev.EventType, ev.AppointmentID, ev.Payload)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&dsn, "postgres", os.Getenv("POSTGRES_DSN"), "event log database")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of events, at most 100")
	return cmd
}
