package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hackgods/doctor-booking-web/internal/backend"
	"github.com/hackgods/doctor-booking-web/internal/booking"
	"github.com/hackgods/doctor-booking-web/internal/config"
	"github.com/hackgods/doctor-booking-web/internal/slot"
)

type rootOptions struct {
	backendURL string
	token      string
	timeout    time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	defaultURL := "http://localhost:4000"
	defaultTimeout := 10 * time.Second
	if cfg, err := config.Load(); err == nil {
		defaultURL = cfg.BackendURL
		defaultTimeout = cfg.RequestTimeout
	}

	rootCmd := &cobra.Command{
		Use:          "bookingctl",
		Short:        "Talk to the booking backend from the terminal",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.backendURL, "backend", defaultURL, "backend base URL")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("BOOKING_TOKEN"), "session token (or BOOKING_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "per request timeout")

	rootCmd.AddCommand(doctorsCmd(opts))
	rootCmd.AddCommand(slotsCmd(opts))
	rootCmd.AddCommand(appointmentsCmd(opts))
	rootCmd.AddCommand(bookCmd(opts))
	rootCmd.AddCommand(cancelCmd(opts))
	rootCmd.AddCommand(payCmd(opts))
	rootCmd.AddCommand(simulateCmd(opts))
	rootCmd.AddCommand(eventsCmd())

	return rootCmd
}

func (o *rootOptions) client() *backend.Client {
	return backend.NewClient(strings.TrimRight(o.backendURL, "/"), backend.WithTimeout(o.timeout))
}

func (o *rootOptions) requireToken() error {
	if o.token == "" {
		return fmt.Errorf("a session token is required: pass --token or set BOOKING_TOKEN")
	}
	return nil
}

func doctorsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctors",
		Short: "List doctors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := opts.client().ListDoctors(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSPECIALITY\tFEES\tAVAILABLE")
			for _, d := range docs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%t\n", d.ID, d.Name, d.Speciality, d.Fees, d.Available)
			}
			return tw.Flush()
		},
	}
}

func slotsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "slots <docId>",
		Short: "Show the free slots of a doctor for the coming week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := opts.client().ListDoctors(cmd.Context())
			if err != nil {
				return err
			}

			for _, d := range docs {
				if d.ID != args[0] {
					continue
				}
				out := cmd.OutOrStdout()
				for _, day := range slot.Plan(time.Now(), d.SlotsBooked) {
					labels := make([]string, 0, len(day))
					for _, s := range day {
						labels = append(labels, string(s.Label))
					}
					fmt.Fprintf(out, "%s %-10s %s\n", day.Weekday(), day.Key(), strings.Join(labels, ", "))
				}
				return nil
			}
			return fmt.Errorf("doctor %s not found", args[0])
		},
	}
}

func appointmentsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "appointments",
		Short: "List your appointments, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			list, err := opts.client().MyAppointments(cmd.Context(), opts.token)
			if err != nil {
				return err
			}

			reversed := make([]backend.Appointment, len(list))
			for i, a := range list {
				reversed[len(list)-1-i] = a
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDOCTOR\tDATE\tTIME\tSTATUS")
			for _, c := range booking.CardsOf(reversed) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.DoctorName, c.Date, c.Time, status(c))
			}
			return tw.Flush()
		},
	}
}

func status(c booking.Card) string {
	switch {
	case c.Cancelled:
		return "cancelled"
	case c.Completed:
		return "completed"
	case c.Paid:
		return "paid"
	default:
		return "booked"
	}
}

func bookCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "book <docId> <d_m_yyyy> <time>",
		Short:   "Book a slot",
		Example: `  bookingctl book 64f1c2 10_7_2025 "10:30 AM"`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			date := slot.DateKey(args[1])
			if _, _, _, err := slot.ParseDateKey(date); err != nil {
				return err
			}

			msg, err := opts.client().BookAppointment(cmd.Context(), opts.token, backend.BookRequest{
				DocID:    args[0],
				SlotDate: date,
				SlotTime: slot.NormalizeTimeLabel(args[2]),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func cancelCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <appointmentId>",
		Short: "Cancel an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			msg, err := opts.client().CancelAppointment(cmd.Context(), opts.token, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func payCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pay <appointmentId>",
		Short: "Create a payment order for an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			order, err := opts.client().CreatePaymentOrder(cmd.Context(), opts.token, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s: %d %s (receipt %s)\n", order.ID, order.Amount, order.Currency, order.Receipt)
			return nil
		},
	}
}
