package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"marketplace/pkg/client"
	"marketplace/pkg/model"
)

func bookingsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Manage provider bookings",
	}

	cmd.AddCommand(
		bookingsListCmd(g),
		bookingsGetCmd(g),
		bookingsCreateCmd(g),
		bookingsStatsCmd(g),
		bookingsRejectCmd(g),
	)
	for _, op := range []model.BookingOp{model.OpAccept, model.OpStart, model.OpComplete, model.OpCancel} {
		cmd.AddCommand(bookingsTransitionCmd(g, op))
	}
	return cmd
}

func bookingClient(g *globals) *client.BookingClient {
	return client.NewBookingClient(g.bookingsURL, g.timeout)
}

func bookingsListCmd(g *globals) *cobra.Command {
	var (
		search string
		status string
		limit  int
		offset int64
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookings, optionally filtered by search text and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bookings, meta, err := bookingClient(g).List(cmd.Context(), search, status, limit, offset)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"data": bookings, "metadata": meta})
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "match service, customer name or notes")
	cmd.Flags().StringVar(&status, "status", "all", "pending, confirmed, in_progress, completed, cancelled or all")
	cmd.Flags().IntVar(&limit, "limit", 50, "page size")
	cmd.Flags().Int64Var(&offset, "offset", 0, "page offset")
	return cmd
}

func bookingsGetCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			booking, err := bookingClient(g).GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), booking)
		},
	}
}

func bookingsCreateCmd(g *globals) *cobra.Command {
	var (
		intake         model.BookingIntake
		scheduledAt    string
		idempotencyKey string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a pending booking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := time.Parse(time.RFC3339, scheduledAt)
			if err != nil {
				return fmt.Errorf("invalid --at %q: expected RFC3339", scheduledAt)
			}
			intake.ScheduledAt = at

			booking, err := bookingClient(g).Create(cmd.Context(), intake, idempotencyKey)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), booking)
		},
	}
	cmd.Flags().StringVar(&intake.CustomerName, "customer", "", "customer name")
	cmd.Flags().StringVar(&intake.CustomerPhone, "phone", "", "customer phone number")
	cmd.Flags().StringVar(&intake.ServiceLabel, "service", "", "service label")
	cmd.Flags().StringVar(&intake.Notes, "notes", "", "free-form notes")
	cmd.Flags().Float64Var(&intake.Price, "price", 0, "price")
	cmd.Flags().StringVar(&scheduledAt, "at", "", "scheduled time, RFC3339")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "replay-safe request key")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("service")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func bookingsStatsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show pending count, completed count and revenue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := bookingClient(g).Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}

func bookingsTransitionCmd(g *globals, op model.BookingOp) *cobra.Command {
	return &cobra.Command{
		Use:   string(op) + " <id>",
		Short: fmt.Sprintf("Apply %s to a booking", op),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			booking, err := bookingClient(g).Transition(cmd.Context(), args[0], op, "")
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), booking)
		},
	}
}

func bookingsRejectCmd(g *globals) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a pending booking and notify the customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := bookingClient(g).Transition(cmd.Context(), args[0], model.OpReject, reason); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rejected %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason sent to the customer")
	return cmd
}
