package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"marketplace/pkg/client"
	"marketplace/pkg/model"
)

type sessionFlags struct {
	userID string
	token  string
}

func reservationsCmd(g *globals) *cobra.Command {
	s := &sessionFlags{}
	cmd := &cobra.Command{
		Use:   "reservations",
		Short: "Browse and cancel a customer's reservations across all domains",
	}
	cmd.PersistentFlags().StringVar(&s.userID, "user", envOr("MARKETPLACE_USER", ""), "customer user id")
	cmd.PersistentFlags().StringVar(&s.token, "token", envOr("MARKETPLACE_TOKEN", ""), "backend bearer token for the customer")

	cmd.AddCommand(
		reservationsLoadCmd(g, s),
		reservationsPanelCmd(g, s),
		reservationsCancelCmd(g, s),
	)
	return cmd
}

// withSession opens a session for one command and closes it afterwards.
func withSession(ctx context.Context, g *globals, s *sessionFlags, fn func(*client.ReservationClient) error) error {
	if s.userID == "" || s.token == "" {
		return fmt.Errorf("--user and --token are required")
	}
	c := client.NewReservationClient(g.reservationsURL, g.timeout)
	if _, err := c.OpenSession(ctx, s.userID, s.token); err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer func() { _ = c.CloseSession(context.WithoutCancel(ctx)) }()
	return fn(c)
}

func parseDomain(s string) (model.Domain, error) {
	d, ok := model.ParseDomain(s)
	if !ok {
		return "", fmt.Errorf("unknown domain %q: expected lodging, service, ticket or flight", s)
	}
	return d, nil
}

func reservationsLoadCmd(g *globals, s *sessionFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load every domain panel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), g, s, func(c *client.ReservationClient) error {
				panels, err := c.Load(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), panels)
			})
		},
	}
}

func reservationsPanelCmd(g *globals, s *sessionFlags) *cobra.Command {
	var search, status string
	cmd := &cobra.Command{
		Use:   "panel <domain>",
		Short: "Show one domain panel, optionally filtered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := parseDomain(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), g, s, func(c *client.ReservationClient) error {
				if _, err := c.Load(cmd.Context()); err != nil {
					return err
				}
				if status != "" {
					if _, err := c.SetFilter(cmd.Context(), domain, status); err != nil {
						return err
					}
				}
				panel, err := c.Panel(cmd.Context(), domain, search)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), panel)
			})
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "match card title or subtitle")
	cmd.Flags().StringVar(&status, "status", "", "canonical status filter, or all")
	return cmd
}

func reservationsCancelCmd(g *globals, s *sessionFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <domain> <id>",
		Short: "Cancel a reservation through its domain backend",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := parseDomain(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), g, s, func(c *client.ReservationClient) error {
				if _, err := c.Load(cmd.Context()); err != nil {
					return err
				}
				card, err := c.Cancel(cmd.Context(), domain, args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), card)
			})
		},
	}
}
