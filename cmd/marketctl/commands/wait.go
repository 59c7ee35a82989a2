package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"marketplace/pkg/client"
)

func waitCmd(g *globals) *cobra.Command {
	var maxWait time.Duration
	cmd := &cobra.Command{
		Use:   "wait [bookings|reservations|catalog]...",
		Short: "Block until the named services answer /health (all three by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := map[string]string{
				"bookings":     g.bookingsURL,
				"reservations": g.reservationsURL,
				"catalog":      g.catalogURL,
			}
			if len(args) == 0 {
				args = []string{"bookings", "reservations", "catalog"}
			}
			for _, name := range args {
				url, ok := urls[name]
				if !ok {
					return fmt.Errorf("unknown service %q", name)
				}
				if err := client.NewHttpClient(url, g.timeout).WaitForHealthy(cmd.Context(), maxWait); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s healthy\n", name)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&maxWait, "max", 30*time.Second, "give up after this long")
	return cmd
}
