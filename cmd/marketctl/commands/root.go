package commands

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type globals struct {
	bookingsURL     string
	reservationsURL string
	catalogURL      string
	timeout         time.Duration
}

func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the full command tree with fresh flag state.
func NewRootCommand() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:          "marketctl",
		Short:        "Operate the marketplace bookings, reservations and catalog services",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&g.bookingsURL, "bookings-url", envOr("BOOKINGS_URL", "http://localhost:8080"), "provider bookings service base URL")
	root.PersistentFlags().StringVar(&g.reservationsURL, "reservations-url", envOr("RESERVATIONS_URL", "http://localhost:8081"), "customer reservations service base URL")
	root.PersistentFlags().StringVar(&g.catalogURL, "catalog-url", envOr("CATALOG_URL", "http://localhost:8082"), "catalog service base URL")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 10*time.Second, "per-request timeout")

	root.AddCommand(bookingsCmd(g), reservationsCmd(g), catalogCmd(g), waitCmd(g))
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
