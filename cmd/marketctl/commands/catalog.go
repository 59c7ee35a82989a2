package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"marketplace/pkg/client"
	"marketplace/pkg/model"
)

func catalogCmd(g *globals) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage events and discoveries",
	}
	cmd.PersistentFlags().StringVar(&kind, "kind", string(model.KindEvent), "event or discovery")

	cmd.AddCommand(
		catalogListCmd(g, &kind),
		catalogStatsCmd(g, &kind),
		catalogCreateCmd(g, &kind),
	)
	return cmd
}

func catalogKind(s string) (model.CatalogKind, error) {
	switch model.CatalogKind(s) {
	case model.KindEvent, model.KindDiscovery:
		return model.CatalogKind(s), nil
	}
	return "", fmt.Errorf("unknown kind %q: expected event or discovery", s)
}

func catalogClient(g *globals) *client.CatalogClient {
	return client.NewCatalogClient(g.catalogURL, g.timeout)
}

func catalogListCmd(g *globals, kindFlag *string) *cobra.Command {
	var (
		search string
		status string
		limit  int
		offset int64
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := catalogKind(*kindFlag)
			if err != nil {
				return err
			}
			items, meta, err := catalogClient(g).List(cmd.Context(), kind, search, status, limit, offset)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"data": items, "metadata": meta})
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "match title, description or tags")
	cmd.Flags().StringVar(&status, "status", "all", "active, inactive, draft or all")
	cmd.Flags().IntVar(&limit, "limit", 50, "page size")
	cmd.Flags().Int64Var(&offset, "offset", 0, "page offset")
	return cmd
}

func catalogStatsCmd(g *globals, kindFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals, upcoming count, rating and fill conversion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := catalogKind(*kindFlag)
			if err != nil {
				return err
			}
			summary, err := catalogClient(g).Stats(cmd.Context(), kind)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
}

func catalogCreateCmd(g *globals, kindFlag *string) *cobra.Command {
	var (
		input model.CatalogInput
		date  string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a catalog item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := catalogKind(*kindFlag)
			if err != nil {
				return err
			}
			at, err := time.Parse(time.RFC3339, date)
			if err != nil {
				return fmt.Errorf("invalid --date %q: expected RFC3339", date)
			}
			input.Date = at

			entry, err := catalogClient(g).Create(cmd.Context(), kind, input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entry)
		},
	}
	cmd.Flags().StringVar(&input.Title, "title", "", "title")
	cmd.Flags().StringVar(&input.Description, "description", "", "description")
	cmd.Flags().StringVar(&input.Category, "category", "", "category")
	cmd.Flags().StringVar(&input.Location, "location", "", "location")
	cmd.Flags().StringVar(&date, "date", "", "date, RFC3339")
	cmd.Flags().StringVar(&input.Status, "status", "", "active, inactive or draft")
	cmd.Flags().Float64Var(&input.Rating, "rating", 0, "rating between 0 and 5")
	cmd.Flags().IntVar(&input.Participants, "participants", 0, "current participants")
	cmd.Flags().IntVar(&input.Capacity, "capacity", 0, "capacity, 0 for unlimited")
	cmd.Flags().Float64Var(&input.Price, "price", 0, "price")
	cmd.Flags().StringSliceVar(&input.Tags, "tags", nil, "comma-separated tags")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}
