package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/0x0BSoD/noticeboard/internal/fetcher"
)

func newCrawlCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl <org>",
		Short: "Crawl every section of one organization now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.seedKeywords(cmd.Context()); err != nil {
				return err
			}

			res, err := a.svc.TriggerCrawl(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printJSON(cmd, res)
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var reg fetcher.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Start tracking a section and crawl it once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.seedKeywords(cmd.Context()); err != nil {
				return err
			}

			sec, res, err := a.svc.RegisterSection(cmd.Context(), reg)
			if err != nil && sec == nil {
				return err
			}
			if err := printJSON(cmd, map[string]any{"section": sec, "crawl": res}); err != nil {
				return err
			}

			return err
		},
	}

	cmd.Flags().StringVar(&reg.Organization, "org", "", "organization name")
	cmd.Flags().StringVar(&reg.BaseURL, "base", "", "organization base url")
	cmd.Flags().StringVar(&reg.SectionName, "name", "", "section name")
	cmd.Flags().StringVar(&reg.SectionPath, "path", "", "section path relative to the base url")
	for _, name := range []string{"org", "base", "name", "path"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword,...>",
		Short: "Search stored notices by keyword",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notices, err := a.svc.Search(cmd.Context(), strings.Split(strings.Join(args, ","), ","))
			if err != nil {
				return err
			}

			return printJSON(cmd, notices)
		},
	}
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.migrate(cmd.Context())
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
