package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/anisan-cli/anistream/aggregate"
	"github.com/anisan-cli/anistream/source"
	"github.com/anisan-cli/anistream/style"
	"github.com/anisan-cli/anistream/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(episodesCmd)
	episodesCmd.Flags().BoolP("json", "j", false, "Print the listing as JSON")

	rootCmd.AddCommand(bulkCmd)
	bulkCmd.Flags().BoolP("json", "j", false, "Print the result as JSON")
}

var episodesCmd = &cobra.Command{
	Use:   "episodes <show-id>",
	Short: "List the episodes every configured provider has for a show",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := newCore()
		handleErr(err)

		lists, details, err := c.aggregator.Report(cmd.Context(), args[0])
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			printJSON(cmd, lists)
			return
		}

		cmd.Println(style.Title(args[0]))
		for _, d := range details {
			cmd.Println(detailLine(d))
		}
	},
}

var bulkCmd = &cobra.Command{
	Use:   "bulk <show-id>...",
	Short: "List episodes for several shows, one after another",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := newCore()
		handleErr(err)

		res, err := c.aggregator.Bulk(cmd.Context(), args, c.aggregator.Limit(true))
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			printJSON(cmd, res)
			return
		}

		for _, r := range res.Results {
			total := lo.SumBy(r.Providers, func(l source.ProviderEpisodeList) int { return l.Count() })
			cmd.Printf("%s %s\n", style.Fg(style.OK)("●"), style.Bold(r.ID))
			cmd.Println(style.Faint("  " + util.Quantify(total, "episode", "episodes") + " across " + util.Quantify(len(r.Providers), "provider", "providers")))
		}
		for _, e := range res.Errors {
			cmd.Printf("%s %s %s\n", style.Fg(style.Failed)("●"), style.Bold(e.ID), style.Faint(e.Error))
		}
	},
}

func detailLine(d aggregate.Detail) string {
	var dot string
	switch d.Status {
	case aggregate.StatusOK:
		dot = style.Fg(style.OK)("●")
	case aggregate.StatusEmpty:
		dot = style.Fg(style.Degraded)("●")
	default:
		dot = style.Fg(style.Failed)("●")
	}

	line := fmt.Sprintf("%s %s %s", dot, style.Bold(d.ProviderID), style.Faint(util.Quantify(d.Episodes, "episode", "episodes")))
	if d.Error != "" {
		line += " " + style.Fg(style.Failed)(d.Error)
	}
	return line
}

func printJSON(cmd *cobra.Command, v any) {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	handleErr(encoder.Encode(v))
}
