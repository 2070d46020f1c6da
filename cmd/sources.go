package cmd

import (
	"github.com/anisan-cli/anistream/resolve"
	"github.com/anisan-cli/anistream/source"
	"github.com/anisan-cli/anistream/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sourcesCmd)

	sourcesCmd.Flags().StringP("provider", "p", "", "Provider id")
	sourcesCmd.Flags().StringP("episode", "e", "", "Episode id as listed by the provider")
	sourcesCmd.Flags().Float64P("number", "n", 0, "Episode number")
	sourcesCmd.Flags().String("show", "", "Show id")
	sourcesCmd.Flags().StringP("track", "t", string(source.Sub), "Audio track, sub or dub")
	sourcesCmd.Flags().String("show-session", "", "Show session token of session-based providers")
	sourcesCmd.Flags().String("episode-session", "", "Episode session token of session-based providers")
	sourcesCmd.Flags().BoolP("json", "j", false, "Print the resolution as JSON")

	lo.Must0(sourcesCmd.MarkFlagRequired("provider"))
	lo.Must0(sourcesCmd.RegisterFlagCompletionFunc("provider", completionProviders))
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Resolve an episode to playable, proxy-routed sources",
	Run: func(cmd *cobra.Command, args []string) {
		c, err := newCore()
		handleErr(err)

		flags := cmd.Flags()
		req := resolve.Request{
			ProviderID:     lo.Must(flags.GetString("provider")),
			EpisodeID:      lo.Must(flags.GetString("episode")),
			EpisodeNumber:  lo.Must(flags.GetFloat64("number")),
			ShowID:         lo.Must(flags.GetString("show")),
			AudioTrack:     lo.Must(flags.GetString("track")),
			ShowSession:    lo.Must(flags.GetString("show-session")),
			EpisodeSession: lo.Must(flags.GetString("episode-session")),
		}

		res, err := c.resolver.Resolve(cmd.Context(), req)
		handleErr(err)

		if lo.Must(flags.GetBool("json")) {
			printJSON(cmd, res)
			return
		}

		if res.Empty() {
			cmd.Println(style.Fg(style.Degraded)("no sources"))
			return
		}

		for _, s := range res.Sources {
			cmd.Printf("%s %s\n", style.Tag(style.Gray, "")(s.Quality), s.URL)
		}
		for _, s := range res.Subtitles {
			cmd.Printf("%s %s\n", style.Faint(s.Lang), s.URL)
		}
	},
}
