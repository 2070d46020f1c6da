package cmd

import (
	"github.com/anisan-cli/anistream/config"
	"github.com/anisan-cli/anistream/provider"
	"github.com/anisan-cli/anistream/style"
	"github.com/anisan-cli/anistream/util"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(providersCmd)
}

func completionProviders(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return provider.New(config.Load()).IDs(), cobra.ShellCompDirectiveNoFileComp
}

// descriptionWidth fits descriptions to the terminal, 72 columns when unknown.
func descriptionWidth() int {
	width, _, err := util.TerminalSize()
	if err != nil {
		return 72
	}
	return util.Clamp(width-4, 30, 100)
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the built-in providers and whether they are configured",
	Run: func(cmd *cobra.Command, args []string) {
		width := descriptionWidth()

		for _, p := range provider.New(config.Load()).All() {
			state := style.Fg(style.OK)("configured")
			if !p.Configured {
				state = style.Fg(style.Failed)("not configured")
			}

			cmd.Printf("%s %s %s\n", style.Bold(p.Name), style.Faint("("+p.ID+")"), state)
			cmd.Println(style.Faint(indent.String(wordwrap.String(p.Description, width), 2)))
		}
	},
}
