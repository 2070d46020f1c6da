package cmd

import (
	"errors"

	"github.com/anisan-cli/anistream/filesystem"
	"github.com/anisan-cli/anistream/hls"
	"github.com/anisan-cli/anistream/key"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(rewriteCmd)

	rewriteCmd.Flags().StringP("base", "b", "", "URL the playlist was fetched from")
	rewriteCmd.Flags().String("proxy", "", "Proxy base URL, defaults to "+key.ProxyBaseURL)
	rewriteCmd.Flags().StringP("headers", "H", "", `Upstream headers as JSON, e.g. {"Referer":"https://..."}`)
	lo.Must0(rewriteCmd.MarkFlagRequired("base"))
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [file|-]",
	Short: "Rewrite an HLS playlist so every reference goes through the proxy",
	Long:  "Rewrite an HLS playlist read from a file, or stdin when no file is given, and print it.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			base      = lo.Must(cmd.Flags().GetString("base"))
			proxyBase = lo.Must(cmd.Flags().GetString("proxy"))
		)

		if proxyBase == "" {
			proxyBase = viper.GetString(key.ProxyBaseURL)
		}
		if proxyBase == "" {
			handleErr(errors.New("--proxy or " + key.ProxyBaseURL + " is required"))
		}

		headers, err := hls.ParseHeaders(lo.Must(cmd.Flags().GetString("headers")))
		handleErr(err)

		playlist, err := filesystem.ReadInput(lo.FirstOr(args, ""), cmd.InOrStdin())
		handleErr(err)

		cmd.Print(hls.Rewrite(string(playlist), hls.BaseURL(base), headers, proxyBase))
	},
}
