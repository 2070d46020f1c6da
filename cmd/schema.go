package cmd

import (
	"fmt"
	"strings"

	"github.com/anisan-cli/anistream/aggregate"
	"github.com/anisan-cli/anistream/resolve"
	"github.com/anisan-cli/anistream/source"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// episodeListSchema mirrors the JSON shape ProviderEpisodeList marshals to.
type episodeListSchema struct {
	ProviderID string `json:"providerId"`
	Consumet   bool   `json:"consumet"`
	Episodes   struct {
		Sub []source.EpisodeRef `json:"sub"`
		Dub []source.EpisodeRef `json:"dub"`
	} `json:"episodes"`
}

var schemaTypes = map[string]any{
	"episodes":   []episodeListSchema{},
	"bulk":       aggregate.BulkResult{},
	"request":    resolve.Request{},
	"resolution": source.Resolution{},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

var schemaCmd = &cobra.Command{
	Use:       "schema <" + strings.Join(lo.Keys(schemaTypes), "|") + ">",
	Short:     "Print the JSON schema of an API payload",
	Args:      cobra.ExactArgs(1),
	ValidArgs: lo.Keys(schemaTypes),
	Run: func(cmd *cobra.Command, args []string) {
		v, ok := schemaTypes[args[0]]
		if !ok {
			handleErr(fmt.Errorf("unknown payload %q", args[0]))
		}

		r := &jsonschema.Reflector{DoNotReference: true}
		printJSON(cmd, r.Reflect(v))
	},
}
