package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"adventune/folio/events"
	"adventune/folio/router"
	"adventune/folio/view"
)

var (
	renderJSON  bool
	renderPlain bool
)

// renderedView is what render --json prints.
type renderedView struct {
	HTML       string           `json:"html"`
	Components []view.Component `json:"components"`
	Options    events.Options   `json:"options"`
}

var renderCmd = &cobra.Command{
	Use:   "render [fragment]",
	Short: "Render the view for a URL fragment and print it",
	Long: `Render navigates a fresh page to the given fragment (for example "#my-post",
or nothing for the posts listing) and prints the resulting markup.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fragment := ""
		if len(args) == 1 {
			fragment = args[0]
		}

		pages, err := newPages(cfg)
		if err != nil {
			return err
		}
		shell, err := readShell(cfg)
		if err != nil {
			return err
		}

		bus := events.NewBus()
		if !renderPlain {
			subscribeCollaborators(bus, cfg)
		}
		var out renderedView
		bus.Subscribe(events.SubscriberFunc(func(ctx context.Context, ev events.ContentReady) {
			out = renderedView{HTML: ev.Root.HTML(), Components: ev.Components, Options: ev.Options}
		}))

		repo := repositoryFactory(cfg)()
		rt := router.New(repo, view.NewMemory(shell), bus, pages)
		state := rt.Start(cmd.Context(), fragment)
		log.Debug().Stringer("state", state).Interface("components", out.Components).Msg("Rendered")

		if renderJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), out.HTML)
		return err
	},
}

func init() {
	renderCmd.Flags().BoolVar(&renderJSON, "json", false, "print markup, components and options as JSON")
	renderCmd.Flags().BoolVar(&renderPlain, "plain", false, "skip highlighting, popups and diffusion")
	rootCmd.AddCommand(renderCmd)
}
