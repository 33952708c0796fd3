package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"adventune/folio/postindex"
)

var indexExcludes []string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Write posts/index.json from the posts in the content directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := postindex.Build(cfg.ContentDir, indexExcludes...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d posts\n", len(ids))
		return nil
	},
}

func init() {
	indexCmd.Flags().StringSliceVar(&indexExcludes, "exclude", nil, "glob patterns of post files to leave out")
	rootCmd.AddCommand(indexCmd)
}
