package main

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"strconv"

	"github.com/emzola/biblioteca/service"
	"github.com/spf13/cobra"
)

//go:embed seed/books.yaml
var defaultCatalog []byte

func newSeedCmd(c *cli) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import a seed catalog, skipping books that already exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = bytes.NewReader(defaultCatalog)
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			catalog, err := service.ReadSeedCatalog(r)
			if err != nil {
				return err
			}

			db, repo, err := c.openRepository(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer db.Close()
			svc, err := service.New(c.config, c.logger, repo, nil)
			if err != nil {
				return err
			}
			result, err := svc.Seed(cmd.Context(), catalog)
			if err != nil {
				return err
			}
			c.logger.PrintInfo("seed finished", map[string]string{
				"created": strconv.Itoa(result.Created),
				"skipped": strconv.Itoa(result.Skipped),
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML seed catalog (defaults to the bundled catalog)")
	return cmd
}
