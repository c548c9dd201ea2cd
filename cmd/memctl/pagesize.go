package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/internal/pages"
)

func init() {
	rootCmd.AddCommand(newPageSizeCmd())
}

func newPageSizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pagesize",
		Short: "Print the operating system page size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPageSize()
		},
	}
}

type pageSizeResult struct {
	PageSize int `json:"page_size"`
}

func runPageSize() error {
	ps := pages.Size()
	if jsonOut {
		return printJSON(pageSizeResult{PageSize: ps})
	}
	printInfo("%s bytes\n", formatNumber(int64(ps)))
	return nil
}
