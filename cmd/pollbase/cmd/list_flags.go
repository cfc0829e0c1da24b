package cmd

import (
	"github.com/spf13/cobra"

	pollbase "github.com/pollbase/pollbase-go"
)

// Pagination flags shared by every list command. Only one command runs per
// invocation, so package-level flag storage is safe.
var (
	pageFlag    int
	perPageFlag int
	searchFlag  string
	statusFlag  string
)

func addListFlags(c *cobra.Command) {
	c.Flags().IntVar(&pageFlag, "page", 0, "page number (server default when omitted)")
	c.Flags().IntVar(&perPageFlag, "per-page", 0, "results per page")
	c.Flags().StringVar(&searchFlag, "search", "", "free-text search filter")
	c.Flags().StringVar(&statusFlag, "status", "", "filter by status")
}

func listOpts() pollbase.ListOptions {
	return pollbase.ListOptions{
		Page:    pageFlag,
		PerPage: perPageFlag,
		Search:  searchFlag,
		Status:  statusFlag,
	}
}
