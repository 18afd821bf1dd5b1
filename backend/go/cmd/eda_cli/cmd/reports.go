package cmd

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var outputDir string

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List and download generated slide decks",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List generated reports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		var items []struct {
			Name      string    `json:"name"`
			Size      int64     `json:"size"`
			CreatedAt time.Time `json:"created_at"`
		}
		if err := c.call(cmd.Context(), http.MethodGet, "/reports", nil, &items); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, "No report yet.")
			return nil
		}
		for _, it := range items {
			fmt.Fprintf(out, "%s\t%d bytes\t%s\n", it.Name, it.Size, it.CreatedAt.Format(time.RFC3339))
		}
		return nil
	},
}

var reportsDownloadCmd = &cobra.Command{
	Use:   "download [name]",
	Short: "Download a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		name := filepath.Base(args[0])
		resp, err := c.do(cmd.Context(), http.MethodGet, "/reports/download/"+url.PathEscape(name), "", nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return err
		}
		dst := filepath.Join(outputDir, name)
		f, err := os.Create(dst)
		if err != nil {
			return err
		}
		n, err := io.Copy(f, resp.Body)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", dst, n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportsCmd)
	reportsCmd.AddCommand(reportsListCmd, reportsDownloadCmd)
	reportsDownloadCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "directory to save the report into")
}
