package cmd

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Manage datasets stored by the API",
}

var datasetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored datasets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		var items []struct {
			DatasetID string `json:"dataset_id"`
			Path      string `json:"path"`
			Ext       string `json:"ext"`
		}
		if err := c.call(cmd.Context(), http.MethodGet, "/datasets/", nil, &items); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, "No datasets.")
			return nil
		}
		for _, it := range items {
			fmt.Fprintf(out, "%s\t%s\t%s\n", it.DatasetID, it.Ext, it.Path)
		}
		return nil
	},
}

var datasetsUploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload a .csv or .xlsx file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		body, contentType, err := multipartFile(args[0])
		if err != nil {
			return err
		}
		resp, err := c.do(cmd.Context(), http.MethodPost, "/datasets/upload", contentType, body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		var result map[string]any
		if err := jsonDecode(resp.Body, &result); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

var datasetsShowCmd = &cobra.Command{
	Use:   "show [dataset_id]",
	Short: "Show the stored record of a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		var result map[string]any
		if err := c.call(cmd.Context(), http.MethodGet, "/datasets/"+url.PathEscape(args[0]), nil, &result); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

var datasetsDeleteCmd = &cobra.Command{
	Use:   "delete [dataset_id]",
	Short: "Delete a dataset file and its record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := c.call(cmd.Context(), http.MethodDelete, "/datasets/"+url.PathEscape(args[0]), nil, nil); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
	datasetsCmd.AddCommand(datasetsListCmd, datasetsUploadCmd, datasetsShowCmd, datasetsDeleteCmd)
}

func multipartFile(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
