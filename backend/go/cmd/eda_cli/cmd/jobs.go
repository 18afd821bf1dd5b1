package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var (
	runTheme string
	runColor string
	runWatch bool
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Run the pipeline and inspect jobs",
}

var jobsRunCmd = &cobra.Command{
	Use:   "run [dataset_id]",
	Short: "Run EDA and build the slide deck for a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		q := url.Values{"dataset_id": {args[0]}}
		if runTheme != "" {
			q.Set("theme", runTheme)
		}
		if runColor != "" {
			q.Set("color", runColor)
		}
		var result struct {
			JobID  string         `json:"job_id"`
			Status string         `json:"status"`
			Result map[string]any `json:"result"`
		}
		if err := c.call(cmd.Context(), http.MethodPost, "/jobs/run?"+q.Encode(), nil, &result); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if result.Status == "queued" {
			fmt.Fprintf(out, "Queued job: %s\n", result.JobID)
			if runWatch {
				return watchJob(cmd, result.JobID)
			}
			fmt.Fprintf(out, "To follow it, run: eda-cli jobs watch %s\n", result.JobID)
			return nil
		}
		return printJSON(out, result)
	},
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status [job_id]",
	Short: "Show the status of a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		var result map[string]any
		if err := c.call(cmd.Context(), http.MethodGet, "/jobs/"+url.PathEscape(args[0]), nil, &result); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

var jobsWatchCmd = &cobra.Command{
	Use:   "watch [job_id]",
	Short: "Stream status changes of a job until it ends",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchJob(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsRunCmd, jobsStatusCmd, jobsWatchCmd)
	jobsRunCmd.Flags().StringVar(&runTheme, "theme", "", "light or dark")
	jobsRunCmd.Flags().StringVar(&runColor, "color", "", "accent color, e.g. #1f77b4")
	jobsRunCmd.Flags().BoolVar(&runWatch, "watch", false, "follow a queued job until it ends")
}

// watchURL 把 API 地址转换为 WebSocket 地址。
func watchURL(base, jobID string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported API URL scheme %q", u.Scheme)
	}
	// Path 保存解码后的路径，RawPath 保存转义形式，String() 只转义一次。
	raw := u.EscapedPath() + "/jobs/" + url.PathEscape(jobID) + "/watch"
	u.Path += "/jobs/" + jobID + "/watch"
	u.RawPath = raw
	return u.String(), nil
}

func watchJob(cmd *cobra.Command, jobID string) error {
	wsURL, err := watchURL(apiURL, jobID)
	if err != nil {
		return err
	}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(cmd.Context(), wsURL, header)
	if err != nil {
		if resp != nil {
			return &apiError{Code: resp.StatusCode, Body: resp.Status}
		}
		return err
	}
	defer conn.Close()

	out := cmd.OutOrStdout()
	for {
		var view struct {
			ID     string         `json:"id"`
			Status string         `json:"status"`
			Result map[string]any `json:"result"`
		}
		if err := conn.ReadJSON(&view); err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				return nil
			}
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", view.ID, view.Status)
		if view.Result != nil {
			if p, ok := view.Result["pptx_path"].(string); ok && p != "" {
				fmt.Fprintf(out, "Report: %s\n", p)
			}
		}
	}
}
