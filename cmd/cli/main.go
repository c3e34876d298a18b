package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/cyberstream-go/internal/app"
	"github.com/yourusername/cyberstream-go/internal/domain"
)

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "cyberstream",
		Short: "CyberStream CLI - stream video downloads through a local proxy",
		Long:  `A command-line interface for inspecting and downloading videos through a CyberStream server.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8000", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

var infoCmd = &cobra.Command{
	Use:   "info [url]",
	Short: "Show video metadata",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		jsonOutput, _ := cmd.Flags().GetBool("json")

		data, _ := json.Marshal(map[string]string{"url": args[0]})
		resp, err := http.Post(serverURL+"/api/info", "application/json", bytes.NewReader(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", errorMessage(body))
			os.Exit(1)
		}

		if jsonOutput {
			var result map[string]interface{}
			json.Unmarshal(body, &result)
			prettyJSON, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(prettyJSON))
			return
		}

		var md domain.VideoMetadata
		if err := json.Unmarshal(body, &md); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid response: %v\n", err)
			os.Exit(1)
		}
		printMetadata(cmd.OutOrStdout(), &md)
	},
}

func printMetadata(out io.Writer, md *domain.VideoMetadata) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Title:\t%s\n", md.Title)
	fmt.Fprintf(w, "Author:\t%s\n", md.Author)
	fmt.Fprintf(w, "Duration:\t%s\n", md.Duration)
	fmt.Fprintf(w, "ID:\t%s\n", md.ID)
	fmt.Fprintf(w, "Thumbnail:\t%s\n", md.Thumbnail)
	fmt.Fprintf(w, "Formats:\t%d\n", len(md.Formats))
	if md.Filesize != nil {
		fmt.Fprintf(w, "Size:\t%s\n", formatBytes(*md.Filesize))
	}
	if md.Degraded {
		fmt.Fprintf(w, "Note:\tmetadata unavailable (%s)\n", md.ExtractionError)
	}
	w.Flush()
}

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Download a video through the server",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		quality, _ := cmd.Flags().GetString("quality")
		output, _ := cmd.Flags().GetString("output")

		if _, err := domain.ParseQualityLabel(quality); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		query := url.Values{}
		query.Set("url", args[0])
		query.Set("quality", quality)

		resp, err := http.Get(serverURL + "/api/download?" + query.Encode())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Error: %s\n", errorMessage(body))
			os.Exit(1)
		}

		if output == "" {
			output = attachmentFilename(resp.Header.Get("Content-Disposition"), domain.VideoFilename)
		}

		start := time.Now()
		n, err := saveDownload(resp.Body, output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: download interrupted after %s: %v\n", formatBytes(n), err)
			os.Exit(1)
		}

		if output != "-" {
			fmt.Fprintf(os.Stderr, "Saved %s (%s in %s, id %s)\n",
				output, formatBytes(n), time.Since(start).Round(time.Millisecond), resp.Header.Get("X-Download-Id"))
		}
	},
}

var formatCmd = &cobra.Command{
	Use:   "format [url]",
	Short: "Print the format expression the server would use",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quality, _ := cmd.Flags().GetString("quality")
		remux, _ := cmd.Flags().GetBool("remux")

		label, err := domain.ParseQualityLabel(quality)
		if err != nil {
			return err
		}

		req := domain.NewQualityRequest(args[0], label)
		expr := domain.ResolveFormat(req, domain.Capability{RemuxAvailable: remux})

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Domain:\t%s\n", req.Domain)
		fmt.Fprintf(w, "Quality:\t%s\n", label)
		fmt.Fprintf(w, "Format:\t%s\n", expr)
		fmt.Fprintf(w, "Filename:\t%s\n", domain.AttachmentFilename(label))
		return w.Flush()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage server configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "configs/config.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := app.SaveConfig(domain.DefaultConfig(), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
		return nil
	},
}

func init() {
	infoCmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	downloadCmd.Flags().StringP("quality", "q", "best", "Quality (best, 1080p, 720p, 480p, mp3)")
	downloadCmd.Flags().StringP("output", "o", "", "Output file (default: server-suggested name, - for stdout)")
	formatCmd.Flags().StringP("quality", "q", "best", "Quality (best, 1080p, 720p, 480p, mp3)")
	formatCmd.Flags().Bool("remux", true, "Assume a remuxer is available")
	configInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
