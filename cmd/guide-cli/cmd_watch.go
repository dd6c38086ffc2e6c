package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/harry0816web/GrandmaHelper/internal/capture"
)

var (
	watchURL      string
	watchInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a running serve instance and print screen changes",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchURL, "url", "http://localhost:8765/screen-info", "screen-info endpoint to poll")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Second, "poll interval")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	client := &http.Client{Timeout: 5 * time.Second}
	var lastSummary string

	fmt.Printf("👀 watching %s every %s\n", watchURL, watchInterval)

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			info, err := fetchInfo(ctx, client, watchURL)
			if err != nil {
				fmt.Printf("⚠️  %v\n", err)
				continue
			}
			if info.SummaryText == lastSummary {
				continue
			}
			lastSummary = info.SummaryText
			fmt.Printf("\n─── %s  [%s] %d elements ───\n",
				time.UnixMilli(info.TimestampMs).Format("15:04:05"),
				info.PageType,
				info.ElementCount)
			fmt.Println(info.SummaryText)
		}
	}
}

func fetchInfo(ctx context.Context, client *http.Client, url string) (capture.Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return capture.Info{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return capture.Info{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return capture.Info{}, fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}

	var info capture.Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return capture.Info{}, err
	}
	return info, nil
}
