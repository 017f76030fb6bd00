package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"attachments-api/internal/client"
	"attachments-api/internal/models"
)

func main() {
	var (
		baseURL  = flag.String("base-url", "http://localhost:8080", "attachments API base URL")
		jobID    = flag.Int64("job", 0, "job id to process")
		tenant   = flag.String("tenant", "", "tenant name")
		force    = flag.Bool("force", false, "re-process even if already processed")
		timeout  = flag.Duration("timeout", 2*time.Minute, "how long to wait before giving up")
		interval = flag.Duration("interval", 3*time.Second, "poll interval")
	)
	flag.Parse()

	if *jobID == 0 || *tenant == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	poller := client.NewPoller(*baseURL, *interval)

	outcome, err := poller.WaitForJob(ctx, *jobID, *tenant, *force)
	if err != nil {
		log.Fatalf("Polling failed: %v", err)
	}

	switch {
	case outcome.TimedOut:
		fmt.Printf("Job %d: processing timed out after %s\n", *jobID, *timeout)
		os.Exit(1)
	case outcome.Status == models.JobStatusError:
		fmt.Printf("Job %d failed: %s\n", *jobID, outcome.ErrorMessage)
		fmt.Println("Re-run with -force to retry.")
		os.Exit(1)
	default:
		fmt.Printf("Job %d processed, %d attachments:\n", *jobID, len(outcome.Attachments))
		for _, att := range outcome.Attachments {
			fmt.Printf("  [%s] %s\n      %s\n", att.Type, att.FileName, att.URL)
		}
	}
}
