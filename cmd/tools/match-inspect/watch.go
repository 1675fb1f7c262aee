package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"company-matching/internal/activity"
	"company-matching/internal/common/config"
	"company-matching/internal/common/logger"
	"company-matching/internal/common/messaging"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print matching activity events as they are published on NATS",
	RunE:  runWatch,
}

var (
	watchSubject string
	watchRaw     bool
)

func init() {
	watchCmd.Flags().StringVarP(&watchSubject, "subject", "s", "", "NATS subject (defaults to messaging.nats.subject)")
	watchCmd.Flags().BoolVar(&watchRaw, "raw", false, "Print the event JSON unchanged")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.NewZapAdapter(logger.New("warn", "console", "stderr"))

	subject := watchSubject
	if subject == "" {
		subject = cfg.Messaging.NATS.Subject
	}
	if subject == "" {
		subject = messaging.SubjectMatchingRunCompleted
	}

	client, err := messaging.NewNATSClient(messaging.NATSConfig{
		URL:           cfg.Messaging.NATS.URL,
		Name:          "match-inspect",
		ReconnectWait: config.GetDuration(cfg.Messaging.NATS.ReconnectWait),
		MaxReconnects: cfg.Messaging.NATS.MaxReconnects,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to connect to nats: %w", err)
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	err = client.Subscribe(subject, func(data []byte) {
		if watchRaw {
			fmt.Fprintln(out, string(data))
			return
		}
		if err := printEvent(out, data); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipping message: %v\n", err)
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %s (ctrl-c to stop)\n", subject)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-cmd.Context().Done():
	}
	return nil
}

// printEvent writes one line per event: timestamp, kind, then the payload as
// sorted key=value pairs.
func printEvent(w io.Writer, data []byte) error {
	var event activity.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if event.Kind == "" {
		return fmt.Errorf("decode event: missing kind")
	}

	keys := make([]string, 0, len(event.Payload))
	for k := range event.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(event.OccurredAt.UTC().Format(time.RFC3339))
	b.WriteString(" ")
	b.WriteString(event.Kind)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, event.Payload[k])
	}
	_, err := fmt.Fprintln(w, b.String())
	return err
}
