// Package send implements the send subcommand for one-shot dispatch of a
// push notification from the command line.
package send

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gridlead/pushgate/internal/conf"
	"github.com/gridlead/pushgate/internal/subscriptions"
	"github.com/gridlead/pushgate/internal/webpush"
)

type options struct {
	subscriptionPath string
	endpoint         string
	title            string
	body             string
	timeout          time.Duration
}

// Command creates the send subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Dispatch one push notification",
		Long: "Send a single Web Push notification to a subscription read from a JSON file " +
			"(browser PushSubscription format, \"-\" for stdin) or to a bare endpoint URL.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(settings, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.subscriptionPath, "subscription", "s", "", "Path to a subscription JSON file, or \"-\" for stdin")
	cmd.Flags().StringVarP(&opts.endpoint, "endpoint", "e", "", "Push endpoint URL (alternative to --subscription)")
	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "Notification title (logged, not transmitted)")
	cmd.Flags().StringVarP(&opts.body, "body", "b", "", "Notification body (logged, not transmitted)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Overall timeout for the dispatch")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func runSend(settings *conf.Settings, opts *options) error {
	sub, err := loadSubscription(opts)
	if err != nil {
		return err
	}

	store, err := subscriptions.NewFromSettings(&settings.Store, settings.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize subscription store: %w", err)
	}
	defer func() { _ = store.Close() }()

	dispatcher := webpush.New(settings, store, nil, nil)
	defer dispatcher.Close()

	var msg *webpush.Message
	if opts.title != "" || opts.body != "" {
		msg = &webpush.Message{Title: opts.title, Body: opts.body}
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	result, err := dispatcher.Send(ctx, sub, msg)
	if err != nil {
		return fmt.Errorf("dispatch failed: %w", err)
	}

	fmt.Printf("message %s: %s (status %d)\n", result.MessageID, result.Outcome, result.StatusCode)
	if !result.Delivered() {
		if result.Body != "" {
			fmt.Fprintln(os.Stderr, result.Body)
		}
		return fmt.Errorf("push service refused the message with status %d", result.StatusCode)
	}
	return nil
}

// loadSubscription builds the target subscription from either the JSON file
// or the bare endpoint flag.
func loadSubscription(opts *options) (*webpush.Subscription, error) {
	switch {
	case opts.subscriptionPath != "" && opts.endpoint != "":
		return nil, fmt.Errorf("--subscription and --endpoint are mutually exclusive")
	case opts.endpoint != "":
		return &webpush.Subscription{Endpoint: opts.endpoint}, nil
	case opts.subscriptionPath == "":
		return nil, fmt.Errorf("either --subscription or --endpoint is required")
	}

	var data []byte
	var err error
	if opts.subscriptionPath == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(opts.subscriptionPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read subscription: %w", err)
	}

	var sub webpush.Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("failed to parse subscription JSON: %w", err)
	}
	if sub.Endpoint == "" {
		return nil, fmt.Errorf("subscription JSON has no endpoint")
	}
	return &sub, nil
}
