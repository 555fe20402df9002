package main

import (
	"context"
	"fmt"

	"github.com/hiringboard/job-board/internal/config"
	"github.com/hiringboard/job-board/internal/email"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the recorded mock emails",
	RunE:  runList,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every recorded mock email",
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(clearCmd)
}

func openMailbox(ctx context.Context) (email.Mailbox, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, func() {}, errors.Wrap(err, "unable to load config")
	}
	return email.OpenMailbox(ctx, cfg)
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	mb, closeFn, err := openMailbox(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	records, err := mb.All(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to read mock emails")
	}
	printRecords(cmd.OutOrStdout(), records, mailboxLocation(mb))
	return nil
}

func runClear(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	mb, closeFn, err := openMailbox(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	if err := mb.Clear(ctx); err != nil {
		return errors.Wrap(err, "unable to clear mock emails")
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Mock emails cleared!")
	return nil
}
