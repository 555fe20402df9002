// Command mockmail inspects and exercises the mock confirmation mailbox.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hiringboard/job-board/internal/email"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mockmail",
	Short: "Inspect the mock email mailbox",
	Long:  "mockmail lists and clears the confirmation emails recorded while MAIL_MOCK_MODE is enabled, and sends a test confirmation.",
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printRecords(w io.Writer, records []email.Record, location string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Mock Emails Sent:")
	fmt.Fprintln(w, "-------------------")
	for i, rec := range records {
		fmt.Fprintf(w, "Email #%d\n", i+1)
		fmt.Fprintf(w, "To: %s\n", rec.To)
		fmt.Fprintf(w, "Subject: %s\n", rec.Subject)
		fmt.Fprintf(w, "Applicant: %s\n", rec.ApplicantName)
		fmt.Fprintf(w, "Job: %s at %s\n", rec.JobTitle, rec.Company)
		fmt.Fprintf(w, "Application ID: #%d\n", rec.ApplicationID)
		fmt.Fprintf(w, "Sent At: %s\n", rec.SentAt)
		fmt.Fprintf(w, "Status: %s\n", rec.Status)
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Total mock emails: %d\n", len(records))
	if location != "" {
		fmt.Fprintf(w, "Mock emails are stored in: %s\n", location)
	}
}

func mailboxLocation(mb email.Mailbox) string {
	switch m := mb.(type) {
	case *email.FileMailbox:
		return m.Path()
	case *email.RedisMailbox:
		return "redis list " + email.RedisMailboxKey
	default:
		return ""
	}
}
