package main

import (
	"fmt"
	"os"
	"time"

	"github.com/hiringboard/job-board/internal/application"
	"github.com/hiringboard/job-board/internal/config"
	"github.com/hiringboard/job-board/internal/database"
	"github.com/hiringboard/job-board/internal/email"
	"github.com/hiringboard/job-board/internal/jobpost"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a confirmation for a throwaway application",
	Long:  "test creates an application against the first job post, sends its confirmation email, prints the mailbox in mock mode and deletes the application again.",
	RunE:  runTest,
}

var testMock bool

func init() {
	testCmd.Flags().BoolVar(&testMock, "mock", false, "Record the email in the mock mailbox instead of sending it")
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		return errors.Wrap(err, "unable to load config")
	}
	conn, err := database.GetDbConn(cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "unable to connect to postgres")
	}
	defer database.CloseDbConn(conn)

	mb, closeFn, err := email.OpenMailbox(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	notifier := email.NewNotifierFromConfig(cfg, mb, logger)
	if testMock {
		notifier.EnableMockMode()
		fmt.Fprintln(out, "Mock mode enabled for this test.")
	}

	fmt.Fprintln(out, "Testing Email Functionality")
	fmt.Fprintln(out, "============================")

	post, err := jobpost.NewRepository(conn).FirstJobPost(ctx)
	if errors.Cause(err) == jobpost.ErrJobPostNotFound {
		return errors.New("no job posts found, create a job post first")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Using Job Post: %s at %s\n", post.Title, post.Company)

	repo := application.NewRepository(conn)
	now := time.Now()
	app := &application.Application{
		JobPostID:      post.ID,
		FullName:       "Test User",
		PhoneNumber:    "+1234567890",
		Email:          "test@example.com",
		WorkExperience: "This is a test application created by the email test command.",
		Status:         application.StatusApplied,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := repo.CreateApplication(ctx, app); err != nil {
		return errors.Wrap(err, "unable to create test application")
	}
	fmt.Fprintf(out, "Created test application with ID: %d\n", app.ID)
	defer func() {
		if err := repo.DeleteApplication(ctx, app.ID); err != nil {
			logger.Error().Err(err).Int("application_id", app.ID).Msg("unable to delete test application")
			return
		}
		fmt.Fprintln(out, "Test application cleaned up.")
	}()

	outcome := notifier.NotifyApplicationSubmitted(ctx, email.Confirmation{
		ApplicationID: app.ID,
		To:            app.Email,
		ApplicantName: app.FullName,
		JobTitle:      post.Title,
		Company:       post.Company,
		SubmittedAt:   app.CreatedAt,
	})
	if outcome != email.OutcomeSent {
		fmt.Fprintf(out, "Failed to send email (%s).\n", outcome)
		return nil
	}
	fmt.Fprintln(out, "Email sent successfully!")
	if notifier.IsMockMode() {
		records, err := mb.All(ctx)
		if err != nil {
			return errors.Wrap(err, "unable to read mock emails")
		}
		printRecords(out, records, mailboxLocation(mb))
	}
	return nil
}
