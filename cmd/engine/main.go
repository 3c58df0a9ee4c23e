package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configFile string
	dataDir    string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:   "engine",
	Short: "Finds new topjobs.lk leads and applies to them by email",
	Long: `engine scans topjobs.lk category pages for postings that match your
role and level keywords, extracts the contact email of every new posting
and sends each one an application with your resume attached.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape for new leads, then email them",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		sum := a.runner(true).RunOnce(cmd.Context())
		return exitErr(sum.Errors)
	},
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Only discover new leads and write the leads file",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		sum := a.runner(false).RunOnce(cmd.Context())
		return exitErr(sum.Errors)
	},
}

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Email the leads of the newest leads file",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		m, err := a.mailer()
		if err != nil {
			return err
		}
		sum := m.Run(cmd.Context())
		a.log.Info("[mail] done", "sent", sum.EmailsSent, "skipped", sum.EmailsSkipped, "errors", sum.Errors)
		return exitErr(sum.Errors)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run on a schedule and serve the status API on localhost",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.serve(cmd.Context())
	},
}

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage the SMTP password in the OS keychain",
}

var setSMTPCmd = &cobra.Command{
	Use:   "set-smtp",
	Short: "Store the SMTP password (read from stdin) in the keychain",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.setSMTPPassword(cmd.InOrStdin())
	},
}

var deleteSMTPCmd = &cobra.Command{
	Use:   "delete-smtp",
	Short: "Remove the SMTP password from the keychain",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.deleteSMTPPassword()
	},
}

func init() {
	defaultDir := os.Getenv("JOBHUNT_DATA_DIR")
	if defaultDir == "" {
		defaultDir = "."
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config.yml (default <data-dir>/config.yml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDir, "Directory holding config.yml, .env and run data")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging on the console")

	secretsCmd.AddCommand(setSMTPCmd, deleteSMTPCmd)
	rootCmd.AddCommand(runCmd, scrapeCmd, mailCmd, serveCmd, secretsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func exitErr(errors int) error {
	if errors > 0 {
		return fmt.Errorf("finished with %d errors, see the log for details", errors)
	}
	return nil
}
