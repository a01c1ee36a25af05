package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/10mm-gms/blueprint/internal/config"
	"github.com/10mm-gms/blueprint/internal/messaging"
)

func (c *cli) notifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send a staff notification by email or chat",
	}
	cmd.AddCommand(c.notifyEmailCmd(), c.notifyChatCmd())
	return cmd
}

func (c *cli) notifier() (*messaging.Notifier, func(), error) {
	cfg, logger, err := c.setup(config.Overrides{})
	if err != nil {
		return nil, nil, err
	}
	return messaging.NewNotifier(messaging.OptionsFromConfig(cfg), logger), func() { _ = logger.Sync() }, nil
}

func (c *cli) notifyEmailCmd() *cobra.Command {
	var to, subject, bodyFile string

	cmd := &cobra.Command{
		Use:   "email",
		Short: "Send a markdown email through SES",
		Long: `Renders the markdown body to HTML and sends it through AWS SES.

With MOCK_SES=true nothing is sent and a mock message id is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(bodyFile)
			if err != nil {
				return fmt.Errorf("read body: %w", err)
			}

			n, done, err := c.notifier()
			if err != nil {
				return err
			}
			defer done()

			id, err := n.SendEmail(cmd.Context(), to, subject, string(body))
			if errors.Is(err, messaging.ErrNotConfigured) {
				fmt.Fprintln(cmd.OutOrStdout(), "skipped: SES is not fully configured")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "recipient address")
	cmd.Flags().StringVar(&subject, "subject", "", "message subject")
	cmd.Flags().StringVar(&bodyFile, "body-file", "", "path to a markdown file with the message body")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("body-file")
	return cmd
}

func (c *cli) notifyChatCmd() *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Post a message to the Google Chat webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, done, err := c.notifier()
			if err != nil {
				return err
			}
			defer done()

			err = n.SendChat(cmd.Context(), text)
			if errors.Is(err, messaging.ErrNotConfigured) {
				fmt.Fprintln(cmd.OutOrStdout(), "skipped: GOOGLE_CHAT_WEBHOOK_URL is not set")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sent")
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "message text")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}
