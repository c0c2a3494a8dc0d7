package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/soyeahso/rxflow/internal/domain"
)

func newMessageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Send and inspect messages",
	}

	cmd.AddCommand(newMessageSendCmd())
	return cmd
}

func newMessageSendCmd() *cobra.Command {
	var (
		customerID     string
		conversationID string
		pharmacyID     string
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "send [message]",
		Short: "Run one engine turn locally and print the response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := strings.Join(args, " ")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eng, err := buildEngine(ctx, log)
			if err != nil {
				return err
			}
			defer eng.close()

			result := eng.orch.ProcessMessage(ctx, domain.InboundMessage{
				ID:             uuid.New().String(),
				ConversationID: conversationID,
				CustomerID:     customerID,
				PharmacyID:     pharmacyID,
				Body:           body,
				Timestamp:      time.Now(),
			})

			if asJSON {
				out, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Println(result.Response)
			fmt.Fprintf(cmd.ErrOrStderr(), "\n[intent=%s handler=%s escalated=%t]\n",
				result.Intent, result.Handler, result.RequiresHumanReview)
			return nil
		},
	}

	cmd.Flags().StringVar(&customerID, "customer", "cli-customer", "customer id for the turn")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "existing conversation id (empty resolves by customer)")
	cmd.Flags().StringVar(&pharmacyID, "pharmacy", "", "pharmacy id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full dispatch result as JSON")

	return cmd
}
