package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/chirpsocial/backend/internal/config"
	"github.com/chirpsocial/backend/internal/database"
	"github.com/chirpsocial/backend/internal/logger"
	"github.com/chirpsocial/backend/internal/models"
	"github.com/chirpsocial/backend/internal/notifications"
	"github.com/chirpsocial/backend/internal/push"
)

var (
	notifyType string
	notifyPush bool
)

var notifyCmd = &cobra.Command{
	Use:   "notify <user-id> <message>",
	Short: "Send a system notification to a user",
	Long: `Creates a notification record for the given user directly against the
database. With --push the notification is also delivered to the user's
registered web push endpoints, which requires VAPID keys in the environment.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, message := args[0], args[1]

		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found, using system environment variables")
		}

		if err := logger.Initialize("warn", ""); err != nil {
			return err
		}
		defer logger.Close()

		if err := database.Initialize(); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		var user models.User
		if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
			return fmt.Errorf("user %s not found", userID)
		}

		var sender notifications.PushSender
		if notifyPush {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			pushAgent := push.NewAgent(push.NewSubscriptionStore(database.DB), push.Options{
				Subscriber:      cfg.VAPIDSubscriber,
				VAPIDPublicKey:  cfg.VAPIDPublicKey,
				VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			})
			if !pushAgent.Enabled() {
				return fmt.Errorf("--push requires VAPID keys in the environment")
			}
			sender = pushAgent
		}

		service := notifications.NewService(notifications.NewStore(database.DB), nil, sender)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		n, err := service.Create(ctx, notifications.CreateInput{
			UserID:  user.ID,
			Type:    notifyType,
			Message: message,
		})
		if err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}

		fmt.Fprintf(os.Stdout, "Notification %s created for @%s\n", n.ID, user.Username)
		return nil
	},
}

func init() {
	notifyCmd.Flags().StringVar(&notifyType, "type", models.NotificationTypeSystem, "Notification type")
	notifyCmd.Flags().BoolVar(&notifyPush, "push", false, "Also deliver to registered web push endpoints")
}
