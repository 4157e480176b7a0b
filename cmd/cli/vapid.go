package main

import (
	"encoding/json"
	"fmt"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/spf13/cobra"
)

var vapidJSON bool

var vapidCmd = &cobra.Command{
	Use:   "vapid-keygen",
	Short: "Generate a VAPID key pair for web push",
	Long: `Generates a fresh VAPID key pair. Set the output as VAPID_PUBLIC_KEY
and VAPID_PRIVATE_KEY in the server environment. The public key is also
served to browsers via /api/v1/notifications/push/vapid-public-key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			return fmt.Errorf("failed to generate VAPID keys: %w", err)
		}

		if vapidJSON {
			out, err := json.MarshalIndent(map[string]string{
				"public_key":  publicKey,
				"private_key": privateKey,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		fmt.Printf("VAPID_PUBLIC_KEY=%s\n", publicKey)
		fmt.Printf("VAPID_PRIVATE_KEY=%s\n", privateKey)
		return nil
	},
}

func init() {
	vapidCmd.Flags().BoolVar(&vapidJSON, "json", false, "Output as JSON")
}
