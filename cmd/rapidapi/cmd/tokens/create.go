package tokens

import (
	"context"
	"fmt"

	"github.com/rapidgeo/rapid/internal/db/bunx"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create [descriptor]",
	Short: "Register a new API token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, db, err := newService()
		if err != nil {
			return err
		}
		defer bunx.Close(db)

		token, key, err := service.CreateToken(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to create token: %w", err)
		}

		fmt.Println("API token created successfully!")
		fmt.Println("----------------------------------------")
		fmt.Printf("Token ID:   %s\n", token.ID)
		fmt.Printf("Descriptor: %s\n", token.Descriptor)
		fmt.Printf("Secret Key: %s\n", key)
		fmt.Println("----------------------------------------")
		fmt.Println("Save the secret key securely. It will not be shown again.")

		return nil
	},
}
