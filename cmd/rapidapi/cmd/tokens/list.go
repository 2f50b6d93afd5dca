package tokens

import (
	"context"
	"fmt"

	"github.com/rapidgeo/rapid/internal/db/bunx"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered API tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, db, err := newService()
		if err != nil {
			return err
		}
		defer bunx.Close(db)

		tokens, err := service.ListTokens(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list tokens: %w", err)
		}

		if len(tokens) == 0 {
			fmt.Println("No tokens registered.")
			return nil
		}

		for _, t := range tokens {
			fmt.Printf("%s  %s  issued %s\n", t.ID, t.Descriptor, t.IssuedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}
