package main

import (
	"fmt"

	"github.com/jonathan/cojournalist/internal/config"
	"github.com/jonathan/cojournalist/internal/server"
	"github.com/jonathan/cojournalist/internal/types"
	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenEmail   string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development access token",
	Long:  "Signs an access token with AUTH_JWT_SECRET for the given identity, for use against a local server without the identity provider.",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "External identity id (required)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email claim")

	if err := tokenCmd.MarkFlagRequired("subject"); err != nil {
		panic(fmt.Sprintf("failed to mark subject flag as required: %v", err))
	}

	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}

	token, err := server.NewJWTService(jwtConfig).GenerateToken(types.Identity{
		ExternalID: tokenSubject,
		Email:      tokenEmail,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
