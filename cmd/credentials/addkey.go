package credentials

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fanout-labs/gqlgate/pkg/storage"
)

const (
	tokenPrefix = "gqk_"
	tokenBytes  = 32
)

func newAddKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-key",
		Short: "Create an API key and print its token",
		Args:  cobra.NoArgs,
		RunE:  runAddKey,
	}

	flags := cmd.Flags()
	flags.String("name", "", "(required) a display name for the key")
	flags.String("token", "", "use this token instead of generating one")
	flags.Int("rate-limit", 0, "requests allowed per minute (0 means unlimited)")
	flags.Bool("disabled", false, "create the key disabled")

	return cmd
}

// generateToken returns a random url-safe token.
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return tokenPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}

func runAddKey(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	name, _ := flags.GetString("name")
	token, _ := flags.GetString("token")
	rateLimit, _ := flags.GetInt("rate-limit")
	disabled, _ := flags.GetBool("disabled")

	if name == "" {
		return fmt.Errorf("missing key name")
	}
	if rateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}

	if token == "" {
		var err error
		if token, err = generateToken(); err != nil {
			return fmt.Errorf("generate token: %w", err)
		}
	}

	ds, err := openDatastore()
	if err != nil {
		return err
	}
	defer ds.Close()

	credential := &storage.Credential{
		ID:                 uuid.NewString(),
		Token:              token,
		DisplayName:        name,
		Enabled:            !disabled,
		RateLimitPerMinute: rateLimit,
	}
	if err := ds.WriteCredential(cmd.Context(), credential); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "id: %s\ntoken: %s\n", credential.ID, credential.Token)
	return nil
}
