package credentials

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/fanout-labs/gqlgate/pkg/storage"
)

func newAddUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-user",
		Short: "Create a user that can exchange a password for a bearer token",
		Args:  cobra.NoArgs,
		RunE:  runAddUser,
	}

	flags := cmd.Flags()
	flags.String("tenant", "", "(required) the tenant the user belongs to")
	flags.String("username", "", "(required) the login name")
	flags.String("password", "", "(required) the password, stored as a bcrypt hash")
	flags.StringSlice("roles", nil, "roles granted to the user (e.g. ROLE_ADMIN,orders:read)")
	flags.Int("bcrypt-cost", bcrypt.DefaultCost, "bcrypt cost used to hash the password")

	return cmd
}

func runAddUser(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	tenant, _ := flags.GetString("tenant")
	username, _ := flags.GetString("username")
	password, _ := flags.GetString("password")
	roles, _ := flags.GetStringSlice("roles")
	cost, _ := flags.GetInt("bcrypt-cost")

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"tenant", tenant},
		{"username", username},
		{"password", password},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	ds, err := openDatastore()
	if err != nil {
		return err
	}
	defer ds.Close()

	user := &storage.User{
		ID:           uuid.NewString(),
		TenantID:     tenant,
		Username:     username,
		PasswordHash: string(hash),
		Roles:        roles,
		Enabled:      true,
	}
	if err := ds.WriteUser(cmd.Context(), user); err != nil {
		return fmt.Errorf("write user: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "id: %s\n", user.ID)
	return nil
}
