// Package credentials contains the commands that provision API keys and users.
package credentials

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fanout-labs/gqlgate/cmd/util"
	"github.com/fanout-labs/gqlgate/pkg/storage"
	"github.com/fanout-labs/gqlgate/pkg/storage/sqlcommon"
)

const (
	datastoreEngineFlag   = "datastore-engine"
	datastoreURIFlag      = "datastore-uri"
	datastoreUsernameFlag = "datastore-username"
	datastorePasswordFlag = "datastore-password"
)

func NewCredentialsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Provision API keys and users in the datastore",
		Args:  cobra.NoArgs,
	}

	flags := cmd.PersistentFlags()
	flags.String(datastoreEngineFlag, "", "(required) the datastore engine holding the credentials ('postgres', 'mysql' or 'sqlite')")
	flags.String(datastoreURIFlag, "", "(required) the connection uri of the datastore")
	flags.String(datastoreUsernameFlag, "", "(optional) overwrite the username in the connection string")
	flags.String(datastorePasswordFlag, "", "(optional) overwrite the password in the connection string")

	cmd.PersistentPreRun = bindFlags

	cmd.AddCommand(newAddKeyCommand())
	cmd.AddCommand(newAddUserCommand())

	return cmd
}

func bindFlags(command *cobra.Command, _ []string) {
	flags := command.Flags()

	util.MustBindPFlag(datastoreEngineFlag, flags.Lookup(datastoreEngineFlag))
	util.MustBindEnv(datastoreEngineFlag, "GQLGATE_DATASTORE_ENGINE")

	util.MustBindPFlag(datastoreURIFlag, flags.Lookup(datastoreURIFlag))
	util.MustBindEnv(datastoreURIFlag, "GQLGATE_DATASTORE_URI")

	util.MustBindPFlag(datastoreUsernameFlag, flags.Lookup(datastoreUsernameFlag))
	util.MustBindEnv(datastoreUsernameFlag, "GQLGATE_DATASTORE_USERNAME")

	util.MustBindPFlag(datastorePasswordFlag, flags.Lookup(datastorePasswordFlag))
	util.MustBindEnv(datastorePasswordFlag, "GQLGATE_DATASTORE_PASSWORD")
}

func openDatastore() (storage.GatewayDatastore, error) {
	engine := viper.GetString(datastoreEngineFlag)
	switch engine {
	case "":
		return nil, fmt.Errorf("missing datastore engine type")
	case "memory":
		return nil, fmt.Errorf("credentials written to the memory datastore would be lost on exit")
	}

	return util.OpenDatastore(engine, viper.GetString(datastoreURIFlag),
		sqlcommon.WithUsername(viper.GetString(datastoreUsernameFlag)),
		sqlcommon.WithPassword(viper.GetString(datastorePasswordFlag)),
	)
}
