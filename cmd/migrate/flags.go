package migrate

import (
	"github.com/spf13/cobra"

	"github.com/fanout-labs/gqlgate/cmd/util"
)

// bindRunFlags binds the cobra cmd flags to the equivalent config value being managed
// by viper. This bridges the config between cobra flags and viper flags.
func bindRunFlags(command *cobra.Command, _ []string) {
	flags := command.Flags()

	util.MustBindPFlag(datastoreEngineFlag, flags.Lookup(datastoreEngineFlag))
	util.MustBindEnv(datastoreEngineFlag, "GQLGATE_DATASTORE_ENGINE")

	util.MustBindPFlag(datastoreURIFlag, flags.Lookup(datastoreURIFlag))
	util.MustBindEnv(datastoreURIFlag, "GQLGATE_DATASTORE_URI")

	util.MustBindPFlag(datastoreUsernameFlag, flags.Lookup(datastoreUsernameFlag))
	util.MustBindEnv(datastoreUsernameFlag, "GQLGATE_DATASTORE_USERNAME")

	util.MustBindPFlag(datastorePasswordFlag, flags.Lookup(datastorePasswordFlag))
	util.MustBindEnv(datastorePasswordFlag, "GQLGATE_DATASTORE_PASSWORD")

	util.MustBindPFlag(versionFlag, flags.Lookup(versionFlag))
	util.MustBindPFlag(timeoutFlag, flags.Lookup(timeoutFlag))
	util.MustBindPFlag(verboseMigrationFlag, flags.Lookup(verboseMigrationFlag))
}
