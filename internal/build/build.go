// Package build provides build information that is linked into the application. Other
// packages within this project can use this information in logs etc..
package build

var (
	// Version is the build version of the application.
	Version = "dev"

	// Commit is the sha of the git commit the application was built from.
	Commit = "none"

	// Date is the date the build was generated.
	Date = "unknown"

	// ProjectName is the name of the project and is used in telemetry resources.
	ProjectName = "gqlgate"
)
