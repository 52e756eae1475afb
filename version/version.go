package version

// Version is populated by the build system.
//
//nolint:gochecknoglobals
var Version = "development"

const Name = "mailpreview"
const EnvPrefix = "MAILPREVIEW"
const Description = "Preview email templates, checking placeholders and recipients"
