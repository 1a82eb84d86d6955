package main

import (
	"github.com/spf13/pflag"

	"github.com/sqtriage/sqsync/internal/config"
)

// registerConfigFlags adds one flag per config key. config.Load binds them
// by name, so an unset flag never masks the environment or config file.
func registerConfigFlags(fs *pflag.FlagSet) {
	fs.String("url", "", "SonarQube server URL ($SQ_URL)")
	fs.String("username", "", "SonarQube user name or token ($SQ_USERNAME)")
	fs.String("password", "", "SonarQube password; prompted when omitted on a terminal ($SQ_PASSWORD)")
	fs.String("source-project-key", "", "Project to read issues from ($SQ_SOURCE_PROJECT_KEY)")
	fs.String("source-branch", "", "Branch of the source project")
	fs.String("destination-project-keys", "", "Comma-separated projects to copy resolutions to")
	fs.String("destination-branch", "", "Branch of the destination projects")
	fs.String("user-map", "", "Author to SonarQube login map: author=login;author2=login2")
	fs.String("user-map-file", "", "YAML or TOML file mapping authors to SonarQube logins")
	fs.String("log-level", "", "Log level: debug, info, warn, error (default info)")
	fs.Bool("add-note", false, "Append '(copy from PROJECT)' to copied comments")
	fs.Bool("dry-run", false, "Log what would change without writing to SonarQube")
	fs.Duration("http-timeout", config.DefaultHTTPTimeout, "Timeout of a single SonarQube request (0 disables)")
}
