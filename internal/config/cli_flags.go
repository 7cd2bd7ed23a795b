package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().Bool("json", false, "Log in JSON format")
	cmd.PersistentFlags().String("config", "", "Path to a YAML configuration file (optional)")
	cmd.PersistentFlags().StringP("profile", "p", "", "Saved login profile to use")

	cmd.PersistentFlags().String("school", "", "School identifier as it appears in the portal URL")
	cmd.PersistentFlags().String("username", "", "Portal username")
	cmd.PersistentFlags().Int("usertype", DefaultUserType, "Account type: 0 teacher, 1 student")
	cmd.PersistentFlags().String("base-url", "", "Portal base URL (default "+DefaultBaseURL+")")

	cmd.PersistentFlags().String("proxy", "", "Set HTTP/SOCKS5 proxy (e.g., http://localhost:8080)")
	cmd.PersistentFlags().String("timeout", "30s", "Set hard timeout for requests")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().StringArrayP("header", "H", nil, "Extra request header (\"Key: Value\"), repeatable")
}
