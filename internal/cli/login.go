// internal/cli/login.go
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/law-makers/schoolsoft/internal/auth"
	"github.com/law-makers/schoolsoft/internal/config"
	"github.com/law-makers/schoolsoft/internal/portal"
	"github.com/law-makers/schoolsoft/internal/reqctx"
	"github.com/law-makers/schoolsoft/internal/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and save the account as a profile",
	Long: `Logs in to the portal with your username and password and stores them,
together with the session cookie, in your OS keyring.

Missing values are prompted for; the password is never echoed. Logging in
again to an existing profile keeps its school and username as defaults.
Later commands pick the profile with --profile, or use the profile named
"default" when none is given.`,
	Example: `  # Save the default profile
  schoolsoft login --school=engelbrektskolan --username=anna.svensson

  # Save a teacher account under its own name
  schoolsoft login --profile=jobbet --school=engelbrektskolan --usertype=0

  # Non-interactive, password from the environment
  SCHOOLSOFT_PASSWORD=... schoolsoft login --school=skolan --username=elev`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoProfile: "true"},
	RunE:        runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}
	cfg := a.Config

	name := cfg.Profile
	if name == "" {
		name = config.DefaultProfile
	}

	// Re-login keeps what the existing profile knows
	existing, err := auth.LoadProfile(name)
	if err != nil && !errors.Is(err, auth.ErrProfileNotFound) {
		return err
	}

	creds := portal.Credentials{
		School:   cfg.School,
		Username: cfg.Username,
		Password: cfg.Password,
		UserType: portal.UserType(cfg.UserTypeOr(config.DefaultUserType)),
	}
	baseURL := cfg.BaseURL
	if existing != nil {
		if creds.School == "" {
			creds.School = existing.School
		}
		if creds.Username == "" {
			creds.Username = existing.Username
		}
		creds.UserType = portal.UserType(cfg.UserTypeOr(existing.UserType))
		if baseURL == "" {
			baseURL = existing.BaseURL
		}
	}

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.ErrOrStderr()
	if creds.School == "" {
		if creds.School, err = prompt(in, out, "School: "); err != nil {
			return err
		}
	}
	if creds.Username == "" {
		if creds.Username, err = prompt(in, out, "Username: "); err != nil {
			return err
		}
	}
	if creds.Password == "" {
		if creds.Password, err = promptPassword(in, out); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "\n%s\n", ui.Bold("🔐 Login"))
	fmt.Fprintf(out, "%s\n", ui.ColorDim+strings.Repeat("━", 50)+ui.ColorReset)
	fmt.Fprintf(out, "  %s %s\n", ui.Bold("Profile:"), name)
	fmt.Fprintf(out, "  %s %s\n", ui.Bold("School:"), creds.School)
	fmt.Fprintf(out, "  %s %s\n\n", ui.Bold("Username:"), creds.Username)

	opts := auth.LoginOptions{
		ProfileName: name,
		Credentials: creds,
		Session: portal.Options{
			BaseURL:   baseURL,
			UserAgent: cfg.UserAgent,
			Headers:   cfg.Headers,
		},
		Client:  a.HTTPClient,
		Timeout: cfg.HTTPTimeout,
	}

	profile, err := auth.Login(ctx, opts)
	if err != nil {
		if errors.Is(err, portal.ErrAuthFailure) {
			return reqctx.NewRequestError(ctx, fmt.Errorf("login rejected: check school, username, password and --usertype: %w", err))
		}
		return reqctx.NewRequestError(ctx, fmt.Errorf("login failed: %w", err))
	}
	if existing != nil {
		profile.CreatedAt = existing.CreatedAt
	}

	log.Debug().Str("profile", name).Msg("Saving profile")
	if err := auth.SaveProfileWithManifest(profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Fprintln(out, ui.Success("✓ Logged in and saved profile "+name))
	if name != config.DefaultProfile {
		fmt.Fprintf(out, "\n%s\n", ui.Bold("Use it with:"))
		fmt.Fprintf(out, "  %s\n\n", ui.ColorCyan+"schoolsoft news --profile="+name+ui.ColorReset)
	}
	return nil
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(label, ": "), err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo from a terminal, or a plain line when
// stdin is piped.
func promptPassword(in *bufio.Reader, out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(in, out, "Password: ")
	}

	fmt.Fprint(out, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}
