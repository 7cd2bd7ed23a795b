// internal/cli/profiles.go
package cli

import (
	"bufio"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/law-makers/schoolsoft/internal/auth"
	"github.com/law-makers/schoolsoft/internal/ui"
	"github.com/spf13/cobra"
)

var assumeYes bool

// profilesCmd represents the profiles command
var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage saved login profiles",
	Long: `List, view, and delete profiles saved with "schoolsoft login".

Profiles are stored in your OS keyring, or in ~/.schoolsoft/profiles when no
keyring is available (CI, Codespaces).`,
	Example: `  # List all saved profiles
  schoolsoft profiles list

  # View details of a profile
  schoolsoft profiles view default

  # Delete a profile without confirmation
  schoolsoft profiles delete jobbet --yes`,
	Annotations: map[string]string{annotationNoProfile: "true"},
}

var profilesListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List all saved profiles",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoProfile: "true"},
	RunE:        runProfilesList,
}

var profilesViewCmd = &cobra.Command{
	Use:         "view <profile-name>",
	Short:       "View details of a saved profile",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNoProfile: "true"},
	RunE:        runProfilesView,
}

var profilesDeleteCmd = &cobra.Command{
	Use:         "delete <profile-name>",
	Short:       "Delete a saved profile",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNoProfile: "true"},
	RunE:        runProfilesDelete,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesViewCmd)
	profilesCmd.AddCommand(profilesDeleteCmd)

	profilesDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Delete without asking")
}

func runProfilesList(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	profiles, err := auth.ListProfiles()
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}

	if len(profiles) == 0 {
		fmt.Fprintln(w, "\nNo saved profiles found.")
		fmt.Fprintln(w, "\nCreate one with:")
		fmt.Fprintln(w, "  schoolsoft login --school=<school> --username=<username>")
		fmt.Fprintln(w)
		return nil
	}

	fmt.Fprintf(w, "\n📋 Saved Profiles (%d)\n", len(profiles))
	fmt.Fprintln(w, strings.Repeat("━", 50))

	for i, name := range profiles {
		fmt.Fprintf(w, "\n%d. %s\n", i+1, ui.Bold(name))

		p, err := auth.LoadProfile(name)
		if err != nil {
			fmt.Fprintf(w, "   ⚠️  Error loading: %v\n", err)
			continue
		}
		fmt.Fprintf(w, "   School:   %s\n", p.School)
		fmt.Fprintf(w, "   Username: %s\n", p.Username)
		fmt.Fprintf(w, "   Updated:  %s\n", p.UpdatedAt.Format(time.RFC1123))
	}

	fmt.Fprintln(w)
	return nil
}

func runProfilesView(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	name := args[0]

	p, err := auth.LoadProfile(name)
	if err != nil {
		return fmt.Errorf("failed to load profile '%s': %w", name, err)
	}

	fmt.Fprintf(w, "\n🔍 Profile Details: %s\n", name)
	fmt.Fprintln(w, strings.Repeat("━", 50))
	fmt.Fprintln(w)

	userType := "student"
	if p.UserType == 0 {
		userType = "teacher"
	}
	baseURL := p.BaseURL
	if baseURL == "" {
		baseURL = "(default)"
	}

	fmt.Fprintf(w, "Name:      %s\n", p.Name)
	fmt.Fprintf(w, "School:    %s\n", p.School)
	fmt.Fprintf(w, "Username:  %s\n", p.Username)
	fmt.Fprintf(w, "User type: %s (%d)\n", userType, p.UserType)
	fmt.Fprintf(w, "Portal:    %s\n", baseURL)
	fmt.Fprintf(w, "Password:  %s\n", mask(p.Password))
	fmt.Fprintf(w, "Created:   %s\n", p.CreatedAt.Format(time.RFC1123))
	fmt.Fprintf(w, "Updated:   %s\n", p.UpdatedAt.Format(time.RFC1123))

	names := make([]string, 0, len(p.Cookies))
	for n := range p.Cookies {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintf(w, "\nCookies (%d):\n", len(names))
	for _, n := range names {
		fmt.Fprintf(w, "  • %s\n", n)
	}

	fmt.Fprintln(w)
	return nil
}

func runProfilesDelete(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	name := args[0]

	if !assumeYes {
		fmt.Fprintf(w, "\n⚠️  Delete profile '%s'? [y/N]: ", name)
		confirm, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		confirm = strings.TrimSpace(confirm)
		if confirm != "y" && confirm != "Y" {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
	}

	if err := auth.DeleteProfileWithManifest(name); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	fmt.Fprintf(w, "\n✓ Profile '%s' deleted successfully.\n\n", name)
	return nil
}

func mask(secret string) string {
	if secret == "" {
		return "(not saved)"
	}
	return strings.Repeat("•", 8)
}
