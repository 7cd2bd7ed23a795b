// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/schoolsoft/internal/app"
	"github.com/law-makers/schoolsoft/internal/config"
	"github.com/law-makers/schoolsoft/internal/reqctx"
	"github.com/law-makers/schoolsoft/internal/ui"
)

// annotationNoProfile marks commands that must not load a saved profile
const annotationNoProfile = "no-profile"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "schoolsoft",
	Short: "Read lunch menus, schedules and news from the SchoolSoft portal",
	Long: `schoolsoft logs in to a SchoolSoft school portal with your account and
extracts the lunch menu, your schedule and the news feed as plain records.

Credentials come from a saved profile (see "schoolsoft login"), a config
file, SCHOOLSOFT_* environment variables or flags, in increasing priority.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. This is called by main.main().
// Ctrl-C cancels in-flight portal requests.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, err := rootCmd.ExecuteContextC(ctx)

	// Close even when the command failed so refreshed cookies are kept
	if a := GetAppFromCmd(cmd); a != nil {
		rc := reqctx.GetRequestContext(cmd.Context())
		log.Debug().
			Str("request_id", rc.RequestID).
			Dur("elapsed", rc.Elapsed()).
			Bool("ok", err == nil).
			Msg("Command finished")

		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if cerr := a.Close(closeCtx); cerr != nil {
			log.Debug().Err(cerr).Msg("Close failed")
		}
		cancel()
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Error("Error: "+err.Error()))
		stop()
		os.Exit(1)
	}
}

func init() {
	// Initialize the application lazily so -h/--version never touch the keyring
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		ui.AutoDisable(os.Stdout)

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		if cmd.Annotations[annotationNoProfile] == "true" {
			cfg.NoProfile = true
		}

		ctx := reqctx.WithRequestContext(cmd.Context(), cmd.CommandPath())
		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}

		cmd.SetContext(ctx)
		SetApp(cmd, a)

		rc := reqctx.GetRequestContext(ctx)
		log.Debug().
			Str("request_id", rc.RequestID).
			Str("command", rc.Command).
			Str("config_file", cfg.File).
			Msg("Configuration loaded")
		return nil
	}

	config.RegisterFlags(rootCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(customHelpFunc)
}

// mustApp returns the Application set up by PersistentPreRunE
func mustApp(cmd *cobra.Command) (*app.Application, error) {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return a, nil
}
