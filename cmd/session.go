package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"queryfanout/pkg/browser"
)

var (
	sessionURLFlag string

	sessionCmd = &cobra.Command{
		Use:   "session",
		Short: "Open a browser session and hold it until interrupted",
		Long:  longSession,
		RunE:  runSession,
	}
)

func init() {
	rootCmd.AddCommand(sessionCmd)

	sessionCmd.Flags().StringVar(&sessionURLFlag, "url", "", "initial URL to navigate to")
	sessionCmd.Flags().StringVar(&providerFlag, "provider", "", "browser provider: browserbase or local")
}

/*
runSession acquires one session and keeps it alive so an operator can
attach to the live inspector, poke at a page, or debug selectors. Ctrl+C
releases the session cleanly.
*/
func runSession(cmd *cobra.Command, args []string) error {
	provider, err := buildBrowserProvider()
	if err != nil {
		return err
	}

	options := browser.DefaultOptions()
	options.InitialURL = sessionURLFlag

	session, err := provider.Acquire(cmd.Context(), options)
	if err != nil {
		return err
	}
	defer session.Release()

	log.Info(
		"session ready",
		"id", session.ID,
		"kind", session.Kind,
		"inspector", session.Inspector,
	)
	log.Info("press ctrl+c to release the session")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case <-interrupt:
	case <-cmd.Context().Done():
	}

	log.Info("releasing session", "id", session.ID)
	return nil
}

var longSession = `
Acquire a single browser session, log its inspector URL, and hold it open
until interrupted. Useful for watching a live remote session or testing
selectors against the real services.
`
