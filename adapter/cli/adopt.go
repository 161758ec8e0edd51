package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/petconnect/internal/client"
)

var (
	adoptName   string
	adoptIncome string
)

// newSession builds a client session bound to the command's streams.
func newSession(app *App, prompter client.Prompter, out io.Writer) (*client.Session, error) {
	return client.NewSession(client.SessionConfig{
		Remote:   app.Remote,
		Prompter: prompter,
		Surface:  NewTerminalSurface(out),
		Logger:   app.Logger,
	})
}

var adoptCmd = &cobra.Command{
	Use:   "adopt <pet-id>...",
	Short: "Request the adoption of one or more pets",
	Long: `Request the adoption of one or more pets.

You are asked for your name and monthly income unless --name and --income
are given. Income may contain separators: "1.600.000" is read as 1600000.

Examples:
  petconnect adopt Luna_1
  petconnect adopt Luna_1 --name "Ana Torres" --income 2000000`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}

		out := cmd.OutOrStdout()
		prompter := presetPrompter{
			values: map[client.PromptField]string{
				client.PromptName:   adoptName,
				client.PromptIncome: adoptIncome,
			},
			fallback: NewLinePrompter(cmd.InOrStdin(), out),
		}
		session, err := newSession(app, prompter, out)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if err := session.Start(ctx); err != nil {
			fmt.Fprintf(out, "could not load notifications: %v\n", err)
		}

		var failed error
		for _, itemID := range args {
			result := session.RequestAdoption(ctx, itemID)
			printResult(out, result)
			if result.Outcome == client.OutcomeFailed {
				failed = errors.Join(failed, result.Err)
			}
		}
		return failed
	},
}

func printResult(out io.Writer, result client.Result) {
	switch result.Outcome {
	case client.OutcomeApproved:
		fmt.Fprintf(out, "%s: approved 🎉\n", result.ItemID)
	case client.OutcomeRejected:
		fmt.Fprintf(out, "%s: not approved\n", result.ItemID)
	case client.OutcomeIgnored:
		fmt.Fprintf(out, "%s: already adopted\n", result.ItemID)
	default:
		if result.Err != nil {
			fmt.Fprintf(out, "%s: %s (%v)\n", result.ItemID, result.Outcome, result.Err)
			return
		}
		fmt.Fprintf(out, "%s: %s\n", result.ItemID, result.Outcome)
	}
}

func init() {
	adoptCmd.Flags().StringVar(&adoptName, "name", "", "requester name")
	adoptCmd.Flags().StringVar(&adoptIncome, "income", "", "monthly income")
	rootCmd.AddCommand(adoptCmd)
}
