package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/petconnect/internal/client"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive adoption session",
	Long: `Start an interactive session that keeps the notification feed and the
adopt buttons alive between requests.

Commands:
  adopt <pet-id>   request an adoption
  status <pet-id>  show the pet's adopt button
  feed             show the notification feed
  refresh          reload notifications from the server
  clear            clear the server notifications
  quit             leave the shell`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		return runShell(cmd.Context(), app, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

// runShell reads commands from in until "quit" or end of input.
func runShell(ctx context.Context, app *App, in io.Reader, out io.Writer) error {
	prompter := NewLinePrompter(in, out)
	session, err := newSession(app, prompter, out)
	if err != nil {
		return err
	}
	if err := session.Start(ctx); err != nil {
		fmt.Fprintf(out, "could not load notifications: %v\n", err)
	}

	fmt.Fprintln(out, `Type "help" for commands.`)
	for {
		fmt.Fprint(out, "petconnect> ")
		line, ok, err := prompter.ReadLine()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out)
			return nil
		}
		if quit := shellCommand(ctx, session, out, line); quit {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// shellCommand runs one shell line and reports whether to quit.
func shellCommand(ctx context.Context, session *client.Session, out io.Writer, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch cmd, args := fields[0], fields[1:]; cmd {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(out, "adopt <pet-id> | status <pet-id> | feed | refresh | clear | quit")
	case "adopt":
		if len(args) != 1 {
			fmt.Fprintln(out, "usage: adopt <pet-id>")
			return false
		}
		printResult(out, session.RequestAdoption(ctx, args[0]))
	case "status":
		if len(args) != 1 {
			fmt.Fprintln(out, "usage: status <pet-id>")
			return false
		}
		view := session.Buttons().View(args[0])
		fmt.Fprintf(out, "[%s] %s (%s)\n", view.ItemID, view.Label, view.State)
	case "feed":
		printFeed(out, session.Feed().View())
	case "refresh":
		if err := session.Feed().Refresh(ctx); err != nil {
			fmt.Fprintf(out, "refresh failed: %v\n", err)
		}
	case "clear":
		if err := session.Clear(ctx); err != nil {
			fmt.Fprintf(out, "clear failed: %v\n", err)
		}
	default:
		fmt.Fprintf(out, "unknown command %q\n", cmd)
	}
	return false
}
