package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/musemate/backend/internal/domain/entities"
)

// ChatCmd runs the assistant as a terminal conversation
var ChatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"c"},
	Short:   "Talk to the museum assistant",
	Long: `Starts an interactive conversation. Type the number of a menu option
to choose it, or type a question. "menu" returns to the main menu and
"quit" leaves.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(configFromViper())
		if err != nil {
			return err
		}
		return runChat(cmd.Context(), a, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func runChat(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	session, err := a.chat.StartSession(ctx)
	if err != nil {
		return err
	}
	options := a.chat.MenuOptions()
	printSession(out, session, options)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var next *entities.ChatSession
		switch lower := strings.ToLower(line); {
		case lower == "quit" || lower == "exit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case lower == "menu" || lower == "reset":
			next, err = a.chat.Reset(ctx, session.ID, session.Revision)
		default:
			if id, ok := optionFor(line, session.State, options); ok {
				next, err = a.chat.SelectOption(ctx, session.ID, id, session.Revision)
			} else {
				next, err = a.chat.SendMessage(ctx, session.ID, line, session.Revision)
			}
		}
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		session = next
		printSession(out, session, options)
	}
}

// optionFor maps a typed menu number to its option while the menu is shown
func optionFor(line string, state entities.ConversationState, options []entities.ChatOption) (entities.Flow, bool) {
	if !state.ShowButtons || state.AwaitsInput() {
		return entities.FlowNone, false
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(options) {
		return entities.FlowNone, false
	}
	return options[n-1].ID, true
}

func printSession(out io.Writer, session *entities.ChatSession, options []entities.ChatOption) {
	fmt.Fprintf(out, "\n%s\n", session.State.CurrentMessage.Text())
	for _, action := range session.Actions {
		fmt.Fprintf(out, "  [%s] %s\n", action.Label, action.URL)
	}
	if session.State.ShowButtons && !session.State.AwaitsInput() {
		fmt.Fprintln(out)
		for i, opt := range options {
			fmt.Fprintf(out, "  %d. %s %s\n", i+1, opt.Icon, opt.Label)
		}
	}
	if session.State.ShowInput && session.State.InputPlaceholder != "" {
		fmt.Fprintf(out, "(%s)\n", session.State.InputPlaceholder)
	}
}
