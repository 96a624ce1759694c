package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/filex"
)

const exportDir = "exports"

// Ask sends message to the active session. Without an active session the
// turn is answered but not recorded.
func (a *App) Ask(ctx context.Context, message string) error {
	reply, session, err := a.sessionService.Send(ctx, a.activeSessionID, message)
	if err != nil {
		a.report(err)
		return err
	}

	fmt.Fprintf(a.out, "\n%s\n\n", reply.Text)
	fmt.Fprintf(a.out, "tokens: %d prompt + %d completion = %d, cost $%.6f\n",
		reply.PromptTokens, reply.CompletionTokens, reply.TotalTokens, reply.Cost)
	if session != nil {
		fmt.Fprintf(a.out, "session total: %d tokens, $%.6f\n", session.Stats.TotalTokens, session.Stats.EstimatedCost)
	}
	return nil
}

// Compose reads a multi-line message and sends it like Ask.
func (a *App) Compose(ctx context.Context) error {
	text, err := GetMultiline(a.reader, "Enter message", a.out)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(a.out, "Nothing to send")
		return nil
	}
	return a.Ask(ctx, text)
}

// Export saves the active session rendered in format to path, or to the
// server-suggested file name under ./exports.
func (a *App) Export(ctx context.Context, format, path string) error {
	if a.activeSessionID == "" {
		fmt.Fprintln(a.out, errNoActiveSession.Error())
		return errNoActiveSession
	}

	body, name, err := a.sessionService.Export(ctx, a.activeSessionID, format)
	if err != nil {
		a.report(err)
		return err
	}

	if path == "" {
		dir, err := filex.EnsureSubDir(exportDir)
		if err != nil {
			a.report(err)
			return err
		}
		path = filepath.Join(dir, filepath.Base(name))
	}
	if err := os.WriteFile(path, body, 0o600); err != nil {
		a.report(err)
		return err
	}

	fmt.Fprintf(a.out, "Saved %d bytes to %s\n", len(body), path)
	return nil
}

// Archive uploads the active session to object storage and prints the
// download link.
func (a *App) Archive(ctx context.Context, format string) error {
	if a.activeSessionID == "" {
		fmt.Fprintln(a.out, errNoActiveSession.Error())
		return errNoActiveSession
	}

	link, err := a.sessionService.Archive(ctx, a.activeSessionID, format)
	if err != nil {
		a.report(err)
		return err
	}

	fmt.Fprintf(a.out, "Archived as %s\n%s\n", link.Key, link.URL)
	return nil
}
