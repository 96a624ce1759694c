package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/client/models"
)

var errNoActiveSession = errors.New("no active session, use 'new' or 'use <id>'")

func (a *App) offlineNote(offline bool) {
	if offline {
		fmt.Fprintln(a.out, "(offline, showing cached data)")
	}
}

func (a *App) List(ctx context.Context) error {
	list, offline, err := a.sessionService.List(ctx)
	if err != nil {
		a.report(err)
		return err
	}
	a.offlineNote(offline)

	if len(list) == 0 {
		fmt.Fprintln(a.out, "No sessions yet, create one with 'new'")
		return nil
	}

	for _, s := range list {
		marker := " "
		if s.ID == a.activeSessionID {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %s  %-40s %3d msgs  %s\n",
			marker, s.ID, s.Title, len(s.Messages), s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *App) New(ctx context.Context, title string) error {
	s, err := a.sessionService.Create(ctx, title)
	if err != nil {
		a.report(err)
		return err
	}
	a.activeSessionID = s.ID
	fmt.Fprintf(a.out, "Created session %s (%s)\n", s.ID, s.Title)
	return nil
}

func (a *App) Use(ctx context.Context, id string) error {
	s, offline, err := a.sessionService.Get(ctx, id)
	if err != nil {
		a.report(err)
		return err
	}
	a.offlineNote(offline)
	a.activeSessionID = s.ID
	fmt.Fprintf(a.out, "Active session: %s (%d messages)\n", s.Title, len(s.Messages))
	return nil
}

func (a *App) activeSession(ctx context.Context) (*models.Session, error) {
	if a.activeSessionID == "" {
		fmt.Fprintln(a.out, errNoActiveSession.Error())
		return nil, errNoActiveSession
	}
	s, offline, err := a.sessionService.Get(ctx, a.activeSessionID)
	if err != nil {
		a.report(err)
		return nil, err
	}
	a.offlineNote(offline)
	return s, nil
}

func (a *App) Show(ctx context.Context) error {
	s, err := a.activeSession(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "== %s ==\n", s.Title)
	for _, m := range s.Messages {
		fmt.Fprintf(a.out, "[%s] %s:\n%s\n\n", m.Timestamp.Local().Format("15:04:05"), strings.ToUpper(m.Role), m.Content)
	}
	return nil
}

func (a *App) Stats(ctx context.Context) error {
	s, err := a.activeSession(ctx)
	if err != nil {
		return err
	}
	printStats(a, s.Stats)
	return nil
}

func printStats(a *App, st models.Stats) {
	fmt.Fprintf(a.out, "Prompt tokens:     %d\n", st.PromptTokens)
	fmt.Fprintf(a.out, "Completion tokens: %d\n", st.CompletionTokens)
	fmt.Fprintf(a.out, "Total tokens:      %d\n", st.TotalTokens)
	fmt.Fprintf(a.out, "Estimated cost:    $%.6f\n", st.EstimatedCost)
}

// Delete removes id, or the active session when id is empty.
func (a *App) Delete(ctx context.Context, id string) error {
	if id == "" {
		id = a.activeSessionID
	}
	if id == "" {
		fmt.Fprintln(a.out, "Usage: delete <id>")
		return errNoActiveSession
	}

	if err := a.sessionService.Delete(ctx, id); err != nil {
		a.report(err)
		return err
	}
	if id == a.activeSessionID {
		a.activeSessionID = ""
	}
	fmt.Fprintln(a.out, "Session deleted")
	return nil
}
