package session

import (
	"fmt"
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"sort"
	"strings"
)

// View is the shell shown for a session state.
type View interface {
	Name() string
	Render() string
}

type AuthenticatedView struct {
	Identity common.Identity
}

func (view AuthenticatedView) Name() string {
	return "authenticated"
}

func (view AuthenticatedView) Render() string {
	return fmt.Sprintf("Signed in as %s\nCommands: items, add-item, delete-item, sales, sell, reports, logout", view.Identity.Email)
}

type GuestView struct {
	Error       string
	FieldErrors map[string][]string
}

func (view GuestView) Name() string {
	return "guest"
}

func (view GuestView) Render() string {
	var screen strings.Builder
	if view.Error != "" {
		screen.WriteString(view.Error + "\n")
	}
	screen.WriteString(RenderFieldErrors(view.FieldErrors))
	screen.WriteString("Not signed in\nCommands: login, register")
	return screen.String()
}

// RenderFieldErrors lists messages one per line, fields in name order.
func RenderFieldErrors(fields map[string][]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var lines strings.Builder
	for _, name := range names {
		for _, message := range fields[name] {
			lines.WriteString(fmt.Sprintf("  %s: %s\n", name, message))
		}
	}
	return lines.String()
}

// SelectView picks exactly one shell for the snapshot.
func SelectView(snapshot Snapshot) View {
	if snapshot.Authenticated() {
		return AuthenticatedView{Identity: *snapshot.Identity}
	}
	return GuestView{Error: snapshot.Error, FieldErrors: snapshot.FieldErrors}
}
