package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/spotlight/internal/client/models"
	"github.com/dmitrijs2005/spotlight/internal/debounce"
)

// Explore shows a page of the talent directory. args may hold a page
// number, "next" or "prev"; without args the current page is reloaded.
func (a *App) Explore(ctx context.Context, args []string) error {
	st := a.talentService.State()
	page := max(st.Page, 1)
	if len(args) > 0 {
		switch args[0] {
		case "next":
			if st.TotalPages > 0 && page >= st.TotalPages {
				a.println("Already on the last page")
				return nil
			}
			page++
		case "prev":
			if page <= 1 {
				a.println("Already on the first page")
				return nil
			}
			page--
		default:
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				a.println("Usage: explore [page|next|prev]")
				return nil
			}
			page = n
		}
	}

	if err := a.talentService.FetchAll(ctx, page, a.config.PageLimit); err != nil {
		return a.fail(err, "Failed to fetch users")
	}
	st = a.talentService.State()
	a.printf("Page %d/%d\n", st.Page, st.TotalPages)
	a.printTalents(st.Items)
	return nil
}

// Search runs a one-off search for the joined args. Without args it reads
// queries line by line and searches once typing pauses for the configured
// debounce window; an empty line leaves live mode.
func (a *App) Search(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.liveSearch(ctx)
	}
	return a.search(ctx, strings.Join(args, " "))
}

func (a *App) search(ctx context.Context, q string) error {
	if err := a.talentService.Search(ctx, q); err != nil {
		return a.fail(err, "Failed to fetch users")
	}
	st := a.talentService.State()
	if st.Query == "" {
		return nil
	}
	a.printf("%d result(s) for %q\n", len(st.Items), st.Query)
	a.printTalents(st.Items)
	return nil
}

func (a *App) liveSearch(ctx context.Context) error {
	a.println("Live search: type to search, empty line to finish")

	d := debounce.New(a.config.SearchDebounce)
	defer d.Stop()

	for {
		line, err := a.reader.ReadString('\n')
		q := strings.TrimSpace(line)
		if q != "" {
			d.Trigger(func() { _ = a.search(ctx, q) })
		}
		if q == "" || err != nil {
			d.Flush()
			if err != nil && err != io.EOF {
				return err
			}
			return nil
		}
	}
}

func (a *App) Show(ctx context.Context, args []string) error {
	t, err := a.talentService.FetchOne(ctx, args[0])
	if err != nil {
		return a.fail(err, "Failed to fetch user")
	}

	a.printf("%s <%s>\n", t.FullName, t.Email)
	for _, f := range []struct{ label, value string }{
		{"Role", t.ProfRole},
		{"Location", t.Location},
		{"Bio", t.Bio},
		{"Avatar", t.Avatar},
	} {
		if f.value != "" {
			a.printf("  %-12s %s\n", f.label+":", f.value)
		}
	}
	a.printList("Skills", models.Labels(t.Skills, func(s models.Skill) string { return s.Title }))
	a.printList("Experience", models.Labels(t.Experiences, func(e models.Experience) string {
		return strings.TrimSpace(fmt.Sprintf("%s %s", e.Position, atOrEmpty(e.Title)))
	}))
	a.printList("Projects", models.Labels(t.Projects, func(p models.Project) string { return p.Title }))
	for _, ref := range t.Links {
		if l, ok := ref.Resolve(); ok {
			a.printLinks(l)
		}
	}
	return nil
}

func (a *App) printTalents(items []models.Talent) {
	if len(items) == 0 {
		a.println("  (no talents)")
		return
	}
	for _, t := range items {
		skills := models.Labels(t.Skills, func(s models.Skill) string { return s.Title })
		a.printf("  %-26s %-24s %-20s %s\n", t.ID, t.FullName, t.ProfRole, strings.Join(skills, ", "))
	}
}

func (a *App) printList(label string, values []string) {
	if len(values) == 0 {
		return
	}
	a.printf("  %-12s %s\n", label+":", strings.Join(values, "; "))
}

func (a *App) printLinks(l models.UserLinks) {
	for _, f := range []struct{ label, value string }{
		{"GitHub", l.Github},
		{"LinkedIn", l.Linkedin},
		{"X", l.X},
		{"Portfolio", l.Portfolio},
	} {
		if f.value != "" {
			a.printf("  %-12s %s\n", f.label+":", f.value)
		}
	}
}

func atOrEmpty(s string) string {
	if s == "" {
		return ""
	}
	return "at " + s
}
