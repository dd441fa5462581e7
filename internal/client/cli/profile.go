package cli

import (
	"context"
	"errors"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/spotlight/internal/client/client"
	"github.com/dmitrijs2005/spotlight/internal/client/models"
	"github.com/dmitrijs2005/spotlight/internal/client/services"
)

var errNotLoggedIn = errors.New("not logged in")

// editor returns the profile editor of the signed-in user, loading it on
// first use.
func (a *App) editor(ctx context.Context) (*services.ProfileEditor, error) {
	s := a.authService.Session()
	if !s.IsAuthenticated() {
		a.println("Please log in first")
		return nil, errNotLoggedIn
	}
	uid := s.User.ID

	a.mu.Lock()
	ed, loadedFor := a.profile, a.profileFor
	a.mu.Unlock()
	if loadedFor == uid {
		return ed, nil
	}

	// a 401 during Load logs out, which swaps a.profile under a.mu
	if err := ed.Load(ctx, uid); err != nil {
		return nil, a.fail(err, "Failed to load profile")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.profile != ed {
		return nil, a.fail(errors.New("session ended"), "Session ended, please log in again")
	}
	a.profileFor = uid
	return ed, nil
}

func (a *App) Profile(ctx context.Context) error {
	ed, err := a.editor(ctx)
	if err != nil {
		return err
	}
	p, _ := ed.Profile()

	a.printf("%s <%s>\n", p.FullName, p.Email)
	for _, f := range []struct{ label, value string }{
		{"Role", p.ProfRole},
		{"Location", p.Location},
		{"Bio", p.Bio},
		{"Avatar", p.Avatar},
	} {
		if f.value != "" {
			a.printf("  %-12s %s\n", f.label+":", f.value)
		}
	}
	a.printLinks(ed.Links())

	a.println("Skills:")
	for _, s := range ed.Skills.Items() {
		a.printf("  [%s] %s\n", s.ID, s.Title)
	}
	a.println("Experience:")
	for _, e := range ed.Experiences.Items() {
		a.printf("  [%s] %s, %s (%s)\n", e.ID, e.Position, e.Title, e.Date)
	}
	a.println("Projects:")
	for _, p := range ed.Projects.Items() {
		a.printf("  [%s] %s (%s)\n", p.ID, p.Title, p.Date)
	}
	a.println("Education:")
	for _, e := range ed.Educations.Items() {
		a.printf("  [%s] %s, %s (%s)\n", e.ID, e.Course, e.School, e.Date)
	}
	return nil
}

// prompts asks for each label in order and returns the answers.
func (a *App) prompts(labels ...string) ([]string, error) {
	out := make([]string, len(labels))
	for i, l := range labels {
		v, err := GetSimpleText(a.reader, l, a.out)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Add creates a sub-resource item; args[0] selects the kind.
func (a *App) Add(ctx context.Context, args []string) error {
	ed, err := a.editor(ctx)
	if err != nil {
		return err
	}

	var id string
	switch args[0] {
	case "skill":
		v, err := a.prompts("Skill")
		if err != nil {
			return err
		}
		s, err := ed.Skills.Add(ctx, models.Skill{Title: v[0]})
		if err != nil {
			return a.fail(err, "Failed to add skill")
		}
		id = s.ID
	case "exp":
		v, err := a.prompts("Company", "Position", "Dates", "Description")
		if err != nil {
			return err
		}
		e, err := ed.Experiences.Add(ctx, models.Experience{Title: v[0], Position: v[1], Date: v[2], Desc: v[3]})
		if err != nil {
			return a.fail(err, "Failed to add experience")
		}
		id = e.ID
	case "proj":
		v, err := a.prompts("Title", "Date", "Description", "Link")
		if err != nil {
			return err
		}
		p, err := ed.Projects.Add(ctx, models.Project{Title: v[0], Date: v[1], Desc: v[2], Link: v[3]})
		if err != nil {
			return a.fail(err, "Failed to add project")
		}
		id = p.ID
	case "edu":
		v, err := a.prompts("Course", "School", "Dates")
		if err != nil {
			return err
		}
		e, err := ed.Educations.Add(ctx, models.Education{Course: v[0], School: v[1], Date: v[2]})
		if err != nil {
			return a.fail(err, "Failed to add education")
		}
		id = e.ID
	default:
		a.println("Usage: add <skill|exp|proj|edu>")
		return nil
	}

	a.printf("Added %s %s\n", args[0], id)
	return nil
}

// Delete removes the sub-resource item args[1] of kind args[0].
func (a *App) Delete(ctx context.Context, args []string) error {
	ed, err := a.editor(ctx)
	if err != nil {
		return err
	}

	kind, id := args[0], args[1]
	var del func(context.Context, string) error
	switch kind {
	case "skill":
		del = ed.Skills.Delete
	case "exp":
		del = ed.Experiences.Delete
	case "proj":
		del = ed.Projects.Delete
	case "edu":
		del = ed.Educations.Delete
	default:
		a.println("Usage: del <skill|exp|proj|edu> <id>")
		return nil
	}

	if err := del(ctx, id); err != nil {
		return a.fail(err, "Failed to delete "+kind)
	}
	a.printf("Deleted %s %s\n", kind, id)
	return nil
}

// editField is one prompted value; an empty answer keeps current.
type editField struct {
	label   string
	current string
	dst     *string
}

// Save prompts for profile fields and links, showing current values as
// defaults, and stores the changed parts. Links and profile fields are
// saved independently and reported separately.
func (a *App) Save(ctx context.Context) error {
	ed, err := a.editor(ctx)
	if err != nil {
		return err
	}
	cur, _ := ed.Profile()
	curLinks := ed.Links()

	next := models.ProfileUpdate{}
	links := curLinks
	for _, f := range []editField{
		{"Full name", cur.FullName, &next.FullName},
		{"Role", cur.ProfRole, &next.ProfRole},
		{"Location", cur.Location, &next.Location},
		{"Bio", cur.Bio, &next.Bio},
		{"GitHub", curLinks.Github, &links.Github},
		{"LinkedIn", curLinks.Linkedin, &links.Linkedin},
		{"X", curLinks.X, &links.X},
		{"Portfolio", curLinks.Portfolio, &links.Portfolio},
	} {
		v, err := GetDefaultText(a.reader, f.label, f.current, a.out)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	// only changed profile fields are sent
	upd := models.ProfileUpdate{
		FullName: changed(next.FullName, cur.FullName),
		ProfRole: changed(next.ProfRole, cur.ProfRole),
		Location: changed(next.Location, cur.Location),
		Bio:      changed(next.Bio, cur.Bio),
	}
	var linksArg *models.UserLinks
	if links != curLinks {
		linksArg = &links
	}
	if linksArg == nil && upd.Empty() {
		a.println("Nothing to save")
		return nil
	}

	res := ed.Save(ctx, linksArg, upd)
	if linksArg != nil {
		a.report("Links", res.Links, "Failed to save links")
	}
	if !upd.Empty() {
		a.report("Profile", res.Profile, "Profile update failed")
	}
	return res.Err()
}

func changed(v, current string) string {
	if v == current {
		return ""
	}
	return v
}

func (a *App) report(part string, err error, fallback string) {
	if err != nil {
		a.printf("%s: %s\n", part, client.MessageOf(err, fallback))
		return
	}
	a.printf("%s saved\n", part)
}

// Avatar uploads the image at args[0] and sets it as the profile avatar.
func (a *App) Avatar(ctx context.Context, args []string) error {
	ed, err := a.editor(ctx)
	if err != nil {
		return err
	}

	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return a.fail(err, "Cannot open "+path)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return a.fail(err, "Cannot read "+path)
	}

	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = "application/octet-stream"
	}

	p, err := ed.UploadAvatar(ctx, filepath.Base(path), f, info.Size(), ct)
	switch {
	case errors.Is(err, services.ErrNoUploader):
		return a.fail(err, "Avatar uploads are not configured")
	case err != nil:
		return a.fail(err, "Avatar upload failed: "+err.Error())
	}
	a.printf("Avatar updated: %s\n", p.Avatar)
	return nil
}

// Review asks the backend to assess a profile, the signed-in user's unless
// an id is given.
func (a *App) Review(ctx context.Context, args []string) error {
	s := a.authService.Session()
	if !s.IsAuthenticated() {
		a.println("Please log in first")
		return errNotLoggedIn
	}
	id := s.User.ID
	if len(args) > 0 {
		id = args[0]
	}

	r, err := a.api.ReviewProfile(ctx, id)
	if err != nil {
		return a.fail(err, "Failed to review profile")
	}
	if !r.Available {
		a.println("No review available for this profile.")
		return nil
	}

	a.printf("Score: %d/100\n", r.Score)
	for _, f := range []struct {
		label, empty string
		items        []string
	}{
		{"Strengths", "No strengths listed.", r.Strengths},
		{"Missing/Weak Areas", "No weak areas noted.", r.Missing},
		{"Recommendations", "No recommendations provided.", r.Recommendations},
	} {
		if len(f.items) == 0 {
			a.printf("%s: %s\n", f.label, f.empty)
			continue
		}
		a.printf("%s: %s\n", f.label, strings.Join(f.items, ", "))
	}
	return nil
}
