package services

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"

	"github.com/dmitrijs2005/spotlight/internal/client/client"
	"github.com/dmitrijs2005/spotlight/internal/client/models"
	"github.com/dmitrijs2005/spotlight/internal/client/upload"
	"github.com/dmitrijs2005/spotlight/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Collection is the locally held copy of one of the user's sub-resources.
// Items change only after the backend confirmed the mutation.
type Collection[T models.Entity] struct {
	name string
	res  client.SubResource[T]
	log  logging.Logger

	mu    sync.RWMutex
	items []T
}

func newCollection[T models.Entity](name string, res client.SubResource[T], log logging.Logger) *Collection[T] {
	return &Collection[T]{name: name, res: res, log: log, items: []T{}}
}

// Items returns a copy of the current items.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Load replaces the items with the backend's list. A failed read leaves an
// empty list and is only logged.
func (c *Collection[T]) Load(ctx context.Context) {
	items, err := c.res.List(ctx)
	if err != nil {
		c.log.Warn(ctx, "failed to load collection", "collection", c.name, "err", err)
		items = []T{}
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}

func (c *Collection[T]) Add(ctx context.Context, item T) (T, error) {
	created, err := c.res.Add(ctx, item)
	if err != nil {
		return created, err
	}
	c.mu.Lock()
	c.items = append(c.items, created)
	c.mu.Unlock()
	return created, nil
}

func (c *Collection[T]) Update(ctx context.Context, id string, item T) (T, error) {
	updated, err := c.res.Update(ctx, id, item)
	if err != nil {
		return updated, err
	}
	c.mu.Lock()
	for i := range c.items {
		if c.items[i].EntityID() == id {
			c.items[i] = updated
			break
		}
	}
	c.mu.Unlock()
	return updated, nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := c.res.Delete(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	c.items = slices.DeleteFunc(c.items, func(v T) bool { return v.EntityID() == id })
	c.mu.Unlock()
	return nil
}

// SaveResult reports the outcome of each independent call made by
// ProfileEditor.Save. A failed profile save does not undo saved links.
type SaveResult struct {
	Links   error
	Profile error
}

func (r SaveResult) Err() error {
	return errors.Join(r.Links, r.Profile)
}

// ProfileEditor aggregates the profile document, links and the four
// sub-resource collections of the signed-in user.
type ProfileEditor struct {
	client   client.Client
	uploader upload.Uploader
	log      logging.Logger

	Skills      *Collection[models.Skill]
	Experiences *Collection[models.Experience]
	Projects    *Collection[models.Project]
	Educations  *Collection[models.Education]

	mu      sync.RWMutex
	userID  string
	profile *models.ProfileDocument
	links   models.UserLinks
}

// NewProfileEditor returns an editor. up may be nil when avatar uploads are
// not configured.
func NewProfileEditor(c client.Client, up upload.Uploader, log logging.Logger) *ProfileEditor {
	if log == nil {
		log = logging.Nop()
	}
	log = log.With("service", "profile")
	return &ProfileEditor{
		client:      c,
		uploader:    up,
		log:         log,
		Skills:      newCollection("skills", c.Skills(), log),
		Experiences: newCollection("experiences", c.Experiences(), log),
		Projects:    newCollection("projects", c.Projects(), log),
		Educations:  newCollection("educations", c.Educations(), log),
	}
}

// Load fetches the profile document, links and all collections
// concurrently and returns once every request has settled. Only a failure
// to read the profile document is returned; the other reads degrade to
// empty values.
func (e *ProfileEditor) Load(ctx context.Context, userID string) error {
	var (
		g       errgroup.Group
		profile models.ProfileDocument
		links   models.UserLinks
	)

	g.Go(func() error { e.Skills.Load(ctx); return nil })
	g.Go(func() error { e.Experiences.Load(ctx); return nil })
	g.Go(func() error { e.Projects.Load(ctx); return nil })
	g.Go(func() error { e.Educations.Load(ctx); return nil })
	g.Go(func() error {
		l, err := e.client.GetLinks(ctx)
		if err != nil {
			e.log.Warn(ctx, "failed to load links", "err", err)
		}
		links = l
		return nil
	})
	g.Go(func() error {
		p, err := e.client.GetProfile(ctx, userID)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})

	err := g.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.userID = userID
	e.links = links
	if err != nil {
		e.profile = nil
		return err
	}
	e.profile = &profile
	return nil
}

// Profile returns the loaded profile document.
func (e *ProfileEditor) Profile() (models.ProfileDocument, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.profile == nil {
		return models.ProfileDocument{}, false
	}
	return *e.profile, true
}

func (e *ProfileEditor) Links() models.UserLinks {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.links
}

func (e *ProfileEditor) UpsertLinks(ctx context.Context, l models.UserLinks) (models.UserLinks, error) {
	saved, err := e.client.UpsertLinks(ctx, l)
	if err != nil {
		return models.UserLinks{}, err
	}
	e.mu.Lock()
	e.links = saved
	e.mu.Unlock()
	return saved, nil
}

// SaveProfile updates the profile document. The editor must be loaded.
func (e *ProfileEditor) SaveProfile(ctx context.Context, u models.ProfileUpdate) (models.ProfileDocument, error) {
	e.mu.RLock()
	id := e.userID
	e.mu.RUnlock()
	if id == "" {
		return models.ProfileDocument{}, ErrNotLoaded
	}

	saved, err := e.client.UpdateProfile(ctx, id, u)
	if err != nil {
		return models.ProfileDocument{}, err
	}
	e.mu.Lock()
	e.profile = &saved
	e.mu.Unlock()
	return saved, nil
}

// Save stores links and profile fields with two independent calls. A nil
// links or an empty update skips the corresponding call.
func (e *ProfileEditor) Save(ctx context.Context, links *models.UserLinks, u models.ProfileUpdate) SaveResult {
	var (
		g   errgroup.Group
		res SaveResult
	)
	if links != nil {
		g.Go(func() error {
			_, res.Links = e.UpsertLinks(ctx, *links)
			return nil
		})
	}
	if !u.Empty() {
		g.Go(func() error {
			_, res.Profile = e.SaveProfile(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	if res.Links != nil {
		e.log.Warn(ctx, "failed to save links", "err", res.Links)
	}
	if res.Profile != nil {
		e.log.Warn(ctx, "failed to save profile", "err", res.Profile)
	}
	return res
}

// UploadAvatar stores the image with the configured uploader and saves its
// URL as the profile avatar.
func (e *ProfileEditor) UploadAvatar(ctx context.Context, name string, body io.Reader, size int64, contentType string) (models.ProfileDocument, error) {
	if e.uploader == nil {
		return models.ProfileDocument{}, ErrNoUploader
	}
	e.mu.RLock()
	loaded := e.userID != ""
	e.mu.RUnlock()
	if !loaded {
		return models.ProfileDocument{}, ErrNotLoaded
	}

	url, err := e.uploader.Upload(ctx, name, body, size, contentType)
	if err != nil {
		return models.ProfileDocument{}, err
	}
	e.log.Info(ctx, "avatar uploaded", "url", url)
	return e.SaveProfile(ctx, models.ProfileUpdate{Avatar: url})
}
