package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/dmitrijs2005/spotlight/internal/client/client"
	"github.com/dmitrijs2005/spotlight/internal/client/models"
	"github.com/dmitrijs2005/spotlight/internal/client/store"
	"github.com/dmitrijs2005/spotlight/internal/logging"
	"golang.org/x/sync/singleflight"
)

// DefaultPageLimit is used when FetchAll is called without a limit.
const DefaultPageLimit = 10

// Phase is the state of the directory listing.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// TalentState is a snapshot of the directory store.
//
// Items always hold the result of the last successful listing request (a
// page or a search); Page, Limit and Query describe that request. A failed
// request only changes Phase, Loading and Message.
type TalentState struct {
	Phase      Phase
	Loading    bool
	Items      []models.Talent
	Page       int
	Limit      int
	TotalPages int
	Query      string
	Message    string

	// Talent is the last profile selected by id, independent of Items.
	// TalentMessage reports the last failed selection.
	Talent        *models.Talent
	TalentLoading bool
	TalentMessage string
}

// TalentService is the public directory store.
//
// Listing requests (FetchAll, Search) are numbered; a response is committed
// only if no newer listing request was issued in the meantime, so a slow
// page can never overwrite a newer search or the reverse.
type TalentService interface {
	FetchAll(ctx context.Context, page, limit int) error
	FetchOne(ctx context.Context, id string) (models.Talent, error)
	// Search is a no-op for a blank query.
	Search(ctx context.Context, query string) error

	State() TalentState
	Subscribe(fn func(TalentState)) func()
}

type talentService struct {
	client       client.Client
	log          logging.Logger
	defaultLimit int

	state *store.Store[TalentState]
	sf    singleflight.Group

	listSeq atomic.Uint64
	oneSeq  atomic.Uint64
}

// NewTalentService constructs a TalentService. defaultLimit <= 0 means
// DefaultPageLimit.
func NewTalentService(c client.Client, log logging.Logger, defaultLimit int) TalentService {
	if log == nil {
		log = logging.Nop()
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultPageLimit
	}
	return &talentService{
		client:       c,
		log:          log.With("service", "talent"),
		defaultLimit: defaultLimit,
		state:        store.New(TalentState{Items: []models.Talent{}, TotalPages: 1}),
	}
}

func (s *talentService) State() TalentState {
	st := s.state.Get()
	st.Items = append([]models.Talent(nil), st.Items...)
	return st
}

func (s *talentService) Subscribe(fn func(TalentState)) func() {
	return s.state.Subscribe(fn)
}

func (s *talentService) beginListing() uint64 {
	seq := s.listSeq.Add(1)
	s.state.Update(func(st TalentState) (TalentState, bool) {
		st.Phase = PhaseLoading
		st.Loading = true
		return st, true
	})
	return seq
}

// finishListing commits apply if seq is still the newest listing request.
func (s *talentService) finishListing(ctx context.Context, seq uint64, apply func(TalentState) TalentState) bool {
	committed := false
	s.state.Update(func(st TalentState) (TalentState, bool) {
		if seq != s.listSeq.Load() {
			return st, false
		}
		committed = true
		st = apply(st)
		st.Loading = false
		return st, true
	})
	if !committed {
		s.log.Debug(ctx, "dropped stale listing response", "seq", seq)
	}
	return committed
}

func (s *talentService) FetchAll(ctx context.Context, page, limit int) error {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	seq := s.beginListing()
	key := fmt.Sprintf("page:%d:%d", page, limit)
	v, err, _ := s.sf.Do(key, func() (any, error) {
		return s.client.ListUsers(ctx, page, limit)
	})
	if err != nil {
		s.log.Warn(ctx, "talent page fetch failed", "page", page, "limit", limit, "err", err)
		s.finishListing(ctx, seq, func(st TalentState) TalentState {
			st.Phase = PhaseFailed
			st.Message = client.MessageOf(err, "Failed to fetch users")
			return st
		})
		return err
	}

	p := v.(models.TalentPage)
	s.finishListing(ctx, seq, func(st TalentState) TalentState {
		st.Phase = PhaseLoaded
		st.Items = p.Items
		st.TotalPages = p.TotalPages
		st.Page = page
		st.Limit = limit
		st.Query = ""
		st.Message = ""
		return st
	})
	return nil
}

func (s *talentService) Search(ctx context.Context, query string) error {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}

	seq := s.beginListing()
	v, err, _ := s.sf.Do("search:"+q, func() (any, error) {
		return s.client.SearchUsers(ctx, q)
	})
	if err != nil {
		s.log.Warn(ctx, "talent search failed", "query", q, "err", err)
		s.finishListing(ctx, seq, func(st TalentState) TalentState {
			st.Phase = PhaseFailed
			st.Message = client.MessageOf(err, "Failed to fetch users")
			return st
		})
		return err
	}

	items := v.([]models.Talent)
	s.finishListing(ctx, seq, func(st TalentState) TalentState {
		st.Phase = PhaseLoaded
		st.Items = items
		st.TotalPages = 1
		st.Page = 1
		st.Query = q
		st.Message = ""
		return st
	})
	return nil
}

func (s *talentService) FetchOne(ctx context.Context, id string) (models.Talent, error) {
	seq := s.oneSeq.Add(1)
	s.state.Update(func(st TalentState) (TalentState, bool) {
		st.TalentLoading = true
		return st, true
	})

	v, err, _ := s.sf.Do("user:"+id, func() (any, error) {
		return s.client.GetUser(ctx, id)
	})

	s.state.Update(func(st TalentState) (TalentState, bool) {
		if seq != s.oneSeq.Load() {
			return st, false
		}
		st.TalentLoading = false
		if err != nil {
			st.TalentMessage = client.MessageOf(err, "Failed to fetch user")
			return st, true
		}
		t := v.(models.Talent)
		st.Talent = &t
		st.TalentMessage = ""
		return st, true
	})

	if err != nil {
		s.log.Warn(ctx, "talent fetch failed", "id", id, "err", err)
		return models.Talent{}, err
	}
	return v.(models.Talent), nil
}
