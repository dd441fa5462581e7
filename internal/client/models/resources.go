package models

// Entity is implemented by every record that carries a server-assigned id.
type Entity interface {
	EntityID() string
}

type Skill struct {
	ID    string `json:"_id,omitempty"`
	Title string `json:"title"`
}

func (s Skill) EntityID() string { return s.ID }

type Experience struct {
	ID       string `json:"_id,omitempty"`
	Title    string `json:"title"`
	Position string `json:"position"`
	Date     string `json:"date"`
	Desc     string `json:"desc"`
	UserID   string `json:"userId,omitempty"`
}

func (e Experience) EntityID() string { return e.ID }

type Project struct {
	ID         string `json:"_id,omitempty"`
	Title      string `json:"title"`
	ProjectImg string `json:"projectImg"`
	Date       string `json:"date"`
	Desc       string `json:"desc"`
	Link       string `json:"link,omitempty"`
}

func (p Project) EntityID() string { return p.ID }

type Education struct {
	ID     string `json:"_id,omitempty"`
	Course string `json:"course"`
	School string `json:"school"`
	Date   string `json:"date"`
}

func (e Education) EntityID() string { return e.ID }

// UserLinks is the per-user singleton of social links. It is upserted,
// never created or deleted.
type UserLinks struct {
	ID        string `json:"_id,omitempty"`
	Github    string `json:"github"`
	Linkedin  string `json:"linkedin"`
	X         string `json:"X"`
	Portfolio string `json:"portfolio"`
}

func (l UserLinks) EntityID() string { return l.ID }
