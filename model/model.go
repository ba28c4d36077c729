package model

// Category classifies a submission. Unknown values fall back to
// CategoryBug when mapped to issue labels.
type Category string

const (
	CategoryBug      Category = "bug"
	CategoryFeature  Category = "feature"
	CategoryQuestion Category = "question"
)

// Submission is the payload produced by the feedback widget. It is
// validated and formatted into an issue, never mutated, and discarded
// once the response has been written.
type Submission struct {
	Repo        string     `json:"repo"` // "owner/repo"
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Screenshot  string     `json:"screenshot,omitempty"` // data URI
	Submitter   *Submitter `json:"submitter,omitempty"`
	Category    Category   `json:"category,omitempty"`
	Metadata    Metadata   `json:"metadata"`
}

type Submitter struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Metadata is environment context captured by the widget at submission
// time. Browser and OS arrive pre-parsed when the widget could identify
// them from the user agent.
type Metadata struct {
	URL              string   `json:"url"`
	UserAgent        string   `json:"userAgent"`
	Viewport         Viewport `json:"viewport"`
	Timestamp        string   `json:"timestamp"`
	ElementSelector  string   `json:"elementSelector,omitempty"`
	Browser          string   `json:"browser,omitempty"`
	OS               string   `json:"os,omitempty"`
	DevicePixelRatio float64  `json:"devicePixelRatio,omitempty"`
	Language         string   `json:"language,omitempty"`
}

type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IssueRecord identifies the issue created upstream. Nothing beyond
// these two fields is retained.
type IssueRecord struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"htmlUrl"`
}

// Label returns the issue label for the submission's category.
func (c Category) Label() string {
	switch c {
	case CategoryFeature:
		return "enhancement"
	case CategoryQuestion:
		return "question"
	default:
		return "bug"
	}
}
