package github

// Installation is the binding between the App identity and a set of
// repositories it has been granted access to.
type Installation struct {
	ID int64 `json:"id"`
}

// Issue is the subset of GitHub's issue representation this service
// reads back after creation.
type Issue struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
}

// CreateIssueRequest contains the fields for creating a new issue.
type CreateIssueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body,omitempty"`
	Labels []string `json:"labels,omitempty"`
}

// Repository is the subset of repository metadata used for the
// visibility check.
type Repository struct {
	FullName string `json:"full_name"`
	Private  bool   `json:"private"`
}

type accessToken struct {
	Token string `json:"token"`
}

type contentsResponse struct {
	Content struct {
		DownloadURL string `json:"download_url"`
		HTMLURL     string `json:"html_url"`
	} `json:"content"`
}
