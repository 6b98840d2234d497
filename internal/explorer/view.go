package explorer

import (
	"git.home.luguber.info/inful/repoexplorer/internal/github"
)

// View is an immutable snapshot of a session for rendering.
type View struct {
	SessionID  string           `json:"session_id"`
	SearchType github.OwnerKind `json:"search_type"`
	Username   string           `json:"username,omitempty"`
	Loading    bool             `json:"loading"`
	Error      string           `json:"error,omitempty"`

	Repositories []github.Repository `json:"repositories"`

	SelectedRepo *github.Repository `json:"selected_repo,omitempty"`
	CurrentPath  string             `json:"current_path"`
	Entries      []github.Entry     `json:"entries"`
	Summary      string             `json:"summary,omitempty"`
	Summarizing  bool               `json:"summarizing"`

	FilePath       string `json:"file_path,omitempty"`
	FileName       string `json:"file_name,omitempty"`
	FileContent    string `json:"file_content,omitempty"`
	Explanation    string `json:"explanation,omitempty"`
	Explaining     bool   `json:"explaining"`
	ConvertedCode  string `json:"converted_code,omitempty"`
	Converting     bool   `json:"converting"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`

	IsProgramFile     bool     `json:"is_program_file"`
	NavigationTitle   string   `json:"navigation_title,omitempty"`
	InputPlaceholder  string   `json:"input_placeholder"`
	TitleType         string   `json:"title_type"`
	ConversionTargets []string `json:"conversion_targets"`
}

// HasFile reports whether the view shows a file.
func (v View) HasFile() bool { return v.FilePath != "" }

// state is the mutable session state guarded by Session.mu.
type state struct {
	searchType github.OwnerKind
	username   string
	repos      []github.Repository
	loading    bool
	err        string

	selected    *github.Repository
	currentPath string
	entries     []github.Entry
	summary     string
	summarizing bool

	filePath       string
	fileName       string
	fileContent    string
	explanation    string
	explaining     bool
	converted      string
	converting     bool
	targetLanguage string
	sourceLanguage string
}

func navigationTitle(repo *github.Repository, path string) string {
	if repo == nil {
		return ""
	}
	branch := repo.DefaultBranch
	if branch == "" {
		branch = "main"
	}
	if path == "" {
		return repo.Name + " / " + branch
	}
	return repo.Name + " / " + branch + " / " + path
}

func inputPlaceholder(kind github.OwnerKind) string {
	if kind == github.OwnerOrg {
		return "e.g., google, microsoft, TheOdinProject"
	}
	return "e.g., angular, facebook, torvalds"
}
