package project

// Action is a user-facing operation that may be offered on a project card.
type Action string

const (
	ActionUpload            Action = "upload"
	ActionGenerate          Action = "generate"
	ActionRetryGenerate     Action = "retry-generate"
	ActionDownloadTeaser    Action = "download-teaser"
	ActionDownloadCitations Action = "download-citations"
)

// ActionsFor returns the legal action set for a project. It is a pure
// function of the status and the number of attached files:
//
//	pending, no files    -> upload
//	pending, >=1 file    -> upload, generate
//	processing           -> (none)
//	completed            -> download-teaser, download-citations
//	failed               -> retry-generate
func ActionsFor(status Status, fileCount int) []Action {
	switch status {
	case StatusPending:
		if fileCount == 0 {
			return []Action{ActionUpload}
		}
		return []Action{ActionUpload, ActionGenerate}
	case StatusProcessing:
		return nil
	case StatusCompleted:
		return []Action{ActionDownloadTeaser, ActionDownloadCitations}
	case StatusFailed:
		return []Action{ActionRetryGenerate}
	}
	return nil
}

// Actions returns the legal action set for p.
func (p *Project) Actions() []Action {
	return ActionsFor(p.Status, len(p.Files))
}

// Allows reports whether a is currently legal on p. Generate and
// retry-generate are treated as the same user intent.
func (p *Project) Allows(a Action) bool {
	for _, got := range p.Actions() {
		if got == a {
			return true
		}
		if a == ActionGenerate && got == ActionRetryGenerate {
			return true
		}
	}
	return false
}
