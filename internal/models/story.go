package models

type StoryContent struct {
	Summary       string `json:"summary"`
	DetailedStory string `json:"detailedStory"`
}

// StoryInput is what the story prompt is built from.
type StoryInput struct {
	UseCaseName        string          `json:"useCaseName"`
	UseCaseCategory    Category        `json:"useCaseCategory"`
	ProblemStatement   string          `json:"problemStatement"`
	DatabricksSolution string          `json:"databricksSolution"`
	Impact             string          `json:"impact"`
	CustomerInfo       CustomerProfile `json:"customerInfo"`
}

func (s StoryInput) Key() UseCaseKey {
	return NewUseCaseKey(s.UseCaseName, s.UseCaseCategory)
}

type StoryResult struct {
	UseCaseKey   UseCaseKey   `json:"useCaseKey"`
	StoryContent StoryContent `json:"storyContent"`
}

// ExportRecord is one row of the document-generation batch.
type ExportRecord struct {
	CustomerName   string `json:"customerName"`
	Description    string `json:"description"`
	DatabricksRole string `json:"databricksRole"`
	Challenge      string `json:"challenge"`
	Solution       string `json:"solution"`
	IS1            string `json:"is1"`
	IS2            string `json:"is2"`
	Notes          string `json:"notes"`
	Story          string `json:"story"`
	Sources        string `json:"sources"`
}

type ExportResult struct {
	Success       bool   `json:"success"`
	TotalExported int    `json:"totalExported"`
	URL           string `json:"url"`
}
