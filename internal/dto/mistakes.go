package dto

// Mistake is one student error surfaced on the Insights tab.
type Mistake struct {
	ID           string `json:"id"`
	StudentID    string `json:"studentId"`
	StudentName  string `json:"studentName"`
	ErrorType    string `json:"errorType"`
	UserSentence string `json:"userSentence"`
	Correction   string `json:"correction"`
	Explanation  string `json:"explanation"`
	AudioURL     string `json:"audioUrl,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

// MistakesSummary counts mistakes by error type. Key casing matches the
// stored errorType values.
type MistakesSummary struct {
	Grammar       int `json:"Grammar"`
	Pronunciation int `json:"Pronunciation"`
	Vocabulary    int `json:"Vocabulary"`
	Cultural      int `json:"Cultural"`
}

// MistakesResponse is the class mistakes payload.
type MistakesResponse struct {
	Period   string          `json:"period"`
	Total    int             `json:"total"`
	Summary  MistakesSummary `json:"summary"`
	Mistakes []Mistake       `json:"mistakes"`
}
