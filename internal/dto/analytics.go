package dto

// TrendBlock carries signed trend strings comparing the current window
// against the previous one. Sessions is a percentage ("+12%"), AvgStars an
// absolute delta ("+0.3").
type TrendBlock struct {
	Sessions string `json:"sessions"`
	AvgStars string `json:"avgStars"`
}

// LessonStruggle is one recurring error text within a lesson.
type LessonStruggle struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// LessonStats is a per-lesson rollup inside a level block.
type LessonStats struct {
	MissionID     string           `json:"missionId"`
	Title         string           `json:"title"`
	Completions   int              `json:"completions"`
	AvgStars      float64          `json:"avgStars"`
	Warning       bool             `json:"warning"`
	StruggleCount int              `json:"struggleCount"`
	TopStruggles  []LessonStruggle `json:"topStruggles"`
}

// StudentStats is a per-student rollup inside a level block.
type StudentStats struct {
	UserID               string  `json:"userId"`
	DisplayName          string  `json:"displayName"`
	LastActive           *string `json:"lastActive"`
	ActivityStatus       string  `json:"activityStatus"`
	SessionCount         int     `json:"sessionCount"`
	AvgStars             float64 `json:"avgStars"`
	AdvancementCandidate bool    `json:"advancementCandidate"`
	LevelMismatch        bool    `json:"levelMismatch"`
}

// StruggleStats is one ranked error text with its bucketed severity.
type StruggleStats struct {
	Text     string `json:"text"`
	Type     string `json:"type"`
	Count    int    `json:"count"`
	Severity string `json:"severity"`
}

// LevelBlock aggregates one proficiency level.
type LevelBlock struct {
	StudentCount         int             `json:"studentCount"`
	SessionCount         int             `json:"sessionCount"`
	AvgStars             float64         `json:"avgStars"`
	TotalPracticeMinutes int             `json:"totalPracticeMinutes"`
	WordsMastered        int             `json:"wordsMastered"`
	Trends               TrendBlock      `json:"trends"`
	Lessons              []LessonStats   `json:"lessons"`
	Students             []StudentStats  `json:"students"`
	TopStruggles         []StruggleStats `json:"topStruggles"`
}

// Totals rolls all level blocks up. AvgStars is an average of per-level
// averages, not session-weighted.
type Totals struct {
	StudentCount         int     `json:"studentCount"`
	SessionCount         int     `json:"sessionCount"`
	AvgStars             float64 `json:"avgStars"`
	TotalPracticeMinutes int     `json:"totalPracticeMinutes"`
	WordsMastered        int     `json:"wordsMastered"`
}

// AdvancementCandidate surfaces a student ready to move up a level.
type AdvancementCandidate struct {
	UserID       string  `json:"userId"`
	DisplayName  string  `json:"displayName"`
	CurrentLevel string  `json:"currentLevel"`
	SessionCount int     `json:"sessionCount"`
	AvgStars     float64 `json:"avgStars"`
}

// LevelMismatch flags a student whose error pattern suggests a wrong level.
type LevelMismatch struct {
	UserID       string `json:"userId"`
	DisplayName  string `json:"displayName"`
	CurrentLevel string `json:"currentLevel"`
	Evidence     string `json:"evidence"`
}

// UniversalStruggle is an error text recurring across 2+ levels.
type UniversalStruggle struct {
	Text           string   `json:"text"`
	AffectedLevels []string `json:"affectedLevels"`
	TotalCount     int      `json:"totalCount"`
}

// CrossLevelInsights gathers patterns spanning level buckets.
type CrossLevelInsights struct {
	AdvancementCandidates []AdvancementCandidate `json:"advancementCandidates"`
	LevelMismatches       []LevelMismatch        `json:"levelMismatches"`
	UniversalStruggles    []UniversalStruggle    `json:"universalStruggles"`
}

// CostSummary aggregates AI usage spend across the class.
type CostSummary struct {
	TotalCost      float64 `json:"totalCost"`
	InputTokens    int64   `json:"inputTokens"`
	OutputTokens   int64   `json:"outputTokens"`
	CostPerStudent float64 `json:"costPerStudent"`
	DailyCost      float64 `json:"dailyCost"`
	MonthlyCost    float64 `json:"monthlyCost"`
}

// StudentCost is the per-student usage spend breakdown.
type StudentCost struct {
	UserID            string  `json:"userId"`
	DisplayName       string  `json:"displayName"`
	TotalCost         float64 `json:"totalCost"`
	SessionCount      int     `json:"sessionCount"`
	AvgCostPerSession float64 `json:"avgCostPerSession"`
	InputTokens       int64   `json:"inputTokens"`
	OutputTokens      int64   `json:"outputTokens"`
}

// AnalyticsResponse is the full teacher analytics payload.
type AnalyticsResponse struct {
	Period             string                `json:"period"`
	GeneratedAt        string                `json:"generatedAt"`
	ByLevel            map[string]LevelBlock `json:"byLevel"`
	Totals             Totals                `json:"totals"`
	CrossLevelInsights CrossLevelInsights    `json:"crossLevelInsights"`
	Costs              CostSummary           `json:"costs"`
	StudentCosts       []StudentCost         `json:"studentCosts"`
}
