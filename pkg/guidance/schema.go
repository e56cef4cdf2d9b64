package guidance

// Catalog maps a stage and an error code to operator guidance.
type Catalog struct {
	Version     string                      `json:"version"`
	LastUpdated string                      `json:"lastUpdated"`
	Stages      map[string]map[string]Entry `json:"stages"`
}

type Entry struct {
	UserMessage       string   `json:"userMessage"`
	WhyRetry          string   `json:"whyRetry"`
	RetryScheduleText string   `json:"retryScheduleText"`
	Tips              []string `json:"tips"`
}
