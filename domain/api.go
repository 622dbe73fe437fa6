package domain

// Request and response bodies of the HTTP API, shared by the server and the
// bot's API client.

type IngestRequest struct {
	URL       string `json:"url"`
	PersonaID string `json:"personaId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	GuildID   string `json:"guildId,omitempty"`
	ChannelID string `json:"channelId,omitempty"`
}

type IngestResponse struct {
	Summary      string      `json:"summary"`
	Persona      PersonaInfo `json:"persona"`
	ArticleTitle string      `json:"articleTitle"`
	ArticleURL   string      `json:"articleUrl"`
}

type DebateRequest struct {
	PersonaID           string        `json:"personaId"`
	UserMessage         string        `json:"userMessage"`
	ConversationHistory []ChatMessage `json:"conversationHistory"`
}

type DebateResponse struct {
	Response    string      `json:"response"`
	Persona     PersonaInfo `json:"persona"`
	ContextUsed int         `json:"contextUsed"`
}

type ArticleDebateRequest struct {
	URL             string `json:"url"`
	OriginalSummary string `json:"originalSummary,omitempty"`
}

type ArticleDebateResponse struct {
	URL             string `json:"url"`
	OriginalStance  string `json:"originalStance"`
	CounterArgument string `json:"counterArgument"`
	DebateSummary   string `json:"debateSummary"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
