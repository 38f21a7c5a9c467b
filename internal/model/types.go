package model

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is one role-tagged message. Turns are never stored server-side.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Chunk struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type ChatRequest struct {
	Message string     `json:"message"`
	History []ChatTurn `json:"history,omitempty"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type UploadResult struct {
	Filename   string `json:"filename"`
	Pages      int    `json:"pages"`
	Characters int    `json:"characters"`
	Passages   int    `json:"passages,omitempty"`
}

// DocumentStatus never carries the text itself.
type DocumentStatus struct {
	Populated  bool `json:"populated"`
	Characters int  `json:"characters"`
}
