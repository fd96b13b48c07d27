package openai

// DefaultModel is used for extraction, comparison and classification.
const DefaultModel = "gpt-4.1"

// ExtractionFallback is returned when a response carries no output text
const ExtractionFallback = "Nepodarilo sa extrahovať informácie z dokumentu."

type responsesRequest struct {
	Model string         `json:"model"`
	Tools []responseTool `json:"tools"`
	Input string         `json:"input"`
}

type responseTool struct {
	Type           string   `json:"type"`
	VectorStoreIDs []string `json:"vector_store_ids,omitempty"`
}

type responsesResponse struct {
	ID         string         `json:"id"`
	Output     []responseItem `json:"output"`
	OutputText string         `json:"output_text,omitempty"`
	Usage      *usage         `json:"usage,omitempty"`
}

type responseItem struct {
	Type    string            `json:"type"`
	Content []responseContent `json:"content,omitempty"`
}

type responseContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type usage struct {
	InputTokens      int `json:"input_tokens,omitempty"`
	OutputTokens     int `json:"output_tokens,omitempty"`
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Tools       []chatTool    `json:"tools,omitempty"`
}

type chatMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []chatToolCall `json:"tool_calls,omitempty"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *usage `json:"usage,omitempty"`
}

type fileObject struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"`
}

type vectorStoreRequest struct {
	Name string `json:"name"`
}

type vectorStoreObject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type vectorStoreFileRequest struct {
	FileID string `json:"file_id"`
}

type vectorStoreFileObject struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
