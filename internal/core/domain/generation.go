package domain

// Generation is the output of a single LLM call.
type Generation struct {
	// Text is the generated answer.
	Text string `json:"text" yaml:"text"`

	// Model is the model that served the request, as reported by the provider.
	Model string `json:"model" yaml:"model"`

	// InputTokens is the prompt token count.
	InputTokens int `json:"input_tokens" yaml:"input_tokens"`

	// OutputTokens is the completion token count.
	OutputTokens int `json:"output_tokens" yaml:"output_tokens"`
}

// Answer is a generated answer grounded on retrieved sources.
type Answer struct {
	Question   string         `json:"question" yaml:"question"`
	Generation Generation     `json:"generation" yaml:"generation"`
	Sources    []SearchResult `json:"sources" yaml:"sources"`
}
