// Package llm provides the JSON chat-completion client behind the correction
// oracle.
//
// The client speaks the OpenRouter/OpenAI chat completions schema and always
// requests a JSON object. Responses are tolerated in the shapes providers
// actually return: message content, streaming deltas, legacy text, function
// calls and tool calls. DecodeJSON strips code fences and surrounding prose
// before unmarshalling.
//
// Requests are retried on HTTP 408/429/5xx, empty content and network
// timeouts with exponential backoff (base 1s, max 10s, 3 attempts by
// default). Retry-After is honoured. Context cancellation aborts immediately.
package llm
