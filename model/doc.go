// Package model defines the minimal LLM abstraction gptbot generates replies
// with, plus a deterministic mock for tests and local development. Concrete
// provider adapters (OpenAI, Anthropic) live in sub-packages so the service
// only links the SDKs it is configured to use.
package model
