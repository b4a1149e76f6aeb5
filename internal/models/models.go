// Package models defines the core data structures for finchat.
//
// It includes conversation turns, skill identifiers, and the JSON envelope
// shared by the HTTP API handlers.
package models

// Role tags who produced a conversation turn.
type Role string

const (
	// RoleUser marks a turn written by the chat participant.
	RoleUser Role = "user"
	// RoleAssistant marks a turn produced by a skill or the chat backend.
	RoleAssistant Role = "assistant"
	// RoleSystem marks priming instructions for the chat backend.
	RoleSystem Role = "system"
)

// Turn is one immutable entry in a conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SkillID names the handler selected for an inbound message.
type SkillID string

const (
	// SkillLottery answers Taiwan lottery draw queries.
	SkillLottery SkillID = "lottery"
	// SkillStock answers stock and market-index analysis queries.
	SkillStock SkillID = "stock"
	// SkillGold answers gold price queries.
	SkillGold SkillID = "gold"
	// SkillPlatinum answers platinum price queries.
	SkillPlatinum SkillID = "platinum"
	// SkillCurrency answers foreign-exchange rate queries.
	SkillCurrency SkillID = "currency"
	// SkillJobSearch answers full-time 104 job searches.
	SkillJobSearch SkillID = "job_search"
	// SkillParttimeJob answers part-time 104 job searches.
	SkillParttimeJob SkillID = "parttime_job"
	// SkillCrypto answers cryptocurrency spot price queries.
	SkillCrypto SkillID = "crypto"
	// SkillCompanion answers via the companion persona.
	SkillCompanion SkillID = "companion"
	// SkillLLMChat is the default skill: chat completion over recent history.
	SkillLLMChat SkillID = "llm_chat"
)

// API response status values.
const (
	APIStatusOK    = "ok"
	APIStatusError = "error"
)

// APIResponse is the uniform JSON envelope returned by HTTP handlers.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a success response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: APIStatusOK, Result: result}
}

// SuccessWithMessage creates a success response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: APIStatusOK, Message: message, Result: result}
}

// Error creates an error response with the given message.
func Error(message string) APIResponse {
	return APIResponse{Status: APIStatusError, Message: message}
}
