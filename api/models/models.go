// Package models tracks all api models for request and responses
package models

import (
	"github.com/aouyang1/memoryframe/preload"
	"github.com/aouyang1/memoryframe/sequencer"
	"github.com/aouyang1/memoryframe/store"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type SaveConfigResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

type DeleteTemplateResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

type TemplateListResponse struct {
	Templates []store.ConfigSummary `json:"templates"`
	Total     int                   `json:"total"`
}

type PreloadResponse struct {
	Config string         `json:"config"`
	Report preload.Report `json:"report"`
}

type AdvanceResponse struct {
	Released bool `json:"released"`
	Position int  `json:"position"`
	Done     bool `json:"done"`
}

type SessionResponse struct {
	ID     string `json:"id"`
	Config string `json:"config"`
	Steps  int    `json:"steps"`
	Gates  int    `json:"gates"`
}

// StepEvent tells the browser driver to play one timeline step. Effects fired
// between steps are sent with kind "effect" and no step.
type StepEvent struct {
	Index  int            `json:"index"`
	Kind   string         `json:"kind"`
	Step   sequencer.Step `json:"step,omitempty"`
	Offset float64        `json:"offset,omitempty"`
	Effect string         `json:"effect,omitempty"`
}

type DoneEvent struct {
	Completed bool   `json:"completed"`
	Error     string `json:"error,omitempty"`
}

// Upload proxy

type UploadResponse struct {
	Success bool   `json:"success"`
	Key     string `json:"key"`
	Size    int64  `json:"size"`
}

type SignUploadRequest struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
}

type SignUploadResponse struct {
	URL       string `json:"url"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
	Method    string `json:"method"`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Size    int64  `json:"size"`
}

type DeletePrefixResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Count     int      `json:"count"`
	TotalSize int64    `json:"totalSize"`
	Failed    []string `json:"failed"`
}

type ReconcileResponse struct {
	Prefix    string `json:"prefix"`
	Count     int    `json:"count"`
	TotalSize int64  `json:"totalSize"`
}

type CleanupRequest struct {
	Prefix string   `json:"prefix"`
	Keep   []string `json:"keep"`
}

type CleanupResponse struct {
	Deleted        int      `json:"deleted"`
	Kept           int      `json:"kept"`
	ReclaimedBytes int64    `json:"reclaimedBytes"`
	Failed         []string `json:"failed"`
}
