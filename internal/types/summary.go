package types

import "time"

// Stage is a step of a seed run. Stages are visited strictly in order.
type Stage string

const (
	StageValidate       Stage = "validate"
	StageClear          Stage = "clear"
	StageCategories     Stage = "seed-categories"
	StageCustomizations Stage = "seed-customizations"
	StageMenu           Stage = "seed-menu"
	StageDone           Stage = "done"
)

// RunStatus is the outcome of a seed run
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// SeedSummary reports what a seed run did. A failed run still carries the
// stage it reached and whatever it created before aborting.
type SeedSummary struct {
	RunID          string        `json:"run_id"`
	Status         RunStatus     `json:"status"`
	Stage          Stage         `json:"stage"`
	Error          string        `json:"error,omitempty"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
	Elapsed        time.Duration `json:"elapsed_ns"`
	Cleared        int           `json:"cleared"`
	Categories     int           `json:"categories"`
	Customizations int           `json:"customizations"`
	MenuItems      int           `json:"menu_items"`
	Links          int           `json:"links"`
	SkippedLinks   int           `json:"skipped_links"`
	FailedItems    []string      `json:"failed_items,omitempty"`
	ImagesMirrored int           `json:"images_mirrored"`
	ImageFallbacks int           `json:"image_fallbacks"`
}
