package models

// ActionType is a category of player activity tracked for progress.
type ActionType string

const (
	ActionScan     ActionType = "scan"
	ActionSave     ActionType = "save"
	ActionPost     ActionType = "post"
	ActionViewFact ActionType = "view_fact"
)

// RockCategory is the fixed taxonomy classification results are normalized into.
// CategoryUnknown is surfaced explicitly instead of silently defaulting.
type RockCategory string

const (
	CategoryIgneous     RockCategory = "igneous"
	CategorySedimentary RockCategory = "sedimentary"
	CategoryMetamorphic RockCategory = "metamorphic"
	CategoryUnknown     RockCategory = "unknown"
)
