package logging

// Standardized attribute keys shared across components so log output stays
// greppable.
const (
	FieldComponent = "component"

	FieldItemID = "item_id"

	FieldStage = "stage"

	FieldEventType = "event_type"

	FieldContentKey = "content_key"

	FieldSourceFile = "source_file"

	FieldStagingFile = "staging_file"

	FieldErrorKind = "error_kind"

	FieldErrorHint = "error_hint"
)
