package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *BlogError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *BlogError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration could not be parsed").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *BlogError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Render errors

func RenderFailed(page string, cause error) *BlogError {
	return Wrap(cause, CategoryRender, SeverityError, "markdown render failed").
		WithContext("page", page)
}

func DiagramMarkerMissing(marker string) *BlogError {
	return New(CategoryValidation, SeverityError, "diagram block has no opening marker").
		WithContext("marker", marker)
}

// Filesystem errors

func WorkspaceError(operation string, cause error) *BlogError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "filesystem operation failed").
		WithContext("operation", operation)
}

// Git errors

func GitHistoryError(path string, cause error) *BlogError {
	return Wrap(cause, CategoryGit, SeverityWarning, "git history lookup failed").
		WithContext("path", path)
}

// Internal errors

func InternalError(message string, cause error) *BlogError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
