package registry

import "errors"

var (
	// ErrUnknownClient is returned by identity lookups when an api-key or
	// client id does not resolve to any client row. Feature-flag lookups
	// never return it; they default to "off" instead.
	ErrUnknownClient = errors.New("no client with this api-key")

	// ErrUpdateFailed is returned when a field update affected zero rows.
	ErrUpdateFailed = errors.New("client update affected no rows")

	// ErrDeleteFailed is returned when the client row to delete does not exist.
	ErrDeleteFailed = errors.New("client delete affected no rows")

	// ErrUnknownField is returned when a field name is not in the column
	// allow-list. Field names are never interpolated into SQL.
	ErrUnknownField = errors.New("unknown client field")

	// ErrDuplicatePermission is returned when a (pattern, verb) pair already
	// exists for the client.
	ErrDuplicatePermission = errors.New("permission already exists for client")

	// ErrMalformedPermissionPayload is returned when a permission payload is
	// neither a structured list nor valid JSON text describing one.
	ErrMalformedPermissionPayload = errors.New("malformed permission payload")
)
