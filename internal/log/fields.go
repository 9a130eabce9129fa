package log

import (
	"sort"

	"budgetplanner/internal/core"
)

// Field names shared by every component.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldMonthKey   = "month"
	FieldVersion    = "version"
	FieldTxType     = "tx_type"
	FieldPresetID   = "preset_id"
	FieldCount      = "count"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAuth      = "auth"
	ComponentPlanner   = "planner"
	ComponentRecurring = "recurring"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
)

const (
	OpLogin       = "login"
	OpLogout      = "logout"
	OpLoad        = "load"
	OpSave        = "save"
	OpMutate      = "mutate"
	OpReport      = "report"
	OpMaterialize = "materialize"
	OpExport      = "export"
	OpStartup     = "startup"
	OpShutdown    = "shutdown"
)

const (
	ErrorTypeValidation = "validation_error"
	ErrorTypeNotFound   = "not_found_error"
	ErrorTypeAuth       = "auth_error"
	ErrorTypeConflict   = "conflict_error"
	ErrorTypeInternal   = "internal_error"
)

// LogFields collects attributes for a single log call.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(kind string) LogFields {
	f[FieldErrorType] = kind
	return f
}

// WithUserMonth adds the user and, when set, the month being worked on.
func (f LogFields) WithUserMonth(userID string, key core.MonthKey) LogFields {
	f[FieldUserID] = userID
	if key != "" {
		f[FieldMonthKey] = string(key)
	}
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields into slog key/value pairs, ordered by key.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(f)*2)
	for _, k := range keys {
		out = append(out, k, f[k])
	}
	return out
}
