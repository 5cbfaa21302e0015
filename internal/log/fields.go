package log

import (
	"net/http"
	"time"
)

// Field names shared by every component's log lines.
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOperation     = "operation"
	FieldKind          = "kind"
	FieldEntityID      = "entity_id"
	FieldCountry       = "country"
	FieldInvalidFields = "invalid_fields"
)

const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentServices = "services"
	ComponentQuery    = "query"
	ComponentStorage  = "storage"
	ComponentWorker   = "worker"
	ComponentCache    = "cache"
	ComponentTrace    = "trace"
	ComponentBackend  = "backend"
)

// Operations name what a handler was doing when it logged.
const (
	OpCreate  = "create"
	OpRead    = "read"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpList    = "list"
	OpReorder = "reorder"
	OpRefresh = "refresh"
)

const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields accumulates attributes for a single log line.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	if ip != "" {
		f[FieldClientIP] = ip
	}
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(errorType string) LogFields {
	f[FieldErrorType] = errorType
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithEntity adds the kind, id and (when set) country of a mutated entity.
func (f LogFields) WithEntity(kind string, id int, country string) LogFields {
	f[FieldKind] = kind
	f[FieldEntityID] = id
	if country != "" {
		f[FieldCountry] = country
	}
	return f
}

// WithRequest adds the method and path of r, plus the query string and
// user agent when present.
func (f LogFields) WithRequest(r *http.Request) LogFields {
	f[FieldMethod] = r.Method
	f[FieldPath] = r.URL.Path
	if r.URL.RawQuery != "" {
		f[FieldQuery] = r.URL.RawQuery
	}
	if ua := r.UserAgent(); ua != "" {
		f[FieldUserAgent] = ua
	}
	return f
}

func (f LogFields) WithResponse(statusCode int, elapsed time.Duration) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = elapsed.Milliseconds()
	return f
}

// ToSlice flattens f into slog's alternating key/value form.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
