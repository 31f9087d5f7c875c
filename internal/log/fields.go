package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldTurnID     = "turn_id"
	FieldChatID     = "chat_id"
	FieldCommand    = "command"
	FieldStage      = "stage"
	FieldDuration   = "duration_ms"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldBackend    = "backend"
	FieldTitle      = "title"
	FieldAmount     = "amount"
	FieldCategory   = "category"
	FieldRecordRef  = "record_ref"
	FieldEventID    = "event_id"
	FieldRangeStart = "range_start"
	FieldRangeEnd   = "range_end"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentBot       = "bot"
	ComponentRouter    = "router"
	ComponentWizard    = "wizard"
	ComponentExpense   = "expense"
	ComponentSummary   = "summary"
	ComponentNotion    = "notion"
	ComponentSheets    = "sheets"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentHTTP      = "http"
	ComponentWorker    = "worker"
)

// Operations name the remote store calls and lifecycle steps.
const (
	OpCreateRecord   = "create_record"
	OpListCategories = "list_category_options"
	OpQueryRange     = "query_by_date_range"
	OpPublish        = "publish"
	OpShutdown       = "shutdown"
	OpStartup        = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithTurn(turnID string, chatID int64) LogFields {
	f[FieldTurnID] = turnID
	f[FieldChatID] = chatID
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithExpense adds the fields of a submitted record.
func (f LogFields) WithExpense(title string, amount int64, category string) LogFields {
	f[FieldTitle] = title
	f[FieldAmount] = amount
	f[FieldCategory] = category
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
