package log

// Common field names for structured logging.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldUserID      = "user_id"
	FieldCurrency    = "currency"
	FieldBaseCode    = "base_currency"
	FieldAmount      = "amount"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldCategoryID  = "category_id"
	FieldAccountID   = "account_id"
	FieldBudgetID    = "budget_id"
	FieldGoalID      = "goal_id"
	FieldRecurringID = "recurring_id"
	FieldAnomalies   = "anomalies"
	FieldPercentage  = "percentage"
)

// Components defines standard component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentFinance   = "finance"
	ComponentStorage   = "storage"
	ComponentRates     = "rates"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentExport    = "export"
	ComponentRecurring = "recurring"
	ComponentCache     = "cache"
)

// Operations defines standard operation names.
const (
	OpCreate      = "create"
	OpRead        = "read"
	OpUpdate      = "update"
	OpDelete      = "delete"
	OpList        = "list"
	OpConvert     = "convert"
	OpEvaluate    = "evaluate"
	OpMaterialize = "materialize"
	OpRefresh     = "refresh"
	OpExport      = "export"
	OpStartup     = "startup"
	OpShutdown    = "shutdown"
)
