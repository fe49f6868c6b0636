package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldUserID    = "user_id"
	FieldChatID    = "chat_id"
	FieldAction    = "action"
	FieldDecision  = "decision"
	FieldTxID      = "transaction_id"
	FieldTxType    = "type"
	FieldAmount    = "amount_cents"
	FieldCategory  = "category"
	FieldCount     = "count"
	FieldModel     = "model"
	FieldOperation = "operation"
	FieldError     = "error"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentBot      = "bot"
	ComponentClassify = "classify"
	ComponentOracle   = "oracle"
	ComponentAuth     = "auth"
	ComponentDispatch = "dispatch"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpClassify = "classify"
	OpExport   = "export"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
