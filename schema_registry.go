package dynform

// SchemaProvider supplies the single form schema served to clients and used
// by the submission gate.
type SchemaProvider interface {
	Schema() *Schema
}
