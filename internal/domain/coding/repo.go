package coding

import "context"

// CatalogRepository persists the diagnosis and procedure reference tables.
type CatalogRepository interface {
	ListDiagnoses(ctx context.Context) ([]DiagnosisCodeEntry, error)
	ListProcedures(ctx context.Context) ([]ProcedureCodeEntry, error)
	UpsertDiagnoses(ctx context.Context, entries []DiagnosisCodeEntry) (int, error)
	UpsertProcedures(ctx context.Context, entries []ProcedureCodeEntry) (int, error)
}
