package config

type WorkerKeyStruct struct {
	PersistAssignmentAuditQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAssignmentAuditQueue: "persist_assignment_audit_queue",
}
