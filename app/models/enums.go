package models

// MilestoneStatus is the payment-derived status of a milestone. It is never
// stored; it is recomputed from paid amount and total with tax after every
// read.
type MilestoneStatus string

const (
	MilestoneUnpaid        MilestoneStatus = "UNPAID"
	MilestonePartiallyPaid MilestoneStatus = "PARTIALLY_PAID"
	MilestonePaid          MilestoneStatus = "PAID"
)

// TaskStatus defines the progress state of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
)

// ValidTaskStatus reports whether s is one of the known task states.
func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

// PaymentType distinguishes a payment applied to one milestone from one
// split across several.
type PaymentType string

const (
	PaymentSingle      PaymentType = "SINGLE"
	PaymentDistributed PaymentType = "DISTRIBUTED"
)

// PaymentMethod defines the accepted payment channels.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodBizum        PaymentMethod = "BIZUM"
	MethodPaypal       PaymentMethod = "PAYPAL"
)

// ValidPaymentMethod reports whether m is one of the accepted channels.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodBizum, MethodPaypal:
		return true
	}
	return false
}
