package enums

import "fmt"

// OperationType maps to the op_type column of shipment_events.
type OperationType string

const (
	OperationTypeReceipt      OperationType = "receipt"
	OperationTypeCancellation OperationType = "cancellation"
)

var validOperationTypes = []OperationType{
	OperationTypeReceipt,
	OperationTypeCancellation,
}

// String implements fmt.Stringer.
func (t OperationType) String() string {
	return string(t)
}

// IsValid reports whether the value matches a known ledger operation.
func (t OperationType) IsValid() bool {
	for _, candidate := range validOperationTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOperationType converts raw input into OperationType.
func ParseOperationType(value string) (OperationType, error) {
	for _, candidate := range validOperationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid operation type %q", value)
}
