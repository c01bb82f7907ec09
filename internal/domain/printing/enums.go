package printing

// Kind names a printable document type.
type Kind string

const (
	KindChalan           Kind = "chalan"
	KindInvoice          Kind = "invoice"
	KindHostelReceipt    Kind = "hostel-receipt"
	KindTransportReceipt Kind = "transport-receipt"
	KindOrderReceipt     Kind = "order-receipt"
)

// IsValid checks if the Kind is a valid value
func (k Kind) IsValid() bool {
	switch k {
	case KindChalan, KindInvoice, KindHostelReceipt, KindTransportReceipt, KindOrderReceipt:
		return true
	}
	return false
}

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// Title returns the heading printed on the document.
func (k Kind) Title() string {
	switch k {
	case KindChalan:
		return "Fee Chalan"
	case KindInvoice:
		return "Invoice"
	case KindHostelReceipt:
		return "Hostel Fee Receipt"
	case KindTransportReceipt:
		return "Transport Fee Receipt"
	case KindOrderReceipt:
		return "Cafeteria Receipt"
	default:
		return string(k)
	}
}

// AllKinds returns all valid Kind values
func AllKinds() []Kind {
	return []Kind{KindChalan, KindInvoice, KindHostelReceipt, KindTransportReceipt, KindOrderReceipt}
}

// Format is an output format of a rendered document.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// IsValid checks if the Format is a valid value
func (f Format) IsValid() bool {
	return f == FormatHTML || f == FormatPDF
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

// PaperSize represents the paper size for printing
type PaperSize string

const (
	PaperSizeA4 PaperSize = "A4" // 210mm x 297mm
	PaperSizeA5 PaperSize = "A5" // 148mm x 210mm
)

// IsValid checks if the PaperSize is a valid value
func (p PaperSize) IsValid() bool {
	return p == PaperSizeA4 || p == PaperSizeA5
}

// Dimensions returns the paper dimensions in millimeters (width, height)
func (p PaperSize) Dimensions() (width, height int) {
	if p == PaperSizeA5 {
		return 148, 210
	}
	return 210, 297
}

// JobStatus is the state of a bulk generation job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	// JobStatusPartial is a finished run with at least one failed item
	JobStatusPartial JobStatus = "partial"
)

// IsTerminal returns true if this is a terminal status (no further transitions)
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusPartial
}

// CanTransitionTo checks if the status can transition to the target status
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	switch s {
	case JobStatusPending:
		return target == JobStatusRunning
	case JobStatusRunning:
		return target == JobStatusCompleted || target == JobStatusPartial
	}
	return false
}
