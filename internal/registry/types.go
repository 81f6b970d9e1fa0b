package registry

// Ref is a bare object reference as embedded in registry records.
type Ref struct {
	ID string `json:"id"`
}

// NamedObject is the common shape of registry metadata records. Pointer
// fields distinguish an absent key from an empty value, which matters
// for validation.
type NamedObject struct {
	ID          string  `json:"id"`
	DisplayName *string `json:"displayName"`
	Href        string  `json:"href"`

	// Collection is the registry collection the object belongs to,
	// derived from Href. Only populated by IdentifiableObject.
	Collection string `json:"-"`
}

// Indicator is the registry record for one indicator. Every field except
// the id is optional in practice; missing fields become findings rather
// than errors.
type Indicator struct {
	ID                     string  `json:"id"`
	DisplayName            *string `json:"displayName"`
	NumeratorDescription   *string `json:"numeratorDescription"`
	DenominatorDescription *string `json:"denominatorDescription"`
	Numerator              *string `json:"numerator"`
	Denominator            *string `json:"denominator"`
	IndicatorType          *Ref    `json:"indicatorType"`
}

// Group describes one indicator (or data element) group: its display
// name, the collection its members live in, and the member ids in the
// group's declared order.
type Group struct {
	ID          string
	DisplayName string
	ElementType string
	MemberIDs   []string
}

// GroupRef is one entry from the indicator group listing.
type GroupRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}
