package repository

// Order is the date ordering of fetched records.
type Order string

const (
	OrderDesc Order = "desc"
	OrderAsc  Order = "asc"
)

// IsValidOrder returns true if o is a supported ordering.
func IsValidOrder(o Order) bool {
	switch o {
	case OrderAsc, OrderDesc:
		return true
	default:
		return false
	}
}

// NormalizeOrder maps an unset or unknown ordering to descending.
func NormalizeOrder(o Order) Order {
	if IsValidOrder(o) {
		return o
	}
	return OrderDesc
}

// SQL returns the ORDER BY direction keyword.
func (o Order) SQL() string {
	if o == OrderAsc {
		return "ASC"
	}
	return "DESC"
}
