package usecase

const (
	defaultPageLimit = 25
	maxPageLimit     = 100
	maxPageOffset    = 100
)

// NormalizePage clamps a requested page into a safe bounded range. Limit
// lands in [0, 100] with a default of 25 when absent; offset lands in
// [0, 100] with a default of 0. Out-of-range inputs are clamped, never
// rejected.
func NormalizePage(limit, offset *int) (int, int) {
	l := defaultPageLimit
	if limit != nil {
		l = *limit
	}
	if l < 0 {
		l = 0
	}
	if l > maxPageLimit {
		l = maxPageLimit
	}

	o := 0
	if offset != nil {
		o = *offset
	}
	if o < 0 {
		o = 0
	}
	if o > maxPageOffset {
		o = maxPageOffset
	}

	return l, o
}
