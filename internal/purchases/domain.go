package purchases

// Purchase is a restocking order with its lines.
type Purchase struct {
	ID          int64
	Description *string
	// Total is always Σ units × unit price of the lines.
	Total float64
	Lines []Line
}

// Line is one product bought in a purchase. ImagePath is only filled on reads.
type Line struct {
	ID         int64
	PurchaseID int64
	ProductID  int64
	Units      int
	UnitPrice  float64
	ImagePath  *string
}

// ImagePath returns the image of the first line's product, the picture the
// purchase list shows.
func (p *Purchase) ImagePath() *string {
	if len(p.Lines) == 0 {
		return nil
	}
	return p.Lines[0].ImagePath
}
