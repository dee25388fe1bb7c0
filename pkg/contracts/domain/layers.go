package domain

// ConformedLayer is the complete cleaned intermediate representation of
// one batch run. It is owned by the run that produced it and replaced
// wholesale by the next run.
type ConformedLayer struct {
	Customers    []ConformedCustomer    `json:"customers"`
	Products     []ConformedProduct     `json:"products"`
	Sales        []ConformedSale        `json:"sales"`
	Demographics []CustomerDemographics `json:"demographics"`
	Locations    []CustomerLocation     `json:"locations"`
	Categories   []ProductCategory      `json:"categories"`
}

// DimensionalLayer is the assembled star-schema presentation layer of
// one batch run.
type DimensionalLayer struct {
	Customers []CustomerDimRow `json:"customers"`
	Products  []ProductDimRow  `json:"products"`
	Sales     []SalesFactRow   `json:"sales"`
}

// RowCounts returns rows per warehouse target.
func (d DimensionalLayer) RowCounts() map[string]int {
	return map[string]int{
		TargetCustomerDim: len(d.Customers),
		TargetProductDim:  len(d.Products),
		TargetSalesFact:   len(d.Sales),
	}
}
