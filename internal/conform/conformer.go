package conform

import (
	"log/slog"
	"strings"
	"time"

	"dwcli/pkg/contracts/domain"
)

// Stats counts what a conformance pass did with its input. Dropped
// records are tolerated faults (null business keys, unusable rows); they
// are logged and counted, never silently discarded.
type Stats struct {
	Input   int `json:"input"`
	Dropped int `json:"dropped"`
	Output  int `json:"output"`
}

// Conformer builds typed conformed records from raw extracts.
type Conformer struct {
	logger *slog.Logger
	vocabs *VocabularySet
	now    func() time.Time
}

// NewConformer creates a conformer using the given vocabularies.
func NewConformer(logger *slog.Logger, vocabs *VocabularySet) *Conformer {
	if logger == nil {
		logger = slog.Default()
	}
	if vocabs == nil {
		vocabs = DefaultVocabularies()
	}
	return &Conformer{logger: logger, vocabs: vocabs, now: time.Now}
}

// Customers conforms the CRM customer master: latest record per customer
// id, trimmed names, normalized marital status and gender.
func (c *Conformer) Customers(records []domain.RawRecord) ([]domain.ConformedCustomer, Stats) {
	stats := Stats{Input: len(records)}

	latest, dropped := SelectLatest(records,
		func(r domain.RawRecord) string { return strings.TrimSpace(r.String("customer_id")) },
		func(r domain.RawRecord) time.Time {
			if t, ok := parseDate(strings.TrimSpace(r.String("create_date"))); ok {
				return t
			}
			return time.Time{}
		},
	)
	stats.Dropped = dropped
	if dropped > 0 {
		c.logger.Warn("dropped customer records with null business key",
			slog.Int("count", dropped))
	}

	out := make([]domain.ConformedCustomer, 0, len(latest))
	for _, r := range latest {
		createDate, _ := parseDate(strings.TrimSpace(r.String("create_date")))
		out = append(out, domain.ConformedCustomer{
			CustomerID:    strings.TrimSpace(r.String("customer_id")),
			FirstName:     strings.TrimSpace(r.String("first_name")),
			LastName:      strings.TrimSpace(r.String("last_name")),
			MaritalStatus: c.vocabs.MaritalStatus.Normalize(r.String("marital_status")),
			Gender:        c.vocabs.Gender.Normalize(r.String("gender")),
			CreateDate:    createDate,
		})
	}
	stats.Output = len(out)
	return out, stats
}

// Products conforms the CRM product master. The composite source key is
// split: its first five characters (dashes folded to underscores) name
// the ERP category, the remainder is the product number that sales lines
// join on. Versioning is preserved; validity ranges are derived
// afterwards by DeriveValidityRanges.
func (c *Conformer) Products(records []domain.RawRecord) ([]domain.ConformedProduct, Stats) {
	stats := Stats{Input: len(records)}

	out := make([]domain.ConformedProduct, 0, len(records))
	for _, r := range records {
		rawKey := strings.TrimSpace(r.String("product_key"))
		if rawKey == "" {
			stats.Dropped++
			c.logger.Warn("dropped product record with null business key",
				slog.Int("seq", r.Seq))
			continue
		}

		categoryID, productNumber := SplitProductKey(rawKey)
		productID, _ := r.Int("product_id")
		cost, ok := r.Float("cost")
		if !ok {
			cost = 0 // missing cost is repaired to zero, flagged by quality rules
		}
		start, _ := parseDate(strings.TrimSpace(r.String("start_date")))

		out = append(out, domain.ConformedProduct{
			ProductID:     productID,
			ProductNumber: productNumber,
			CategoryID:    categoryID,
			Name:          strings.TrimSpace(r.String("product_name")),
			Cost:          cost,
			Line:          c.vocabs.ProductLine.Normalize(r.String("product_line")),
			Validity:      domain.ValidityRange{Start: start},
		})
	}
	stats.Output = len(out)
	return DeriveValidityRanges(out), stats
}

// SplitProductKey derives the category id and the sales join key from a
// composite CRM product key such as "CO-RF-FR-R92B-58": category "CO_RF",
// product number "FR-R92B-58". Keys too short to carry a category prefix
// are used whole as the product number.
func SplitProductKey(rawKey string) (categoryID, productNumber string) {
	if len(rawKey) < 7 {
		return domain.NotAvailable, rawKey
	}
	categoryID = strings.ReplaceAll(rawKey[:5], "-", "_")
	productNumber = rawKey[6:]
	return categoryID, productNumber
}

// Sales conforms the transactional sales lines: integer dates decoded,
// dependent numeric fields reconciled. Lines without an order number
// cannot be identified downstream and are dropped and counted.
func (c *Conformer) Sales(records []domain.RawRecord) ([]domain.ConformedSale, Stats) {
	stats := Stats{Input: len(records)}

	out := make([]domain.ConformedSale, 0, len(records))
	for _, r := range records {
		orderNumber := strings.TrimSpace(r.String("order_number"))
		if orderNumber == "" {
			stats.Dropped++
			c.logger.Warn("dropped sales line without order number",
				slog.Int("seq", r.Seq))
			continue
		}

		quantity, _ := r.Int("quantity")
		var unitPrice, lineAmount *float64
		if f, ok := r.Float("unit_price"); ok {
			unitPrice = &f
		}
		if f, ok := r.Float("line_amount"); ok {
			lineAmount = &f
		}
		amount, price := ReconcileNumeric(quantity, unitPrice, lineAmount)

		out = append(out, domain.ConformedSale{
			OrderNumber:   orderNumber,
			ProductNumber: strings.TrimSpace(r.String("product_key")),
			CustomerID:    strings.TrimSpace(r.String("customer_id")),
			OrderDate:     parseIntDate(r, "order_date"),
			ShipDate:      parseIntDate(r, "ship_date"),
			DueDate:       parseIntDate(r, "due_date"),
			Quantity:      quantity,
			UnitPrice:     price,
			LineAmount:    amount,
		})
	}
	stats.Output = len(out)
	return out, stats
}

// Demographics conforms the ERP customer reference: the legacy NAS id
// prefix is stripped so the id joins the CRM customer key, birth dates in
// the future are nulled, gender is normalized.
func (c *Conformer) Demographics(records []domain.RawRecord) ([]domain.CustomerDemographics, Stats) {
	stats := Stats{Input: len(records)}

	out := make([]domain.CustomerDemographics, 0, len(records))
	for _, r := range records {
		id := strings.TrimSpace(r.String("customer_id"))
		id = strings.TrimPrefix(id, "NAS")
		if id == "" {
			stats.Dropped++
			continue
		}

		var birth *time.Time
		if t, ok := parseDate(strings.TrimSpace(r.String("birth_date"))); ok && !t.After(c.now()) {
			birth = &t
		}

		out = append(out, domain.CustomerDemographics{
			CustomerID: id,
			BirthDate:  birth,
			Gender:     c.vocabs.Gender.Normalize(r.String("gender")),
		})
	}
	stats.Output = len(out)
	return out, stats
}

// Locations conforms the ERP location reference: embedded dashes in the
// id are stripped to match the CRM customer key, country is normalized.
func (c *Conformer) Locations(records []domain.RawRecord) ([]domain.CustomerLocation, Stats) {
	stats := Stats{Input: len(records)}

	out := make([]domain.CustomerLocation, 0, len(records))
	for _, r := range records {
		id := strings.ReplaceAll(strings.TrimSpace(r.String("customer_id")), "-", "")
		if id == "" {
			stats.Dropped++
			continue
		}
		out = append(out, domain.CustomerLocation{
			CustomerID: id,
			Country:    c.vocabs.Country.Normalize(r.String("country")),
		})
	}
	stats.Output = len(out)
	return out, stats
}

// Categories conforms the ERP product category reference.
func (c *Conformer) Categories(records []domain.RawRecord) ([]domain.ProductCategory, Stats) {
	stats := Stats{Input: len(records)}

	out := make([]domain.ProductCategory, 0, len(records))
	for _, r := range records {
		id := strings.TrimSpace(r.String("category_id"))
		if id == "" {
			stats.Dropped++
			continue
		}
		out = append(out, domain.ProductCategory{
			CategoryID:  id,
			Category:    strings.TrimSpace(r.String("category")),
			Subcategory: strings.TrimSpace(r.String("subcategory")),
			Maintenance: strings.TrimSpace(r.String("maintenance")),
		})
	}
	stats.Output = len(out)
	return out, stats
}

// parseIntDate decodes the ERP-style YYYYMMDD integer date carried in
// the sales extract. Zero and wrong-width values are null, not errors.
func parseIntDate(r domain.RawRecord, field string) *time.Time {
	n, ok := r.Int(field)
	if !ok || n <= 0 {
		return nil
	}
	s := strings.TrimSpace(r.String(field))
	if len(s) != 8 {
		return nil
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return nil
	}
	return &t
}
