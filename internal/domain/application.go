package domain

import (
	"github.com/google/uuid"
)

// ProductLine identifies the credit product an application belongs to.
type ProductLine string

const (
	// ProductLineRevolving is the primary revolving credit product.
	ProductLineRevolving ProductLine = "REVOLVING"
	// ProductLineLegacy is the installment product that was migrated into
	// the revolving product. A paid-off loan on this line disqualifies the
	// customer from PROVEN matrix selection.
	ProductLineLegacy ProductLine = "LEGACY"
	// ProductLineTurbo is the lighter-weight alternate product whose limit
	// is superseded once the revolving product's limit exceeds it.
	ProductLineTurbo ProductLine = "TURBO"
)

// Application represents a credit application feeding limit generation.
type Application struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	AccountID   uuid.UUID
	PartnerID   *uuid.UUID // NULL unless the application came through a partner channel
	ProductLine ProductLine
}

// HasPartner reports whether the application came through a partner channel.
// Partnered applications are excluded from behavioral-score recalculation.
func (a *Application) HasPartner() bool {
	return a.PartnerID != nil
}
