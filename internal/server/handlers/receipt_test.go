package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsplit/tripsplitd/internal/core/receipt"
	"github.com/tripsplit/tripsplitd/internal/money"
)

func TestReceiptOCR(t *testing.T) {
	e := newEnv(t)
	ana, anaToken := e.seedUser(t, "ana")
	trip := e.seedTrip(t, "Lisbon", ana.ID)

	raw := "JOE'S DINER\n" +
		"06/15/2025 7:42 PM\n" +
		"Burger $8.99\n" +
		"Fries $3.49\n" +
		"Subtotal $12.48\n" +
		"Tax $1.00\n" +
		"Total $13.48\n"

	rec := e.do(t, http.MethodPost, "/trips/"+trip.ID.String()+"/receipt/ocr", anaToken, gin.H{
		"rawText": raw,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	parsed := decode[receipt.Parsed](t, rec)
	assert.Equal(t, "JOE'S DINER", parsed.MerchantName)
	assert.Equal(t, "2025-06-15", parsed.TransactionDate)
	require.Len(t, parsed.Items, 2)
	assert.Equal(t, "Burger", parsed.Items[0].Name)
	assert.Equal(t, money.Cents(899), parsed.Items[0].Price)
	assert.Equal(t, money.Cents(1248), parsed.Subtotal)
	assert.Equal(t, money.Cents(1348), parsed.Total)
	assert.Equal(t, receipt.SourceRules, parsed.Source)

	// Parsing never writes anything; the client reviews and posts an
	// itemized expense separately.
	assert.Empty(t, e.store.expenses)
}

func TestReceiptOCRValidation(t *testing.T) {
	e := newEnv(t)
	ana, anaToken := e.seedUser(t, "ana")
	_, strangerToken := e.seedUser(t, "carol")
	trip := e.seedTrip(t, "Lisbon", ana.ID)
	path := "/trips/" + trip.ID.String() + "/receipt/ocr"

	rec := e.do(t, http.MethodPost, path, anaToken, gin.H{"rawText": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, path, anaToken, gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, path, strangerToken, gin.H{"rawText": "Total $5.00"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "TRIP_NOT_FOUND", errorCode(t, rec))
}
