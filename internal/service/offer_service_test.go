package service

import (
	"testing"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOffer(t *testing.T) {
	f := newFixture(t)
	seller := f.user(t, "seller")
	buyer := f.user(t, "buyer")
	p := f.product(t, seller, "100", 1, "Libros")

	tests := []struct {
		name  string
		actor models.Actor
		req   *CreateOfferRequest
		kind  apperror.Kind
	}{
		{"unknown product", buyer, &CreateOfferRequest{ProductID: 999, Price: decimal.NewFromInt(50)}, apperror.KindNotFound},
		{"own product", seller, &CreateOfferRequest{ProductID: p.ID, Price: decimal.NewFromInt(50)}, apperror.KindInvalidRequest},
		{"not lower", buyer, &CreateOfferRequest{ProductID: p.ID, Price: decimal.NewFromInt(100)}, apperror.KindInvalidRequest},
		{"not positive", buyer, &CreateOfferRequest{ProductID: p.ID, Price: decimal.Zero}, apperror.KindInvalidRequest},
		{"negative", buyer, &CreateOfferRequest{ProductID: p.ID, Price: decimal.NewFromInt(-5)}, apperror.KindInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.offers.CreateOffer(f.ctx, tt.actor, tt.req)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}

	offer, err := f.offers.CreateOffer(f.ctx, buyer, &CreateOfferRequest{ProductID: p.ID, Price: decimal.NewFromInt(80)})
	require.NoError(t, err)
	assert.Equal(t, models.OfferPending, offer.State)

	require.NoError(t, f.catalog.DeleteProduct(f.ctx, seller, p.ID))
	_, err = f.offers.CreateOffer(f.ctx, buyer, &CreateOfferRequest{ProductID: p.ID, Price: decimal.NewFromInt(80)})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestAcceptOfferOverwritesPrice(t *testing.T) {
	f := newFixture(t)
	seller := f.user(t, "seller")
	buyer := f.user(t, "buyer")
	p := f.product(t, seller, "100", 1, "Libros")

	offer, err := f.offers.CreateOffer(f.ctx, buyer, &CreateOfferRequest{ProductID: p.ID, Price: decimal.NewFromInt(80)})
	require.NoError(t, err)

	_, err = f.offers.RespondOffer(f.ctx, buyer, offer.ID, &RespondOfferRequest{Action: models.DecisionAccept})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	_, err = f.offers.RespondOffer(f.ctx, seller, offer.ID, &RespondOfferRequest{Action: "contraofertar"})
	assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))

	accepted, err := f.offers.RespondOffer(f.ctx, seller, offer.ID, &RespondOfferRequest{Action: models.DecisionAccept})
	require.NoError(t, err)
	assert.Equal(t, models.OfferAccepted, accepted.State)
	assert.NotNil(t, accepted.RespondedAt)

	stored, err := f.store.GetProductByID(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "80.00", stored.Price.StringFixed(2))

	for _, action := range []models.OfferDecision{models.DecisionAccept, models.DecisionReject, "cualquiera"} {
		_, err = f.offers.RespondOffer(f.ctx, seller, offer.ID, &RespondOfferRequest{Action: action})
		assert.Equal(t, apperror.KindConflict, apperror.KindOf(err), string(action))
	}
}

func TestRejectOfferKeepsPrice(t *testing.T) {
	f := newFixture(t)
	seller := f.user(t, "seller")
	buyer := f.user(t, "buyer")
	p := f.product(t, seller, "100", 1, "Libros")

	offer, err := f.offers.CreateOffer(f.ctx, buyer, &CreateOfferRequest{ProductID: p.ID, Price: decimal.NewFromInt(60)})
	require.NoError(t, err)

	rejected, err := f.offers.RespondOffer(f.ctx, seller, offer.ID, &RespondOfferRequest{Action: models.DecisionReject})
	require.NoError(t, err)
	assert.Equal(t, models.OfferRejected, rejected.State)

	stored, err := f.store.GetProductByID(f.ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.Price.Equal(decimal.NewFromInt(100)))

	_, err = f.offers.RespondOffer(f.ctx, seller, 999, &RespondOfferRequest{Action: models.DecisionReject})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	offers, err := f.offers.ListProductOffers(f.ctx, seller, p.ID)
	require.NoError(t, err)
	assert.Len(t, offers, 1)
	_, err = f.offers.ListProductOffers(f.ctx, buyer, p.ID)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}
