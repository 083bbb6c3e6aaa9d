package design

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCurrentFee(t *testing.T) {
	fee := decimal.RequireFromString("4.50")

	tests := []struct {
		name   string
		design Design
		want   string
	}{
		{"below target", Design{Price: fee, SalesCount: 3, TargetSales: 10, Status: DesignStatusPublished}, "4.50"},
		{"target reached", Design{Price: fee, SalesCount: 10, TargetSales: 10, Status: DesignStatusInProgress}, "0.00"},
		{"status already free", Design{Price: fee, Status: DesignStatusFreeAchieved}, "0.00"},
		{"no target configured", Design{Price: fee, SalesCount: 500}, "4.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.design.CurrentFee().StringFixed(2))
		})
	}
}

func TestIsAvailable(t *testing.T) {
	assert.False(t, (&Design{Status: DesignStatusDraft}).IsAvailable())
	assert.True(t, (&Design{Status: DesignStatusDraft, IsPublic: true}).IsAvailable())
	assert.True(t, (&Design{Status: DesignStatusPublished}).IsAvailable())
	assert.True(t, (&Design{Status: DesignStatusFreeAchieved}).IsAvailable())
}

func TestBeforeCreateAssignsID(t *testing.T) {
	d := &Design{}
	assert.NoError(t, d.BeforeCreate(nil))
	assert.Len(t, d.ID, 36)

	kept := &Design{ID: "fixed"}
	assert.NoError(t, kept.BeforeCreate(nil))
	assert.Equal(t, "fixed", kept.ID)
}
