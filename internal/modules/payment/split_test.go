package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitAmount(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		mode       Mode
		percent    int
		wantToPay  int64
		wantCODDue int64
	}{
		{"full payment ignores percent", 100000, ModeFullPayment, 30, 100000, 0},
		{"cod partial even split", 100000, ModeCODPartial, 30, 30000, 70000},
		{"cod partial rounds half up", 5, ModeCODPartial, 30, 2, 3},
		{"cod partial rounds down", 99999, ModeCODPartial, 30, 30000, 69999},
		{"cod partial 100 percent", 4200, ModeCODPartial, 100, 4200, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toPay, codDue := SplitAmount(tt.total, tt.mode, tt.percent)
			assert.Equal(t, tt.wantToPay, toPay)
			assert.Equal(t, tt.wantCODDue, codDue)
			assert.Equal(t, tt.total, toPay+codDue)
		})
	}
}

func TestRupees(t *testing.T) {
	assert.Equal(t, "1234.50", Rupees(123450))
	assert.Equal(t, "0.05", Rupees(5))
}
