package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    CommandType
		args    []string
	}{
		{name: "purchase keeps asset case", message: "/achat CHASSIS-123 50L", want: CommandPurchase, args: []string{"CHASSIS-123", "50L"}},
		{name: "command word is case-insensitive", message: "  /Livraison CAM-1 500 ", want: CommandDelivery, args: []string{"CAM-1", "500"}},
		{name: "slash is optional", message: "vente 120 93000", want: CommandSale, args: []string{"120", "93000"}},
		{name: "stock", message: "/stock", want: CommandStock},
		{name: "english help alias", message: "/help", want: CommandHelp},
		{name: "unknown", message: "/eggs 12", want: CommandUnknown, args: []string{"12"}},
		{name: "empty", message: "   ", want: CommandUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := ParseCommand(tt.message)
			assert.Equal(t, tt.want, cmd.Type)
			assert.Equal(t, tt.args, cmd.Args)
			assert.Equal(t, tt.message, cmd.Raw)
		})
	}
}
