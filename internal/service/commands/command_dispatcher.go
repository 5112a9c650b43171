package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/fueldepot/internal/domain/fuel"
	"github.com/mamadbah2/fueldepot/internal/domain/models"
	"github.com/mamadbah2/fueldepot/internal/service/ledger"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates the command word is not known.
var ErrUnsupportedCommand = errors.New("unsupported command")

const dateFormat = "2006-01-02"

// Usage lists the accepted command syntax.
const Usage = `Commands:
/achat <engin> <quantité>L | <montant>F
/livraison <engin> <quantité>L | <montant>F
/vente <quantité>L [<montant>F]
/stock`

// Ledger is the part of the depot session the dispatcher writes to.
type Ledger interface {
	AddPurchase(ctx context.Context, in ledger.PurchaseInput) (ledger.PurchaseResult, error)
	AddDelivery(ctx context.Context, in ledger.PurchaseInput) (ledger.DeliveryResult, error)
	AddSale(ctx context.Context, in ledger.SaleInput) (ledger.SaleResult, error)
}

// StatusReporter answers /stock.
type StatusReporter interface {
	StockStatus() string
}

// Dispatcher executes parsed operator commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	ledger    Ledger
	reporting StatusReporter
	logger    *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(ledger Ledger, reporting StatusReporter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ledger: ledger, reporting: reporting, logger: logger}
}

// HandleCommand records the command on the depot ledgers and returns the reply text.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandPurchase:
		in, err := buildPurchaseInput(cmd)
		if err != nil {
			return "", err
		}
		res, err := s.ledger.AddPurchase(ctx, in)
		if err != nil {
			return "", err
		}
		message := fmt.Sprintf("Purchase saved for %s on %s: %s L, %s FCFA.",
			res.Record.AssetID, res.Record.Date.Format(dateFormat), res.Record.Volume.StringFixed(2), res.Record.Amount.StringFixed(0))
		message += fmt.Sprintf("\nStock: %s L (%s).", res.Row.ClosingStock.StringFixed(2), res.Row.Alert)
		return withWarning(message, res.Warning), nil
	case models.CommandDelivery:
		in, err := buildPurchaseInput(cmd)
		if err != nil {
			return "", err
		}
		res, err := s.ledger.AddDelivery(ctx, in)
		if err != nil {
			return "", err
		}
		message := fmt.Sprintf("Delivery saved for %s on %s: %s L.",
			res.Record.AssetID, res.Record.Date.Format(dateFormat), res.Record.Volume.StringFixed(2))
		message += tankLine(res.Summary)
		return withWarning(message, res.Warning), nil
	case models.CommandSale:
		in, err := buildSaleInput(cmd)
		if err != nil {
			return "", err
		}
		res, err := s.ledger.AddSale(ctx, in)
		if err != nil {
			return "", err
		}
		message := fmt.Sprintf("Sale saved on %s: %s L, %s FCFA collected.",
			res.Record.Date.Format(dateFormat), res.Record.VolumeSold.StringFixed(2), res.Record.AmountCollected.StringFixed(0))
		return message + tankLine(res.Summary), nil
	case models.CommandStock:
		if s.reporting == nil {
			return "", ErrUnsupportedCommand
		}
		return s.reporting.StockStatus(), nil
	case models.CommandHelp:
		return Usage, nil
	default:
		return "", ErrUnsupportedCommand
	}
}

// quantities splits tokens into a volume ("50L", "50") and an amount ("10000F", "10000FCFA").
func quantities(tokens []string) (volume, amount decimal.Decimal, err error) {
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		isAmount := false
		switch {
		case strings.HasSuffix(lower, "fcfa"):
			lower, isAmount = strings.TrimSuffix(lower, "fcfa"), true
		case strings.HasSuffix(lower, "f"):
			lower, isAmount = strings.TrimSuffix(lower, "f"), true
		case strings.HasSuffix(lower, "l"):
			lower = strings.TrimSuffix(lower, "l")
		}

		p := fuel.ParseDecimal(lower)
		if !p.OK {
			return decimal.Zero, decimal.Zero, ErrInvalidArguments
		}
		if isAmount {
			amount = p.Value
		} else {
			volume = p.Value
		}
	}
	return volume, amount, nil
}

func buildPurchaseInput(cmd models.Command) (ledger.PurchaseInput, error) {
	if len(cmd.Args) < 2 {
		return ledger.PurchaseInput{}, ErrInvalidArguments
	}

	volume, amount, err := quantities(cmd.Args[1:])
	if err != nil {
		return ledger.PurchaseInput{}, err
	}

	return ledger.PurchaseInput{AssetID: cmd.Args[0], Volume: volume, Amount: amount}, nil
}

func buildSaleInput(cmd models.Command) (ledger.SaleInput, error) {
	if len(cmd.Args) == 0 {
		return ledger.SaleInput{}, ErrInvalidArguments
	}

	// A bare second number is the collected amount.
	tokens := append([]string(nil), cmd.Args...)
	if len(tokens) == 2 && fuel.ParseDecimal(tokens[1]).OK {
		tokens[1] += "F"
	}

	volume, amount, err := quantities(tokens)
	if err != nil {
		return ledger.SaleInput{}, err
	}
	return ledger.SaleInput{VolumeSold: volume, AmountCollected: amount}, nil
}

func tankLine(summary fuel.TankSummary) string {
	if summary.CurrentClosingStock == nil {
		return "\nTank: no delivery recorded yet."
	}
	return fmt.Sprintf("\nTank: %s L (%s).", summary.CurrentClosingStock.StringFixed(2), summary.CurrentAlert)
}

func withWarning(message, warning string) string {
	if warning == "" {
		return message
	}
	return message + "\n" + warning
}
