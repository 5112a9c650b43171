package models

import "strings"

// CommandType enumerates the operator commands accepted over WhatsApp.
type CommandType string

const (
	CommandPurchase CommandType = "achat"
	CommandDelivery CommandType = "livraison"
	CommandSale     CommandType = "vente"
	CommandStock    CommandType = "stock"
	CommandHelp     CommandType = "aide"
	CommandUnknown  CommandType = "unknown"
)

// Command represents a parsed operator instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from a free-form message. Only the command
// word is case-insensitive; arguments keep their case so asset IDs survive.
func ParseCommand(message string) Command {
	cmd := Command{Type: CommandUnknown, Raw: message}

	tokens := strings.Fields(message)
	if len(tokens) == 0 {
		return cmd
	}

	head := strings.TrimPrefix(strings.ToLower(tokens[0]), "/")
	switch CommandType(head) {
	case CommandPurchase, CommandDelivery, CommandSale, CommandStock, CommandHelp:
		cmd.Type = CommandType(head)
	case "help":
		cmd.Type = CommandHelp
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
